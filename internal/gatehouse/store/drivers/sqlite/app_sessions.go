package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type appSessionsRepo struct {
	db dbtx
}

const appSessionColumns = `id, user_id, app_id, token_hash, refresh_token_hash, expires_at, created_at, updated_at`

func scanAppSession(row interface{ Scan(...any) error }) (domain.AppSession, error) {
	var (
		s                               domain.AppSession
		expiresAt, createdAt, updatedAt int64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.AppID, &s.TokenHash, &s.RefreshTokenHash, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.AppSession{}, mapNotFound(err)
	}
	s.ExpiresAt = unixToTime(expiresAt)
	s.CreatedAt = unixToTime(createdAt)
	s.UpdatedAt = unixToTime(updatedAt)
	return s, nil
}

func (r *appSessionsRepo) CreateAppSession(ctx context.Context, s domain.AppSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_sessions (id, user_id, app_id, token_hash, refresh_token_hash, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.AppID, s.TokenHash, s.RefreshTokenHash,
		s.ExpiresAt.Unix(), s.CreatedAt.Unix(), s.UpdatedAt.Unix(),
	)
	return mapAlreadyExists(err)
}

func (r *appSessionsRepo) GetAppSessionByTokenHash(ctx context.Context, hash string) (domain.AppSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+appSessionColumns+` FROM app_sessions WHERE token_hash = ?`, hash)
	return scanAppSession(row)
}

func (r *appSessionsRepo) GetAppSessionByRefreshHash(ctx context.Context, hash string) (domain.AppSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+appSessionColumns+` FROM app_sessions WHERE refresh_token_hash = ?`, hash)
	return scanAppSession(row)
}

// RotateAppSession is keyed on the *current* refresh fingerprint so two
// concurrent refreshes with the same stale token cannot both succeed.
func (r *appSessionsRepo) RotateAppSession(ctx context.Context, currentRefreshHash, newTokenHash, newRefreshHash string, expiresAt time.Time) error {
	return execExpectingRow(ctx, r.db,
		`UPDATE app_sessions
		 SET token_hash = ?, refresh_token_hash = ?, expires_at = ?, updated_at = ?
		 WHERE refresh_token_hash = ?`,
		newTokenHash, newRefreshHash, expiresAt.Unix(), time.Now().Unix(), currentRefreshHash,
	)
}

func (r *appSessionsRepo) DeleteAppSession(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM app_sessions WHERE id = ?`, id)
}

func (r *appSessionsRepo) DeleteUserAppSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM app_sessions WHERE user_id = ?`, userID)
	return err
}

func (r *appSessionsRepo) DeleteExpiredAppSessions(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM app_sessions WHERE expires_at <= ?`, now.Unix())
	return err
}
