package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type authorizationCodesRepo struct {
	db dbtx
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, c domain.AuthorizationCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authorization_codes (id, code_hash, user_id, app_id, expires_at, used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		c.ID, c.CodeHash, c.UserID, c.AppID, c.ExpiresAt.Unix(), c.CreatedAt.Unix(),
	)
	return mapAlreadyExists(err)
}

// ConsumeAuthorizationCode marks the code used and returns it. The UPDATE is
// the atomicity point: it only matches while used_at IS NULL and the code is
// unexpired, so of any concurrent redemptions exactly one sees a row change.
func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error) {
	err := execExpectingRow(ctx, r.db,
		`UPDATE authorization_codes SET used_at = ?
		 WHERE code_hash = ? AND used_at IS NULL AND expires_at > ?`,
		now.Unix(), codeHash, now.Unix(),
	)
	if err != nil {
		return domain.AuthorizationCode{}, err
	}

	var (
		c                    domain.AuthorizationCode
		usedAt               sql.NullInt64
		expiresAt, createdAt int64
	)
	err = r.db.QueryRowContext(ctx,
		`SELECT id, code_hash, user_id, app_id, expires_at, used_at, created_at
		 FROM authorization_codes WHERE code_hash = ?`, codeHash,
	).Scan(&c.ID, &c.CodeHash, &c.UserID, &c.AppID, &expiresAt, &usedAt, &createdAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	c.ExpiresAt = unixToTime(expiresAt)
	c.UsedAt = mapNullUnix(usedAt)
	c.CreatedAt = unixToTime(createdAt)
	return c, nil
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE expires_at <= ? OR used_at IS NOT NULL`,
		now.Unix(),
	)
	return err
}
