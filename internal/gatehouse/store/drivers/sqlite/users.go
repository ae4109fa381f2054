package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, role, group_id, totp_secret, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		groupID, totpSecret  sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &groupID, &totpSecret, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.GroupID = mapNullString(groupID)
	u.TOTPSecret = mapNullString(totpSecret)
	u.CreatedAt = unixToTime(createdAt)
	u.UpdatedAt = unixToTime(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, group_id, totp_secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash,
		u.Role,
		mapOptionalString(u.GroupID),
		mapOptionalString(u.TOTPSecret),
		u.CreatedAt.Unix(),
		u.UpdatedAt.Unix(),
	)
	return mapAlreadyExists(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return execExpectingRow(ctx, r.db,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().Unix(), userID,
	)
}

func (r *usersRepo) UpdateTOTPSecret(ctx context.Context, userID string, secret *string) error {
	return execExpectingRow(ctx, r.db,
		`UPDATE users SET totp_secret = ?, updated_at = ? WHERE id = ?`,
		mapOptionalString(secret), time.Now().Unix(), userID,
	)
}

func (r *usersRepo) UpdateGroup(ctx context.Context, userID string, groupID *string) error {
	return execExpectingRow(ctx, r.db,
		`UPDATE users SET group_id = ?, updated_at = ? WHERE id = ?`,
		mapOptionalString(groupID), time.Now().Unix(), userID,
	)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM users WHERE id = ?`, userID)
}
