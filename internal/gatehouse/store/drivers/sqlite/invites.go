package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type invitesRepo struct {
	db dbtx
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (id, email, token_hash, created_by, expires_at, used, used_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, '', ?, ?)`,
		inv.ID, inv.Email, inv.TokenHash, inv.CreatedBy,
		inv.ExpiresAt.Unix(), inv.CreatedAt.Unix(), inv.UpdatedAt.Unix(),
	)
	return mapAlreadyExists(err)
}

func (r *invitesRepo) GetActiveInviteByTokenHash(ctx context.Context, hash string, now time.Time) (domain.Invite, error) {
	var (
		inv                             domain.Invite
		used                            int
		expiresAt, createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, token_hash, created_by, expires_at, used, used_by, created_at, updated_at
		 FROM invites WHERE token_hash = ? AND used = 0 AND expires_at > ?`,
		hash, now.Unix(),
	).Scan(&inv.ID, &inv.Email, &inv.TokenHash, &inv.CreatedBy, &expiresAt, &used, &inv.UsedBy, &createdAt, &updatedAt)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	inv.Used = used != 0
	inv.ExpiresAt = unixToTime(expiresAt)
	inv.CreatedAt = unixToTime(createdAt)
	inv.UpdatedAt = unixToTime(updatedAt)
	return inv, nil
}

func (r *invitesRepo) MarkInviteUsed(ctx context.Context, inviteID, usedByUserID string) error {
	return execExpectingRow(ctx, r.db,
		`UPDATE invites SET used = 1, used_by = ?, updated_at = ? WHERE id = ? AND used = 0`,
		usedByUserID, time.Now().Unix(), inviteID,
	)
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invites WHERE expires_at <= ?`, now.Unix())
	return err
}
