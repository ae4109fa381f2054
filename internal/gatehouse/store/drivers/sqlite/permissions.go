package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type permissionsRepo struct {
	db dbtx
}

const permissionColumns = `id, user_id, group_id, app_id, valid_from, valid_to, created_at`

func scanPermission(row interface{ Scan(...any) error }) (domain.Permission, error) {
	var (
		p                domain.Permission
		userID, groupID  sql.NullString
		createdAt        int64
	)
	err := row.Scan(&p.ID, &userID, &groupID, &p.AppID, &p.ValidFrom, &p.ValidTo, &createdAt)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	p.UserID = mapNullString(userID)
	p.GroupID = mapNullString(groupID)
	p.CreatedAt = unixToTime(createdAt)
	return p, nil
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (id, user_id, group_id, app_id, valid_from, valid_to, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, mapOptionalString(p.UserID), mapOptionalString(p.GroupID),
		p.AppID, p.ValidFrom, p.ValidTo, p.CreatedAt.Unix(),
	)
	return err
}

func (r *permissionsRepo) GetPermissionByID(ctx context.Context, id string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = ?`, id)
	return scanPermission(row)
}

// GetUserPermission returns the authoritative user-scoped grant. Multiple
// rows may exist for one (user, app) pair; the most recent grant wins.
func (r *permissionsRepo) GetUserPermission(ctx context.Context, userID, appID string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions
		 WHERE user_id = ? AND app_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, appID,
	)
	return scanPermission(row)
}

func (r *permissionsRepo) GetGroupPermission(ctx context.Context, groupID, appID string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions
		 WHERE group_id = ? AND app_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		groupID, appID,
	)
	return scanPermission(row)
}

func (r *permissionsRepo) DeletePermission(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM permissions WHERE id = ?`, id)
}
