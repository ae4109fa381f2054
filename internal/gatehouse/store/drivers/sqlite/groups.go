package sqlite

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type groupsRepo struct {
	db dbtx
}

func (r *groupsRepo) GetGroupByID(ctx context.Context, id string) (domain.Group, error) {
	var (
		g                    domain.Group
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &createdAt, &updatedAt)
	if err != nil {
		return domain.Group{}, mapNotFound(err)
	}
	g.CreatedAt = unixToTime(createdAt)
	g.UpdatedAt = unixToTime(updatedAt)
	return g, nil
}

func (r *groupsRepo) CreateGroup(ctx context.Context, g domain.Group) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, g.CreatedAt.Unix(), g.UpdatedAt.Unix(),
	)
	return mapAlreadyExists(err)
}

func (r *groupsRepo) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM groups ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var (
			g                    domain.Group
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&g.ID, &g.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		g.CreatedAt = unixToTime(createdAt)
		g.UpdatedAt = unixToTime(updatedAt)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *groupsRepo) DeleteGroup(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM groups WHERE id = ?`, id)
}
