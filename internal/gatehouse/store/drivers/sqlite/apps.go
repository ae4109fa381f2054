package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type appsRepo struct {
	db dbtx
}

const appColumns = `id, name, base_url, status, created_at, updated_at`

func scanApp(row interface{ Scan(...any) error }) (domain.App, error) {
	var (
		a                    domain.App
		createdAt, updatedAt int64
	)
	err := row.Scan(&a.ID, &a.Name, &a.BaseURL, &a.Status, &createdAt, &updatedAt)
	if err != nil {
		return domain.App{}, mapNotFound(err)
	}
	a.CreatedAt = unixToTime(createdAt)
	a.UpdatedAt = unixToTime(updatedAt)
	return a, nil
}

func (r *appsRepo) GetAppByID(ctx context.Context, id string) (domain.App, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appColumns+` FROM apps WHERE id = ?`, id)
	return scanApp(row)
}

func (r *appsRepo) ListApps(ctx context.Context) ([]domain.App, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+appColumns+` FROM apps ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.App
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *appsRepo) CreateApp(ctx context.Context, a domain.App) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO apps (id, name, base_url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.BaseURL, a.Status, a.CreatedAt.Unix(), a.UpdatedAt.Unix(),
	)
	return mapAlreadyExists(err)
}

func (r *appsRepo) UpdateAppStatus(ctx context.Context, appID, status string) error {
	return execExpectingRow(ctx, r.db,
		`UPDATE apps SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), appID,
	)
}

func (r *appsRepo) DeleteApp(ctx context.Context, appID string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM apps WHERE id = ?`, appID)
}
