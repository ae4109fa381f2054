package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

type settingsRepo struct {
	db dbtx
}

func (r *settingsRepo) GetSiteSettings(ctx context.Context) (domain.SiteSettings, error) {
	var s domain.SiteSettings
	err := r.db.QueryRowContext(ctx,
		`SELECT name, subtitle FROM site_settings WHERE id = 1`,
	).Scan(&s.Name, &s.Subtitle)
	if err != nil {
		return domain.SiteSettings{}, mapNotFound(err)
	}
	return s, nil
}

func (r *settingsRepo) UpdateSiteSettings(ctx context.Context, s domain.SiteSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO site_settings (id, name, subtitle, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, subtitle = excluded.subtitle, updated_at = excluded.updated_at`,
		s.Name, s.Subtitle, time.Now().Unix(),
	)
	return err
}
