package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
)

// Defaults shown until an admin customises the portal.
const (
	defaultSiteName     = "Gatehouse"
	defaultSiteSubtitle = "Sign on once"
)

type SettingsService struct {
	Store store.Store
}

// Site returns the portal settings, falling back to the built-in defaults
// when nothing has been saved yet.
func (s *SettingsService) Site(ctx context.Context) (domain.SiteSettings, error) {
	settings, err := s.Store.Settings().GetSiteSettings(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SiteSettings{Name: defaultSiteName, Subtitle: defaultSiteSubtitle}, nil
		}
		return domain.SiteSettings{}, fmt.Errorf("load site settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) UpdateSite(ctx context.Context, settings domain.SiteSettings) error {
	settings.Name = strings.TrimSpace(settings.Name)
	if settings.Name == "" {
		settings.Name = defaultSiteName
	}
	if err := s.Store.Settings().UpdateSiteSettings(ctx, settings); err != nil {
		return fmt.Errorf("save site settings: %w", err)
	}
	return nil
}
