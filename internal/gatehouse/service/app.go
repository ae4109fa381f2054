package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
)

var (
	ErrInvalidBaseURL   = errors.New("base URL must be absolute")
	ErrInvalidAppStatus = errors.New("unknown application status")
)

type AppService struct {
	Store store.Store
	Audit *AuditService
}

// Register adds a downstream application. BaseURL is the redirect-target
// prefix used to match launch requests, so it must be an absolute URL.
func (s *AppService) Register(ctx context.Context, name, baseURL string) (domain.App, error) {
	name = strings.TrimSpace(name)
	baseURL = strings.TrimSpace(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return domain.App{}, ErrInvalidBaseURL
	}

	now := time.Now()
	app := domain.App{
		ID:        idx.New().String(),
		Name:      name,
		BaseURL:   baseURL,
		Status:    domain.AppStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Apps().CreateApp(ctx, app); err != nil {
		return domain.App{}, fmt.Errorf("create app: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditAppCreated, domain.AuditDetails{
		Key:    "audit.app.created",
		Params: map[string]string{"app_id": app.ID, "name": app.Name},
	})
	return app, nil
}

func (s *AppService) List(ctx context.Context) ([]domain.App, error) {
	return s.Store.Apps().ListApps(ctx)
}

// SetStatus pauses or resumes an application. Pausing denies every launch,
// redemption and refresh immediately; existing access tokens simply age out.
func (s *AppService) SetStatus(ctx context.Context, appID, status string) error {
	if status != domain.AppStatusActive && status != domain.AppStatusInactive {
		return ErrInvalidAppStatus
	}
	if err := s.Store.Apps().UpdateAppStatus(ctx, appID, status); err != nil {
		return fmt.Errorf("update app status: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditAppUpdated, domain.AuditDetails{
		Key:    "audit.app.status_changed",
		Params: map[string]string{"app_id": appID, "status": status},
	})
	return nil
}

func (s *AppService) Delete(ctx context.Context, appID string) error {
	if err := s.Store.Apps().DeleteApp(ctx, appID); err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	s.Audit.Record(ctx, domain.AuditAppDeleted, domain.AuditDetails{
		Key:    "audit.app.deleted",
		Params: map[string]string{"app_id": appID},
	})
	return nil
}
