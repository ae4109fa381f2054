package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
)

var (
	ErrPermissionOwner  = errors.New("permission needs exactly one of user or group")
	ErrPermissionWindow = errors.New("permission window is inverted")
)

type PermissionService struct {
	Store store.Store
	Audit *AuditService
}

// Check resolves whether user may access app at the instant now.
//
// The order is fixed: a paused application denies everyone before any grant
// is consulted, and a user-scoped grant is authoritative once found - an
// expired user grant denies even when a valid group grant exists, so an
// admin can always pull one person's access without touching their group.
func (s *PermissionService) Check(ctx context.Context, user domain.User, app domain.App, now time.Time) (domain.Decision, error) {
	if !app.Active() {
		return domain.Deny(domain.ReasonAppPaused), nil
	}

	p, err := s.Store.Permissions().GetUserPermission(ctx, user.ID, app.ID)
	switch {
	case err == nil:
		if p.Covers(now) {
			return domain.Allow(), nil
		}
		return domain.Deny(domain.ReasonUserWindow), nil
	case !errors.Is(err, store.ErrNotFound):
		return domain.Decision{}, fmt.Errorf("lookup user permission: %w", err)
	}

	if user.GroupID != nil {
		p, err = s.Store.Permissions().GetGroupPermission(ctx, *user.GroupID, app.ID)
		switch {
		case err == nil:
			if p.Covers(now) {
				return domain.Allow(), nil
			}
			return domain.Deny(domain.ReasonGroupWindow), nil
		case !errors.Is(err, store.ErrNotFound):
			return domain.Decision{}, fmt.Errorf("lookup group permission: %w", err)
		}
	}

	return domain.Deny(domain.ReasonNoPermission), nil
}

// Grant creates a permission for one user or one group. A zero ValidTo means
// no expiry.
func (s *PermissionService) Grant(ctx context.Context, p domain.Permission) (domain.Permission, error) {
	if (p.UserID == nil) == (p.GroupID == nil) {
		return domain.Permission{}, ErrPermissionOwner
	}
	if p.ValidTo == 0 {
		p.ValidTo = domain.PermissionNoExpiry
	}
	if p.ValidTo < p.ValidFrom {
		return domain.Permission{}, ErrPermissionWindow
	}

	if _, err := s.Store.Apps().GetAppByID(ctx, p.AppID); err != nil {
		return domain.Permission{}, fmt.Errorf("lookup app: %w", err)
	}

	p.ID = idx.New().String()
	p.CreatedAt = time.Now()
	if err := s.Store.Permissions().CreatePermission(ctx, p); err != nil {
		return domain.Permission{}, fmt.Errorf("create permission: %w", err)
	}

	params := map[string]string{"app_id": p.AppID}
	if p.UserID != nil {
		params["user_id"] = *p.UserID
	} else {
		params["group_id"] = *p.GroupID
	}
	s.Audit.Record(ctx, domain.AuditPermissionGranted, domain.AuditDetails{
		Key:    "audit.permission.granted",
		Params: params,
	})
	return p, nil
}

// Revoke deletes a permission by id.
func (s *PermissionService) Revoke(ctx context.Context, id string) error {
	p, err := s.Store.Permissions().GetPermissionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup permission: %w", err)
	}
	if err := s.Store.Permissions().DeletePermission(ctx, id); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	s.Audit.Record(ctx, domain.AuditPermissionRevoked, domain.AuditDetails{
		Key:    "audit.permission.revoked",
		Params: map[string]string{"permission_id": p.ID, "app_id": p.AppID},
	})
	return nil
}

func observeDenial(d domain.Decision) {
	if !d.Allowed {
		metrics.PermissionDenialsTotal.WithLabelValues(d.Reason).Inc()
	}
}
