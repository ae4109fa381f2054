package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
)

var ErrInvalidGroupName = errors.New("group name required")

type GroupService struct {
	Store store.Store
	Audit *AuditService
}

func (s *GroupService) Create(ctx context.Context, name string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Group{}, ErrInvalidGroupName
	}

	now := time.Now()
	g := domain.Group{
		ID:        idx.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Groups().CreateGroup(ctx, g); err != nil {
		return domain.Group{}, fmt.Errorf("create group: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditGroupCreated, domain.AuditDetails{
		Key:    "audit.group.created",
		Params: map[string]string{"group_id": g.ID, "name": g.Name},
	})
	return g, nil
}

func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.Store.Groups().ListGroups(ctx)
}

// Delete removes the group. Members fall back to having no group; their
// user-scoped permissions are untouched.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Groups().DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.Audit.Record(ctx, domain.AuditGroupDeleted, domain.AuditDetails{
		Key:    "audit.group.deleted",
		Params: map[string]string{"group_id": id},
	})
	return nil
}
