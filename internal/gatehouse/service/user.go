package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
)

const minPasswordLength = 8

var ErrWeakPassword = errors.New("password too short")

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

type UserService struct {
	Store store.Store
	Audit *AuditService
}

// ChangePassword swaps the password after re-proving the current one.
// Existing sessions stay valid; only the credential changes.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, password string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := cryptox.VerifyPassword(current, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditUserPasswordChanged, domain.AuditDetails{
		Key:    "audit.user.password_changed",
		Params: map[string]string{"user_id": userID},
	})
	return nil
}

// AssignGroup moves the user into a group, or out of any group when groupID
// is nil.
func (s *UserService) AssignGroup(ctx context.Context, userID string, groupID *string) error {
	if groupID != nil {
		if _, err := s.Store.Groups().GetGroupByID(ctx, *groupID); err != nil {
			return fmt.Errorf("lookup group: %w", err)
		}
	}
	if err := s.Store.Users().UpdateGroup(ctx, userID, groupID); err != nil {
		return fmt.Errorf("update group: %w", err)
	}

	params := map[string]string{"user_id": userID}
	if groupID != nil {
		params["group_id"] = *groupID
	}
	s.Audit.Record(ctx, domain.AuditUserUpdated, domain.AuditDetails{
		Key:    "audit.user.group_changed",
		Params: params,
	})
	return nil
}

// Delete removes the user; sessions, app sessions and user permissions go
// with the row.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.Audit.Record(ctx, domain.AuditUserDeleted, domain.AuditDetails{
		Key:    "audit.user.deleted",
		Params: map[string]string{"user_id": userID},
	})
	return nil
}
