package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/mail"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const defaultInviteTTL = 7 * 24 * time.Hour

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidInvite = errors.New("invalid or expired invite")
)

type InviteService struct {
	Store  store.Store
	Mailer mail.Sender
	Audit  *AuditService

	// PortalURL is the externally reachable base of this service, used to
	// build invite links.
	PortalURL string

	// InviteTTL bounds how long an invite link stays redeemable. Zero means
	// seven days.
	InviteTTL time.Duration
}

// Create mints an invite for email and mails the link. The link is also
// returned so an admin can relay it out of band; mail failure is logged, not
// returned, because the link still works.
func (s *InviteService) Create(ctx context.Context, actorID, email string) (domain.Invite, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Invite{}, "", fmt.Errorf("invalid email %q", email)
	}

	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err == nil {
		return domain.Invite{}, "", ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Invite{}, "", fmt.Errorf("generate invite token: %w", err)
	}

	ttl := s.InviteTTL
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	now := time.Now()
	inv := domain.Invite{
		ID:        idx.New().String(),
		Email:     email,
		TokenHash: cryptox.FingerprintToken(token),
		CreatedBy: actorID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Invites().CreateInvite(ctx, inv); err != nil {
		return domain.Invite{}, "", fmt.Errorf("create invite: %w", err)
	}

	link := strings.TrimRight(s.PortalURL, "/") + "/invite?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("You have been invited to sign on.\n\nFollow this link to set your password:\n%s\n\nThe link expires %s.",
		link, inv.ExpiresAt.Format(time.RFC1123))
	if err := s.Mailer.Send(email, "You have been invited", body); err != nil {
		slogx.FromContext(ctx).Warn("invite mail failed",
			slog.String("email", email),
			slog.Any("error", err))
	}

	return inv, link, nil
}

// Redeem creates the invited user with the chosen password and burns the
// invite. Lookup, creation and the used flag share one transaction so two
// concurrent redemptions cannot both make an account.
func (s *InviteService) Redeem(ctx context.Context, token, password string) (domain.User, error) {
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	tokenHash := cryptox.FingerprintToken(strings.TrimSpace(token))
	now := time.Now()

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invites().GetActiveInviteByTokenHash(ctx, tokenHash, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidInvite
			}
			return fmt.Errorf("lookup invite: %w", err)
		}

		user = domain.User{
			ID:           idx.New().String(),
			Email:        inv.Email,
			PasswordHash: hash,
			Role:         domain.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.Invites().MarkInviteUsed(ctx, inv.ID, user.ID); err != nil {
			return fmt.Errorf("mark invite used: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.Audit.Record(ctx, domain.AuditUserCreated, domain.AuditDetails{
		Key:    "audit.user.created",
		Params: map[string]string{"user_id": user.ID, "email": user.Email},
	})
	return user, nil
}
