package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour

	// preAuthTTL bounds the window between a correct password and the
	// second-factor code.
	preAuthTTL = 5 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidPreAuth     = errors.New("invalid or expired second-factor token")
)

// LoginResult is the outcome of a password check. When the account has a
// second factor enrolled no session exists yet; the caller must come back
// through CompleteSecondFactor with the pre-auth token.
type LoginResult struct {
	SecondFactorRequired bool
	PreAuthToken         string
	SessionToken         string
	ExpiresAt            time.Time
}

type SessionService struct {
	Store        store.Store
	Signer       *jwtx.Signer
	SecondFactor *SecondFactorService
	Audit        *AuditService

	// SessionTTL is the browser session lifetime. Zero means seven days.
	SessionTTL time.Duration
}

// Login verifies the password and either opens a session or hands back a
// pre-auth token for the second-factor step. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultFailed).Inc()
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login password check failed", slog.String("user_id", user.ID))
		metrics.LoginsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.SecondFactorEnabled() {
		token, err := s.Signer.Sign(user.ID, jwtx.PurposePreAuth, "", preAuthTTL, time.Now())
		if err != nil {
			return LoginResult{}, fmt.Errorf("sign pre-auth token: %w", err)
		}
		return LoginResult{SecondFactorRequired: true, PreAuthToken: token}, nil
	}

	return s.openSession(ctx, user)
}

// CompleteSecondFactor finishes a login that Login parked behind the second
// factor.
func (s *SessionService) CompleteSecondFactor(ctx context.Context, preAuthToken, code string) (LoginResult, error) {
	claims, err := s.Signer.Verify(preAuthToken, jwtx.PurposePreAuth)
	if err != nil {
		return LoginResult{}, ErrInvalidPreAuth
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidPreAuth
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if !s.SecondFactor.VerifyCode(user, code, time.Now()) {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return LoginResult{}, ErrInvalidTOTPCode
	}

	return s.openSession(ctx, user)
}

func (s *SessionService) openSession(ctx context.Context, user domain.User) (LoginResult, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session token: %w", err)
	}

	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	now := time.Now()
	sess := domain.Session{
		ID:        cryptox.FingerprintToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditUserLogin, domain.AuditDetails{
		Key:    "audit.user.login",
		Params: map[string]string{"user_id": user.ID, "email": user.Email},
	})
	metrics.LoginsTotal.WithLabelValues(metrics.ResultOK).Inc()

	return LoginResult{SessionToken: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Resolve maps a session cookie token to its user. Expired sessions are
// deleted on sight.
func (s *SessionService) Resolve(ctx context.Context, sessionToken string) (domain.User, domain.Session, error) {
	if sessionToken == "" {
		return domain.User{}, domain.Session{}, ErrInvalidSession
	}

	id := cryptox.FingerprintToken(sessionToken)
	sess, err := s.Store.Sessions().GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.Session{}, ErrInvalidSession
		}
		return domain.User{}, domain.Session{}, fmt.Errorf("lookup session: %w", err)
	}

	now := time.Now()
	if sess.Expired(now) {
		if err := s.Store.Sessions().DeleteSession(ctx, id); err != nil {
			slogx.FromContext(ctx).Warn("delete expired session failed", slog.Any("error", err))
		}
		return domain.User{}, domain.Session{}, ErrInvalidSession
	}

	user, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("lookup session user: %w", err)
	}
	return user, sess, nil
}

// Logout tears the session down and revokes every downstream application
// grant the user holds, so signing out of the portal signs out everywhere.
// Unknown tokens are a no-op.
func (s *SessionService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	id := cryptox.FingerprintToken(sessionToken)
	sess, err := s.Store.Sessions().GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := s.Store.Sessions().DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.Store.AppSessions().DeleteUserAppSessions(ctx, sess.UserID); err != nil {
		return fmt.Errorf("revoke app sessions: %w", err)
	}
	return nil
}
