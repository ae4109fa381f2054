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
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const (
	defaultCodeTTL   = 5 * time.Minute
	defaultAccessTTL = time.Hour
)

var (
	ErrInvalidTarget       = errors.New("invalid launch target")
	ErrNoMatchingApp       = errors.New("no application matches the launch target")
	ErrInvalidCode         = errors.New("invalid or expired authorization code")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAccessRevoked       = errors.New("access revoked")
	ErrInvalidAccessToken  = errors.New("invalid or expired access token")
)

// AccessDeniedError carries the user-facing denial reason from a permission
// decision.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

// BrokerService hands browsers single-use authorization codes and exchanges
// them for application token pairs.
type BrokerService struct {
	Store       store.Store
	Permissions *PermissionService
	Audit       *AuditService

	// CodeTTL bounds the browser round trip between launch and redemption.
	// Zero means five minutes.
	CodeTTL time.Duration

	// AccessTTL is the access token lifetime; refresh extends the app
	// session by the same amount. Zero means one hour.
	AccessTTL time.Duration
}

func (s *BrokerService) codeTTL() time.Duration {
	if s.CodeTTL <= 0 {
		return defaultCodeTTL
	}
	return s.CodeTTL
}

func (s *BrokerService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return defaultAccessTTL
	}
	return s.AccessTTL
}

// MatchApplication maps a launch target URL to the registered application
// whose base URL is the longest prefix of the target. Paused applications
// still match; the permission check is what turns them away, with a reason.
func (s *BrokerService) MatchApplication(ctx context.Context, target string) (domain.App, error) {
	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return domain.App{}, ErrInvalidTarget
	}

	apps, err := s.Store.Apps().ListApps(ctx)
	if err != nil {
		return domain.App{}, fmt.Errorf("list apps: %w", err)
	}

	var best domain.App
	for _, app := range apps {
		if !strings.HasPrefix(target, app.BaseURL) {
			continue
		}
		if len(app.BaseURL) > len(best.BaseURL) {
			best = app
		}
	}
	if best.ID == "" {
		return domain.App{}, ErrNoMatchingApp
	}
	return best, nil
}

// IssueCode authorizes user against the target's application and returns the
// target URL with a single-use code appended as the "code" query parameter.
// The rest of the target, path and query included, is preserved so the
// application can restore the user's intended location after the exchange.
func (s *BrokerService) IssueCode(ctx context.Context, user domain.User, target string) (string, error) {
	now := time.Now()

	app, err := s.MatchApplication(ctx, target)
	if err != nil {
		return "", err
	}

	decision, err := s.Permissions.Check(ctx, user, app, now)
	if err != nil {
		return "", err
	}
	if !decision.Allowed {
		observeDenial(decision)
		slogx.FromContext(ctx).Info("launch denied",
			slog.String("user_id", user.ID),
			slog.String("app_id", app.ID),
			slog.String("reason", decision.Reason))
		return "", &AccessDeniedError{Reason: decision.Reason}
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	err = s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
		ID:        idx.New().String(),
		CodeHash:  cryptox.FingerprintToken(code),
		UserID:    user.ID,
		AppID:     app.ID,
		ExpiresAt: now.Add(s.codeTTL()),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("create authorization code: %w", err)
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", ErrInvalidTarget
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RedeemCode swaps a single-use authorization code for an application token
// pair. The consume is one conditional update, so a code that loses the race
// to a concurrent redemption sees zero rows affected and fails as invalid.
// Consumption happens before the permission re-check: a denial still burns
// the code.
func (s *BrokerService) RedeemCode(ctx context.Context, code string) (domain.TokenPair, error) {
	now := time.Now()
	hash := cryptox.FingerprintToken(strings.TrimSpace(code))

	pair, err := s.redeem(ctx, hash, now)
	if err != nil {
		result := metrics.ResultFailed
		var denied *AccessDeniedError
		if errors.As(err, &denied) {
			result = metrics.ResultDenied
		}
		metrics.CodeRedemptionsTotal.WithLabelValues(result).Inc()
		return domain.TokenPair{}, err
	}

	metrics.CodeRedemptionsTotal.WithLabelValues(metrics.ResultOK).Inc()
	return pair, nil
}

func (s *BrokerService) redeem(ctx context.Context, hash string, now time.Time) (domain.TokenPair, error) {
	ac, err := s.Store.AuthorizationCodes().ConsumeAuthorizationCode(ctx, hash, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCode
		}
		return domain.TokenPair{}, fmt.Errorf("consume authorization code: %w", err)
	}

	user, err := s.Store.Users().GetUserByID(ctx, ac.UserID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	app, err := s.Store.Apps().GetAppByID(ctx, ac.AppID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("lookup app: %w", err)
	}

	// Re-checked here because permissions may have changed between launch
	// and redemption.
	decision, err := s.Permissions.Check(ctx, user, app, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !decision.Allowed {
		observeDenial(decision)
		return domain.TokenPair{}, &AccessDeniedError{Reason: decision.Reason}
	}

	return s.createAppSession(ctx, s.Store, user.ID, app.ID, now)
}

// Refresh rotates an app session's token pair. The permission decision is
// re-evaluated first; a denial revokes the session outright, so a later
// retry with the same refresh token reports it as invalid rather than
// revoked.
func (s *BrokerService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	now := time.Now()
	hash := cryptox.FingerprintToken(strings.TrimSpace(refreshToken))

	sess, err := s.Store.AppSessions().GetAppSessionByRefreshHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultFailed).Inc()
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, fmt.Errorf("lookup app session: %w", err)
	}

	user, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	app, err := s.Store.Apps().GetAppByID(ctx, sess.AppID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("lookup app: %w", err)
	}

	decision, err := s.Permissions.Check(ctx, user, app, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !decision.Allowed {
		observeDenial(decision)
		if err := s.Store.AppSessions().DeleteAppSession(ctx, sess.ID); err != nil {
			return domain.TokenPair{}, fmt.Errorf("revoke app session: %w", err)
		}
		slogx.FromContext(ctx).Info("refresh denied, app session revoked",
			slog.String("user_id", user.ID),
			slog.String("app_id", app.ID),
			slog.String("reason", decision.Reason))
		metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultDenied).Inc()
		return domain.TokenPair{}, ErrAccessRevoked
	}

	access, refresh, err := mintTokenPair()
	if err != nil {
		return domain.TokenPair{}, err
	}
	err = s.Store.AppSessions().RotateAppSession(ctx, hash,
		cryptox.FingerprintToken(access),
		cryptox.FingerprintToken(refresh),
		now.Add(s.accessTTL()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with a concurrent rotation or revocation.
			metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultFailed).Inc()
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, fmt.Errorf("rotate app session: %w", err)
	}

	metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultOK).Inc()
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// UserForAccessToken resolves a bearer access token to its user, for
// identity endpoints consumed by downstream applications.
func (s *BrokerService) UserForAccessToken(ctx context.Context, accessToken string) (domain.User, domain.AppSession, error) {
	hash := cryptox.FingerprintToken(strings.TrimSpace(accessToken))
	sess, err := s.Store.AppSessions().GetAppSessionByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.AppSession{}, ErrInvalidAccessToken
		}
		return domain.User{}, domain.AppSession{}, fmt.Errorf("lookup app session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return domain.User{}, domain.AppSession{}, ErrInvalidAccessToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return domain.User{}, domain.AppSession{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, sess, nil
}

func (s *BrokerService) createAppSession(ctx context.Context, st store.Store, userID, appID string, now time.Time) (domain.TokenPair, error) {
	access, refresh, err := mintTokenPair()
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = st.AppSessions().CreateAppSession(ctx, domain.AppSession{
		ID:               idx.New().String(),
		UserID:           userID,
		AppID:            appID,
		TokenHash:        cryptox.FingerprintToken(access),
		RefreshTokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt:        now.Add(s.accessTTL()),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("create app session: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessTTL(),
	}, nil
}

func mintTokenPair() (access, refresh string, err error) {
	access, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}
	refresh, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	return access, refresh, nil
}
