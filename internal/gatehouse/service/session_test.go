package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("correct password opens a session", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@example.com", "password-1")

		res, err := env.sessions.Login(ctx, "a@example.com", "password-1")
		require.NoError(t, err)
		require.False(t, res.SecondFactorRequired)
		require.NotEmpty(t, res.SessionToken)
		require.WithinDuration(t, time.Now().Add(defaultSessionTTL), res.ExpiresAt, time.Minute)

		got, _, err := env.sessions.Resolve(ctx, res.SessionToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("email is case and space insensitive", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser(t, "a@example.com", "password-1")

		_, err := env.sessions.Login(ctx, "  A@Example.COM ", "password-1")
		require.NoError(t, err)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser(t, "a@example.com", "password-1")

		_, err := env.sessions.Login(ctx, "a@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = env.sessions.Login(ctx, "nobody@example.com", "password-1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("second factor parks the login", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@example.com", "password-1")
		secret := enrollTOTP(t, env, user.ID)

		res, err := env.sessions.Login(ctx, "a@example.com", "password-1")
		require.NoError(t, err)
		require.True(t, res.SecondFactorRequired)
		require.NotEmpty(t, res.PreAuthToken)
		require.Empty(t, res.SessionToken, "no session before the second factor")

		code, err := CurrentCode(secret, time.Now())
		require.NoError(t, err)

		done, err := env.sessions.CompleteSecondFactor(ctx, res.PreAuthToken, code)
		require.NoError(t, err)
		require.NotEmpty(t, done.SessionToken)

		got, _, err := env.sessions.Resolve(ctx, done.SessionToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong second factor code fails", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@example.com", "password-1")
		enrollTOTP(t, env, user.ID)

		res, err := env.sessions.Login(ctx, "a@example.com", "password-1")
		require.NoError(t, err)

		_, err = env.sessions.CompleteSecondFactor(ctx, res.PreAuthToken, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)
	})

	t.Run("garbage pre-auth token fails", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.sessions.CompleteSecondFactor(ctx, "not-a-token", "123456")
		require.ErrorIs(t, err, ErrInvalidPreAuth)
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown token", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.sessions.Resolve(ctx, "no-such-token")
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("empty token", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.sessions.Resolve(ctx, "")
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("expired session is deleted on sight", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "a@example.com", "password-1")

		token, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		id := cryptox.FingerprintToken(token)
		require.NoError(t, env.store.Sessions().CreateSession(ctx, domain.Session{
			ID:        id,
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(-time.Minute),
			CreatedAt: time.Now().Add(-time.Hour),
		}))

		_, _, err = env.sessions.Resolve(ctx, token)
		require.ErrorIs(t, err, ErrInvalidSession)

		_, err = env.store.Sessions().GetSessionByID(ctx, id)
		require.Error(t, err)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	user := env.createUser(t, "a@example.com", "password-1")
	app := env.createApp(t, "Wiki", "https://wiki.example.com")
	env.grantUser(t, user.ID, app.ID, time.Now().Add(-time.Hour).Unix(), domain.PermissionNoExpiry)

	res, err := env.sessions.Login(ctx, "a@example.com", "password-1")
	require.NoError(t, err)

	pair, err := env.broker.RedeemCode(ctx, launchCode(t, env, user, "https://wiki.example.com/"))
	require.NoError(t, err)

	require.NoError(t, env.sessions.Logout(ctx, res.SessionToken))

	// Both the portal session and the downstream grant are gone.
	_, _, err = env.sessions.Resolve(ctx, res.SessionToken)
	require.ErrorIs(t, err, ErrInvalidSession)
	_, _, err = env.broker.UserForAccessToken(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidAccessToken)
	_, err = env.broker.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	// Logout is idempotent.
	require.NoError(t, env.sessions.Logout(ctx, res.SessionToken))
}
