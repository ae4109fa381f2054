package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/mail"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// testEnv bundles an in-memory store with fully wired services.
type testEnv struct {
	store        store.Store
	audit        *AuditService
	perms        *PermissionService
	secondFactor *SecondFactorService
	sessions     *SessionService
	broker       *BrokerService
	invites      *InviteService
	users        *UserService
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st := newTestStore(t)
	signer := jwtx.NewSigner([]byte("test-signing-key"))

	env := &testEnv{store: st}
	env.audit = &AuditService{Store: st}
	env.perms = &PermissionService{Store: st, Audit: env.audit}
	env.secondFactor = &SecondFactorService{
		Store:  st,
		Signer: signer,
		Audit:  env.audit,
		Issuer: "Gatehouse Test",
	}
	env.sessions = &SessionService{
		Store:        st,
		Signer:       signer,
		SecondFactor: env.secondFactor,
		Audit:        env.audit,
	}
	env.broker = &BrokerService{
		Store:       st,
		Permissions: env.perms,
		Audit:       env.audit,
	}
	env.invites = &InviteService{
		Store:     st,
		Mailer:    mail.Discard{},
		Audit:     env.audit,
		PortalURL: "http://localhost:8080",
	}
	env.users = &UserService{Store: st, Audit: env.audit}
	return env
}

func (e *testEnv) createUser(t *testing.T, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) createGroup(t *testing.T, name string) domain.Group {
	t.Helper()

	now := time.Now()
	g := domain.Group{ID: idx.New().String(), Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.store.Groups().CreateGroup(context.Background(), g))
	return g
}

func (e *testEnv) createApp(t *testing.T, name, baseURL string) domain.App {
	t.Helper()

	now := time.Now()
	app := domain.App{
		ID:        idx.New().String(),
		Name:      name,
		BaseURL:   baseURL,
		Status:    domain.AppStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.store.Apps().CreateApp(context.Background(), app))
	return app
}

func (e *testEnv) grantUser(t *testing.T, userID, appID string, from, to int64) domain.Permission {
	t.Helper()

	p := domain.Permission{
		ID:        idx.New().String(),
		UserID:    &userID,
		AppID:     appID,
		ValidFrom: from,
		ValidTo:   to,
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.store.Permissions().CreatePermission(context.Background(), p))
	return p
}

func (e *testEnv) grantGroup(t *testing.T, groupID, appID string, from, to int64) domain.Permission {
	t.Helper()

	p := domain.Permission{
		ID:        idx.New().String(),
		GroupID:   &groupID,
		AppID:     appID,
		ValidFrom: from,
		ValidTo:   to,
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.store.Permissions().CreatePermission(context.Background(), p))
	return p
}

func (e *testEnv) assignGroup(t *testing.T, userID, groupID string) {
	t.Helper()
	require.NoError(t, e.store.Users().UpdateGroup(context.Background(), userID, &groupID))
}
