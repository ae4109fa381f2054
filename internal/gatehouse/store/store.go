package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories keep concerns tidy and make it obvious which operations a
// service touches.
type Store interface {
	Users() Users
	Groups() Groups
	Apps() Apps
	Permissions() Permissions
	Sessions() Sessions
	AuthorizationCodes() AuthorizationCodes
	AppSessions() AppSessions
	Invites() Invites
	AuditLog() AuditLog
	Settings() Settings

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn errors
	// and committing otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login; emails are unique.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	CreateUser(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateTOTPSecret sets or clears (nil) the second-factor secret.
	UpdateTOTPSecret(ctx context.Context, userID string, secret *string) error

	// UpdateGroup moves the user into a group, or out of any group when nil.
	UpdateGroup(ctx context.Context, userID string, groupID *string) error

	// DeleteUser cascades to sessions, app sessions and user permissions.
	DeleteUser(ctx context.Context, userID string) error
}

type Groups interface {
	GetGroupByID(ctx context.Context, id string) (domain.Group, error)
	CreateGroup(ctx context.Context, g domain.Group) error
	ListGroups(ctx context.Context) ([]domain.Group, error)

	// DeleteGroup detaches members (group_id set NULL) and cascades group
	// permissions per schema.
	DeleteGroup(ctx context.Context, id string) error
}

type Apps interface {
	GetAppByID(ctx context.Context, id string) (domain.App, error)

	// ListApps returns all registered applications; redirect-target matching
	// happens in the service layer.
	ListApps(ctx context.Context) ([]domain.App, error)

	CreateApp(ctx context.Context, a domain.App) error
	UpdateAppStatus(ctx context.Context, appID, status string) error
	DeleteApp(ctx context.Context, appID string) error
}

type Permissions interface {
	CreatePermission(ctx context.Context, p domain.Permission) error

	GetPermissionByID(ctx context.Context, id string) (domain.Permission, error)

	// GetUserPermission returns the authoritative user-scoped grant for
	// (user, app). When several rows exist the most recent grant wins.
	GetUserPermission(ctx context.Context, userID, appID string) (domain.Permission, error)

	// GetGroupPermission is the group-scoped counterpart.
	GetGroupPermission(ctx context.Context, groupID, appID string) (domain.Permission, error)

	DeletePermission(ctx context.Context, id string) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID looks a session up by the cookie token's fingerprint.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

type AuthorizationCodes interface {
	CreateAuthorizationCode(ctx context.Context, c domain.AuthorizationCode) error

	// ConsumeAuthorizationCode atomically marks the code used and returns it.
	// The update only succeeds when used_at is still NULL and the code has
	// not expired; zero rows affected reports ErrNotFound, which callers
	// treat as invalid-or-expired. This is the single-statement check-then-act
	// that makes concurrent replay of the same code lose the race.
	ConsumeAuthorizationCode(ctx context.Context, codeHash string, now time.Time) (domain.AuthorizationCode, error)

	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) error
}

type AppSessions interface {
	CreateAppSession(ctx context.Context, s domain.AppSession) error

	GetAppSessionByTokenHash(ctx context.Context, hash string) (domain.AppSession, error)
	GetAppSessionByRefreshHash(ctx context.Context, hash string) (domain.AppSession, error)

	// RotateAppSession swaps both token fingerprints and extends expiry in a
	// single conditional update keyed on the current refresh fingerprint.
	// Zero rows affected reports ErrNotFound: the token was already rotated
	// or revoked, so a concurrent refresh with a stale token cannot succeed.
	RotateAppSession(ctx context.Context, currentRefreshHash, newTokenHash, newRefreshHash string, expiresAt time.Time) error

	DeleteAppSession(ctx context.Context, id string) error

	// DeleteUserAppSessions revokes every downstream grant for a user
	// (explicit logout signs out globally).
	DeleteUserAppSessions(ctx context.Context, userID string) error

	DeleteExpiredAppSessions(ctx context.Context, now time.Time) error
}

type Invites interface {
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetActiveInviteByTokenHash returns a not-used, not-expired invite.
	GetActiveInviteByTokenHash(ctx context.Context, hash string, now time.Time) (domain.Invite, error)

	MarkInviteUsed(ctx context.Context, inviteID, usedByUserID string) error
	DeleteExpiredInvites(ctx context.Context, now time.Time) error
}

type AuditLog interface {
	// AppendAuditEntry writes one append-only record. There is no update or
	// delete path.
	AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListRecentAuditEntries returns the newest entries first.
	ListRecentAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

type Settings interface {
	// GetSiteSettings returns ErrNotFound until the row is first written;
	// callers fall back to in-code defaults.
	GetSiteSettings(ctx context.Context) (domain.SiteSettings, error)

	UpdateSiteSettings(ctx context.Context, s domain.SiteSettings) error
}
