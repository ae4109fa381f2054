package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller commits or rolls back

// Ping is a no-op for transactions; the connection is already established.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts

func (t *txStore) Users() store.Users                           { return &usersRepo{db: t.tx} }
func (t *txStore) Groups() store.Groups                         { return &groupsRepo{db: t.tx} }
func (t *txStore) Apps() store.Apps                             { return &appsRepo{db: t.tx} }
func (t *txStore) Permissions() store.Permissions               { return &permissionsRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions                     { return &sessionsRepo{db: t.tx} }
func (t *txStore) AuthorizationCodes() store.AuthorizationCodes { return &authorizationCodesRepo{db: t.tx} }
func (t *txStore) AppSessions() store.AppSessions               { return &appSessionsRepo{db: t.tx} }
func (t *txStore) Invites() store.Invites                       { return &invitesRepo{db: t.tx} }
func (t *txStore) AuditLog() store.AuditLog                     { return &auditLogRepo{db: t.tx} }
func (t *txStore) Settings() store.Settings                     { return &settingsRepo{db: t.tx} }
