package domain

import "time"

// Audit event types. This vocabulary is closed: the presentation layer maps
// each event plus its details key to localized text, so new events require a
// matching message key.
const (
	AuditUserLogin           = "user.login"
	AuditUserPasswordChanged = "user.password_changed"
	AuditSecondFactorEnabled = "user.second_factor_enabled"
	AuditSecondFactorRemoved = "user.second_factor_removed"
	AuditUserCreated         = "user.created"
	AuditUserUpdated         = "user.updated"
	AuditUserDeleted         = "user.deleted"
	AuditGroupCreated        = "group.created"
	AuditGroupUpdated        = "group.updated"
	AuditGroupDeleted        = "group.deleted"
	AuditAppCreated          = "app.created"
	AuditAppUpdated          = "app.updated"
	AuditAppDeleted          = "app.deleted"
	AuditPermissionGranted   = "permission.granted"
	AuditPermissionRevoked   = "permission.revoked"
)

// AuditDetails is the structured payload of an audit entry: a message key plus
// substitution parameters. The human-readable string is resolved at display
// time, which keeps the log reusable across locales.
type AuditDetails struct {
	Key    string            `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}

// AuditEntry is an append-only record of a security-relevant action.
type AuditEntry struct {
	ID        string
	Event     string
	Details   AuditDetails
	CreatedAt time.Time
}
