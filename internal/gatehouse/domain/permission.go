package domain

import "time"

// PermissionNoExpiry is the valid_to sentinel for grants without an expiry
// (9999-12-31T23:59:59Z). A far-future timestamp keeps the column NOT NULL and
// lets window checks stay a single comparison.
const PermissionNoExpiry int64 = 253402300799

// Permission grants one user OR one group (mutually exclusive owner) access to
// one application during the half-open window [ValidFrom, ValidTo], both in
// unix seconds.
type Permission struct {
	ID        string
	UserID    *string
	GroupID   *string
	AppID     string
	ValidFrom int64
	ValidTo   int64
	CreatedAt time.Time
}

// Covers reports whether the grant window includes the instant now.
func (p *Permission) Covers(now time.Time) bool {
	u := now.Unix()
	return p.ValidFrom <= u && u <= p.ValidTo
}

// Denial reasons surfaced to users. These are display strings, not parseable
// codes.
const (
	ReasonAppPaused    = "application paused"
	ReasonUserWindow   = "user permission expired/invalid"
	ReasonGroupWindow  = "group permission expired/invalid"
	ReasonNoPermission = "no permission found"
)

// Decision is the outcome of resolving (user, app, now) against the
// permission table. Reason is populated only on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
