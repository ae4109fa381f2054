package domain

import "time"

// AuthorizationCode is the single-use credential a downstream application
// exchanges for tokens. The code value is stored as a fingerprint; UsedAt is
// set exactly once via a conditional update, so redemption cannot repeat even
// under concurrent replay.
type AuthorizationCode struct {
	ID        string
	CodeHash  string
	UserID    string
	AppID     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
