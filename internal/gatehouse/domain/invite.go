package domain

import "time"

// Invite lets an admin onboard a user by emailed link. TokenHash is the
// fingerprint of the opaque invite token.
type Invite struct {
	ID        string
	Email     string
	TokenHash string
	CreatedBy string
	ExpiresAt time.Time
	Used      bool
	UsedBy    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
