package domain

import "time"

// User roles. Admin capability is an attribute of the user record itself, not
// a separate identity table.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string  // argon2id encoded
	Role         string  // RoleUser or RoleAdmin
	GroupID      *string // at most one group membership (nullable)
	TOTPSecret   *string // base32 secret; nil while the second factor is disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SecondFactorEnabled reports whether a TOTP secret is enrolled and active.
func (u *User) SecondFactorEnabled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
