package domain

import "time"

// AppSession is a downstream application's access grant: a bearer access
// token plus a rotating refresh token, both stored as fingerprints. Refresh
// rotates both values in one conditional update keyed on the current refresh
// fingerprint, so no two refresh tokens for one session are ever
// simultaneously valid.
type AppSession struct {
	ID               string
	UserID           string
	AppID            string
	TokenHash        string
	RefreshTokenHash string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s *AppSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TokenPair is what the token and refresh endpoints return.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}
