package domain

import "time"

// Session is a browser-level credential. ID is the SHA-256 fingerprint of the
// opaque cookie token; the token itself is never stored. Multiple concurrent
// sessions per user are allowed.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
