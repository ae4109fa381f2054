// Package jwtx signs and verifies the short-lived claims that bridge two
// request legs of the sign-on flow: the pre-second-factor token issued after a
// successful password check, and the TOTP enrollment token carrying the
// candidate secret. Both are consumed by the service that minted them, so a
// single symmetric HS256 key is sufficient and nothing is ever persisted.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose values for the custom "purpose" claim. Verification is purpose-bound
// so a leaked enrollment token can never stand in for a pre-auth token.
const (
	PurposePreAuth    = "pre_second_factor"
	PurposeEnrollment = "totp_enrollment"
)

var (
	ErrExpired = errors.New("jwtx: token expired")
	ErrInvalid = errors.New("jwtx: token invalid")
)

// Claims are the bridging-token claims. Secret is only populated for
// enrollment tokens and holds the candidate TOTP secret until the user proves
// possession of it.
type Claims struct {
	jwt.RegisteredClaims

	Purpose string `json:"purpose"`
	Secret  string `json:"secret,omitempty"`
}

// Signer issues and verifies HS256 tokens with a single symmetric key.
type Signer struct {
	key []byte
}

func NewSigner(key []byte) *Signer {
	return &Signer{key: key}
}

// Sign produces a token binding subject to purpose for ttl. The secret
// argument is carried verbatim in the claim set and should be empty for
// anything other than enrollment tokens.
func (s *Signer) Sign(subject, purpose, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
		Secret:  secret,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify parses the token, checks the signature and expiry, and enforces the
// expected purpose. Expired tokens report ErrExpired; every other failure
// collapses to ErrInvalid.
func (s *Signer) Verify(token, purpose string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalid
	}

	return &claims, nil
}
