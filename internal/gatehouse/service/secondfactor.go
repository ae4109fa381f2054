package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod = 30

	// totpSkewSteps accepts codes up to six 30-second steps either side of
	// now, tolerating about three minutes of client clock drift.
	totpSkewSteps = 6

	defaultEnrollmentTTL = 10 * time.Minute
)

var (
	ErrInvalidTOTPCode      = errors.New("invalid verification code")
	ErrSecondFactorEnabled  = errors.New("second factor already enabled")
	ErrSecondFactorDisabled = errors.New("second factor not enabled")
	ErrInvalidEnrollment    = errors.New("invalid or expired enrollment token")
)

type SecondFactorService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Audit  *AuditService
	Issuer string

	// EnrollmentTTL bounds how long a generated secret stays activatable.
	// Zero means ten minutes.
	EnrollmentTTL time.Duration
}

// BeginEnrollment generates a fresh TOTP secret for the user. The secret
// travels back to the client inside a signed enrollment token and is only
// written to the user record when Activate verifies a matching code, so an
// abandoned enrollment leaves no half-enabled state behind.
func (s *SecondFactorService) BeginEnrollment(ctx context.Context, userID string) (domain.TOTPEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.SecondFactorEnabled() {
		return domain.TOTPEnrollment{}, ErrSecondFactorEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	ttl := s.EnrollmentTTL
	if ttl <= 0 {
		ttl = defaultEnrollmentTTL
	}
	token, err := s.Signer.Sign(userID, jwtx.PurposeEnrollment, key.Secret(), ttl, time.Now())
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("sign enrollment token: %w", err)
	}

	return domain.TOTPEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		Token:  token,
	}, nil
}

// Activate turns the second factor on once the user proves possession of the
// enrolled secret by submitting a current code.
func (s *SecondFactorService) Activate(ctx context.Context, userID, enrollmentToken, code string) error {
	claims, err := s.Signer.Verify(enrollmentToken, jwtx.PurposeEnrollment)
	if err != nil {
		return ErrInvalidEnrollment
	}
	if claims.Subject != userID || claims.Secret == "" {
		return ErrInvalidEnrollment
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.SecondFactorEnabled() {
		return ErrSecondFactorEnabled
	}

	if !validTOTP(code, claims.Secret, time.Now()) {
		return ErrInvalidTOTPCode
	}

	secret := claims.Secret
	if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, &secret); err != nil {
		return fmt.Errorf("store TOTP secret: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditSecondFactorEnabled, domain.AuditDetails{
		Key:    "audit.second_factor.enabled",
		Params: map[string]string{"user_id": userID},
	})
	return nil
}

// Disable removes the second factor. The caller has already proven they hold
// the session; losing a phone must not lock the account forever, so no code
// is demanded here.
func (s *SecondFactorService) Disable(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !user.SecondFactorEnabled() {
		return ErrSecondFactorDisabled
	}

	if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear TOTP secret: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditSecondFactorRemoved, domain.AuditDetails{
		Key:    "audit.second_factor.removed",
		Params: map[string]string{"user_id": userID},
	})
	return nil
}

// VerifyCode checks a code against the user's active secret. False when the
// second factor is not enabled.
func (s *SecondFactorService) VerifyCode(user domain.User, code string, now time.Time) bool {
	if !user.SecondFactorEnabled() {
		return false
	}
	return validTOTP(code, *user.TOTPSecret, now)
}

// CurrentCode computes the code a correctly enrolled authenticator would
// show at the instant t. Exists for tests and enrollment previews.
func CurrentCode(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkewSteps,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

func validTOTP(code, secret string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkewSteps,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
