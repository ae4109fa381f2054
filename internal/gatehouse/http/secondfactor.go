package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// EnrollmentResponse hands the candidate secret back for QR rendering and
// manual entry. The token must come back through the activate call.
type EnrollmentResponse struct {
	Secret          string `json:"secret"`
	URL             string `json:"url"`
	EnrollmentToken string `json:"enrollment_token"`
}

// SecondFactorHandler manages TOTP enrollment for the signed-in user.
type SecondFactorHandler struct {
	SecondFactor *service.SecondFactorService
}

func (h *SecondFactorHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		errUnauthorized.WriteError(w)
		return
	}

	enrollment, err := h.SecondFactor.BeginEnrollment(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrSecondFactorEnabled) {
			errConflict.withDescription("second factor already enabled").WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, EnrollmentResponse{
		Secret:          enrollment.Secret,
		URL:             enrollment.URL,
		EnrollmentToken: enrollment.Token,
	})
}

func (h *SecondFactorHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		errUnauthorized.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	token := r.Form.Get("enrollment_token")
	code := r.Form.Get("code")
	if token == "" || code == "" {
		errMissingParameter.withDescription("enrollment_token and code are required").WriteError(w)
		return
	}

	err := h.SecondFactor.Activate(r.Context(), user.ID, token, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEnrollment):
			errMissingParameter.withDescription("invalid or expired enrollment token").WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode):
			errInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrSecondFactorEnabled):
			errConflict.withDescription("second factor already enabled").WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SecondFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		errUnauthorized.WriteError(w)
		return
	}

	if err := h.SecondFactor.Disable(r.Context(), user.ID); err != nil {
		if errors.Is(err, service.ErrSecondFactorDisabled) {
			errConflict.withDescription("second factor not enabled").WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
