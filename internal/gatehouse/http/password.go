package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
)

// PasswordHandler serves POST /password for the signed-in user.
type PasswordHandler struct {
	Users *service.UserService
}

func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		errUnauthorized.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	current := r.Form.Get("current_password")
	next := r.Form.Get("new_password")
	if current == "" || next == "" {
		errMissingParameter.withDescription("current_password and new_password are required").WriteError(w)
		return
	}

	err := h.Users.ChangePassword(r.Context(), user.ID, current, next)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			errInvalidCredentials.withDescription("current password rejected").WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			errMissingParameter.withDescription("new password too short").WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
