package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
)

// LaunchHandler serves GET /launch?to=URL: the signed-in browser is bounced
// to the downstream application with a fresh single-use code attached.
type LaunchHandler struct {
	Broker *service.BrokerService
}

func (h *LaunchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		errUnauthorized.WriteError(w)
		return
	}

	target := r.URL.Query().Get("to")
	if target == "" {
		errMissingParameter.withDescription("to is required").WriteError(w)
		return
	}

	redirect, err := h.Broker.IssueCode(r.Context(), user, target)
	if err != nil {
		var denied *service.AccessDeniedError
		switch {
		case errors.Is(err, service.ErrInvalidTarget):
			errMissingParameter.withDescription("to must be an absolute URL").WriteError(w)
		case errors.Is(err, service.ErrNoMatchingApp):
			errNotFound.withDescription("no application matches that address").WriteError(w)
		case errors.As(err, &denied):
			errAccessDenied.withDescription(denied.Reason).WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	http.Redirect(w, r, redirect, http.StatusSeeOther)
}
