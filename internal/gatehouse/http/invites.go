package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// InviteResponse is returned to the minting admin; Link is included so it
// can be relayed out of band when mail delivery is not configured.
type InviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

type InviteHandler struct {
	Invites *service.InviteService
}

// HandleMint serves POST /admin/invites (admin session).
func (h *InviteHandler) HandleMint(w http.ResponseWriter, r *http.Request) {
	admin, ok := UserFromContext(r.Context())
	if !ok {
		errUnauthorized.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	email := r.Form.Get("email")
	if email == "" {
		errMissingParameter.withDescription("email is required").WriteError(w)
		return
	}

	inv, link, err := h.Invites.Create(r.Context(), admin.ID, email)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			errConflict.withDescription("email already registered").WriteError(w)
			return
		}
		errMissingParameter.withDescription("invalid email").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, InviteResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Link:      link,
		ExpiresAt: inv.ExpiresAt,
	})
}

// HandleRedeem serves POST /invites/redeem (public, rate limited).
func (h *InviteHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	token := r.Form.Get("token")
	password := r.Form.Get("password")
	if token == "" || password == "" {
		errMissingParameter.withDescription("token and password are required").WriteError(w)
		return
	}

	user, err := h.Invites.Redeem(r.Context(), token, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInvite):
			errMissingParameter.withDescription("invalid or expired invite").WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			errMissingParameter.withDescription("password too short").WriteError(w)
		case errors.Is(err, service.ErrEmailTaken):
			errConflict.withDescription("email already registered").WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
	})
}
