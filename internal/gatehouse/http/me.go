package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// ProfileResponse is the minimal identity payload downstream applications
// read after redeeming a code.
type ProfileResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	GroupID          *string   `json:"group_id,omitempty"`
	SecondFactor     bool      `json:"second_factor_enabled"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// MeHandler serves GET /me with a bearer access token.
type MeHandler struct {
	Broker *service.BrokerService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		errInvalidToken.withDescription("bearer token required").WriteError(w)
		return
	}

	user, sess, err := h.Broker.UserForAccessToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAccessToken) {
			errInvalidToken.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ProfileResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		GroupID:          user.GroupID,
		SecondFactor:     user.SecondFactorEnabled(),
		SessionExpiresAt: sess.ExpiresAt,
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
