package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// TokenResponse is the body of a successful code redemption or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func tokenResponse(pair domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	}
}

// TokenHandler serves the two back-channel endpoints downstream applications
// call: POST /token and POST /refresh. Both accept form bodies.
type TokenHandler struct {
	Broker *service.BrokerService
}

func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		errInvalidFormBody.withDescription("expected application/x-www-form-urlencoded").WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	code := r.Form.Get("code")
	if code == "" {
		errMissingParameter.withDescription("code is required").WriteError(w)
		return
	}

	pair, err := h.Broker.RedeemCode(r.Context(), code)
	if err != nil {
		var denied *service.AccessDeniedError
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			errInvalidGrant.WriteError(w)
		case errors.As(err, &denied):
			errAccessDenied.withDescription(denied.Reason).WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	refresh := r.Form.Get("refresh_token")
	if refresh == "" {
		errMissingParameter.withDescription("refresh_token is required").WriteError(w)
		return
	}

	pair, err := h.Broker.Refresh(r.Context(), refresh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			errInvalidRefresh.WriteError(w)
		case errors.Is(err, service.ErrAccessRevoked):
			errAccessRevoked.WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}
