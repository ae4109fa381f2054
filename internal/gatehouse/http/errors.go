package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

type apiError struct {
	status      int
	code        string
	description string
}

func (e apiError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.status, ErrorResponse{Error: e.code, Description: e.description})
}

// withDescription returns a copy carrying a request-specific description.
func (e apiError) withDescription(desc string) apiError {
	e.description = desc
	return e
}

var (
	errInvalidFormBody    = apiError{http.StatusBadRequest, "invalid_request", "malformed form body"}
	errMissingParameter   = apiError{http.StatusBadRequest, "invalid_request", "missing required parameter"}
	errInvalidCredentials = apiError{http.StatusUnauthorized, "invalid_credentials", "invalid email or password"}
	errInvalidCode        = apiError{http.StatusUnauthorized, "invalid_code", "verification code rejected"}
	errPreAuthRequired    = apiError{http.StatusUnauthorized, "pre_auth_required", "complete the password step first"}
	errUnauthorized       = apiError{http.StatusUnauthorized, "unauthorized", "sign in required"}
	errForbidden          = apiError{http.StatusForbidden, "forbidden", "admin access required"}
	errAccessDenied       = apiError{http.StatusForbidden, "access_denied", ""}
	errAccessRevoked      = apiError{http.StatusForbidden, "access_revoked", "permission withdrawn, sign in again"}
	errInvalidGrant       = apiError{http.StatusBadRequest, "invalid_grant", "invalid or expired code"}
	errInvalidRefresh     = apiError{http.StatusBadRequest, "invalid_grant", "invalid refresh token"}
	errInvalidToken       = apiError{http.StatusUnauthorized, "invalid_token", "invalid or expired access token"}
	errNotFound           = apiError{http.StatusNotFound, "not_found", "no such resource"}
	errConflict           = apiError{http.StatusConflict, "conflict", "resource already exists"}
	errInternal           = apiError{http.StatusInternalServerError, "server_error", "internal error"}
)
