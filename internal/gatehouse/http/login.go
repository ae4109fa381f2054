package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
)

// LoginHandler serves the portal sign-in flow: password step, second-factor
// step and logout. Success responses are 303 redirects with cookies; error
// responses are JSON.
type LoginHandler struct {
	Sessions *service.SessionService
	Secure   bool
}

func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}
	email := r.Form.Get("email")
	password := r.Form.Get("password")
	redirectTo := safeRedirect(r.Form.Get("redirect_to"))
	if email == "" || password == "" {
		errMissingParameter.withDescription("email and password are required").WriteError(w)
		return
	}

	res, err := h.Sessions.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			errInvalidCredentials.WriteError(w)
			return
		}
		errInternal.WriteError(w)
		return
	}

	if res.SecondFactorRequired {
		setPreAuthCookie(w, res.PreAuthToken, h.Secure)
		verify := "/login/verify"
		if redirectTo != "/" {
			verify += "?redirect_to=" + url.QueryEscape(redirectTo)
		}
		http.Redirect(w, r, verify, http.StatusSeeOther)
		return
	}

	setSessionCookie(w, res.SessionToken, res.ExpiresAt, h.Secure)
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

func (h *LoginHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	preAuth := cookieValue(r, preAuthCookieName)
	if preAuth == "" {
		errPreAuthRequired.WriteError(w)
		return
	}
	code := r.Form.Get("code")
	if code == "" {
		errMissingParameter.withDescription("code is required").WriteError(w)
		return
	}

	res, err := h.Sessions.CompleteSecondFactor(r.Context(), preAuth, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPreAuth):
			clearPreAuthCookie(w, h.Secure)
			errPreAuthRequired.WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode):
			errInvalidCode.WriteError(w)
		default:
			errInternal.WriteError(w)
		}
		return
	}

	clearPreAuthCookie(w, h.Secure)
	setSessionCookie(w, res.SessionToken, res.ExpiresAt, h.Secure)
	http.Redirect(w, r, safeRedirect(r.Form.Get("redirect_to")), http.StatusSeeOther)
}

func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), cookieValue(r, sessionCookieName)); err != nil {
		errInternal.WriteError(w)
		return
	}
	clearSessionCookie(w, h.Secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeRedirect confines post-login redirects to this host: only rooted paths
// survive, anything else falls back to /.
func safeRedirect(target string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	return "/"
}
