package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/domain"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
)

type userContextKey struct{}

// UserFromContext returns the session user placed by RequireSession.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(domain.User)
	return u, ok
}

// RequireSession resolves the session cookie to a user before the handler
// runs. The user lands in the request context, and the user id is also
// exposed to the per-user rate limiter.
func RequireSession(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _, err := sessions.Resolve(r.Context(), cookieValue(r, sessionCookieName))
			if err != nil {
				errUnauthorized.WriteError(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			ctx = httpx.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must sit inside RequireSession.
func RequireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !user.IsAdmin() {
				errForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
