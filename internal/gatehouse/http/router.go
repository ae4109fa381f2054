package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/service"
	"github.com/aussiebroadwan/gatehouse/internal/gatehouse/store"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion  string
	secureCookies bool
	startTime     time.Time
	logger        *slog.Logger
	store         store.Store

	Sessions     *service.SessionService
	SecondFactor *service.SecondFactorService
	Broker       *service.BrokerService
	Permissions  *service.PermissionService
	Apps         *service.AppService
	Groups       *service.GroupService
	Users        *service.UserService
	Invites      *service.InviteService
	Settings     *service.SettingsService
	Audit        *service.AuditService
}

func NewRouter(buildVersion string, secureCookies bool, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		secureCookies: secureCookies,
		startTime:     time.Now(),
		logger:        logger,
		store:         st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerLaunch()
	r.registerTokens()
	r.registerAccount()
	r.registerInvites()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &LoginHandler{Sessions: r.Sessions, Secure: r.secureCookies}

	// Password step keyed by IP plus submitted email to slow brute force.
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email"),
		),
	)

	// Second-factor codes are six digits; strict limit matters here.
	r.Mux.Handle("POST /login/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerLaunch() {
	h := &LaunchHandler{Broker: r.Broker}

	r.Mux.Handle("GET /launch",
		httpx.Chain(h,
			RequireSession(r.Sessions),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTokens() {
	h := &TokenHandler{Broker: r.Broker}

	r.Mux.Handle("POST /token",
		httpx.Chain(http.HandlerFunc(h.HandleToken),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	me := &MeHandler{Broker: r.Broker}
	r.Mux.Handle("GET /me",
		httpx.Chain(me,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccount() {
	sf := &SecondFactorHandler{SecondFactor: r.SecondFactor}

	r.Mux.Handle("POST /2fa/enroll",
		httpx.Chain(http.HandlerFunc(sf.HandleEnroll),
			RequireSession(r.Sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /2fa/activate",
		httpx.Chain(http.HandlerFunc(sf.HandleActivate),
			RequireSession(r.Sessions),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("DELETE /2fa",
		httpx.Chain(http.HandlerFunc(sf.HandleDisable),
			RequireSession(r.Sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	pw := &PasswordHandler{Users: r.Users}
	r.Mux.Handle("POST /password",
		httpx.Chain(pw,
			RequireSession(r.Sessions),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerInvites() {
	h := &InviteHandler{Invites: r.Invites}

	r.Mux.Handle("POST /admin/invites", r.admin(http.HandlerFunc(h.HandleMint)))

	// Public signup endpoint; strict by IP.
	r.Mux.Handle("POST /invites/redeem",
		httpx.Chain(http.HandlerFunc(h.HandleRedeem),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		Permissions: r.Permissions,
		Apps:        r.Apps,
		Groups:      r.Groups,
		Users:       r.Users,
		Settings:    r.Settings,
		Audit:       r.Audit,
	}

	r.Mux.Handle("POST /admin/permissions", r.admin(http.HandlerFunc(h.HandleGrantPermission)))
	r.Mux.Handle("DELETE /admin/permissions/{id}", r.admin(http.HandlerFunc(h.HandleRevokePermission)))

	r.Mux.Handle("POST /admin/apps", r.admin(http.HandlerFunc(h.HandleRegisterApp)))
	r.Mux.Handle("GET /admin/apps", r.admin(http.HandlerFunc(h.HandleListApps)))
	r.Mux.Handle("POST /admin/apps/{id}/status", r.admin(http.HandlerFunc(h.HandleSetAppStatus)))
	r.Mux.Handle("DELETE /admin/apps/{id}", r.admin(http.HandlerFunc(h.HandleDeleteApp)))

	r.Mux.Handle("POST /admin/groups", r.admin(http.HandlerFunc(h.HandleCreateGroup)))
	r.Mux.Handle("GET /admin/groups", r.admin(http.HandlerFunc(h.HandleListGroups)))
	r.Mux.Handle("DELETE /admin/groups/{id}", r.admin(http.HandlerFunc(h.HandleDeleteGroup)))

	r.Mux.Handle("POST /admin/users/{id}/group", r.admin(http.HandlerFunc(h.HandleAssignUserGroup)))
	r.Mux.Handle("DELETE /admin/users/{id}", r.admin(http.HandlerFunc(h.HandleDeleteUser)))

	r.Mux.Handle("POST /admin/settings", r.admin(http.HandlerFunc(h.HandleUpdateSettings)))
	r.Mux.Handle("GET /admin/audit", r.admin(http.HandlerFunc(h.HandleListAudit)))
}

// admin wraps a handler with session auth, the admin check and a per-user
// moderate rate limit.
func (r *Router) admin(h http.Handler) http.Handler {
	return httpx.Chain(h,
		RequireSession(r.Sessions),
		RequireAdmin(),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /site",
		httpx.Chain(SiteHandler(r.Settings),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
