package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/internal/portal/store"
	"github.com/Raymond-engr/DRID-Research/internal/portal/uploads"
	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/jwtx"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"

	_ "github.com/Raymond-engr/DRID-Research/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// CookieSecure marks the refresh cookie Secure. Only disable for plain
	// http development setups.
	CookieSecure bool
	// AllowedOrigins are the browser origins admitted for credentialed CORS.
	AllowedOrigins []string

	// Uploads stores profile pictures. UploadsHandler, when set, serves
	// them under /uploads/.
	Uploads        uploads.Store
	UploadsHandler http.Handler

	Credentials *service.CredentialService
	Invites     *service.InviteService
	Accounts    *service.AccountService
	MFA         *service.MFAService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		CookieSecure: true,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	if len(r.AllowedOrigins) > 0 {
		r.middlewares = append(r.middlewares, httpx.CORS(r.AllowedOrigins...))
	}

	r.registerAuth()
	r.registerAdmin()
	r.registerMFA()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Research Portal API
//	@version					0.1.0
//	@description				Session and invitation API for the research portal.
//	@description
//	@description				Access tokens are EdDSA-signed JWTs sent as bearer tokens. The refresh credential travels only in an HttpOnly cookie.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Login is limited by IP. Per-account lockout lives in the service.
	r.Mux.Handle("POST /auth/admin/login",
		httpx.Chain(&LoginHandler{router: r, Role: domain.RoleAdmin},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/researcher/login",
		httpx.Chain(&LoginHandler{router: r, Role: domain.RoleResearcher},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /auth/refresh-token",
		httpx.Chain(http.HandlerFunc(r.handleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /auth/verify-token",
		httpx.Chain(http.HandlerFunc(r.handleVerify),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(r.handleLogout),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /auth/complete-profile/{token}",
		httpx.Chain(http.HandlerFunc(r.handleCompleteProfile),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) admin(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole(domain.RoleAdmin.String()),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAdmin() {
	r.Mux.Handle("POST /admin/researchers/invite", r.admin(r.handleInvite, httpx.ModerateLimit))
	r.Mux.Handle("POST /admin/researchers/add", r.admin(r.handleAddResearcher, httpx.ModerateLimit))
	r.Mux.Handle("GET /admin/researchers", r.admin(r.handleListResearchers, httpx.LenientLimit))

	r.Mux.Handle("GET /admin/invitations", r.admin(r.handleListInvitations, httpx.LenientLimit))
	r.Mux.Handle("POST /admin/invitations/{id}/resend", r.admin(r.handleResendInvitation, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /admin/invitations/{id}", r.admin(r.handleRevokeInvitation, httpx.ModerateLimit))
}

func (r *Router) registerMFA() {
	r.Mux.Handle("POST /auth/admin/mfa/enroll", r.admin(r.handleMFAEnroll, httpx.StrictLimit))
	r.Mux.Handle("POST /auth/admin/mfa/verify", r.admin(r.handleMFAVerify, httpx.StrictLimit))
	r.Mux.Handle("DELETE /auth/admin/mfa", r.admin(r.handleMFADisable, httpx.StrictLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))

	if r.UploadsHandler != nil {
		r.Mux.Handle("GET /uploads/", r.UploadsHandler)
	}
}
