package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
	"github.com/silverbridge/backend/internal/auth/revocation"
	"github.com/silverbridge/backend/internal/auth/service"
	"github.com/silverbridge/backend/internal/auth/store"
	"github.com/silverbridge/backend/pkg/httpx"
	"github.com/silverbridge/backend/pkg/jwtx"
	"github.com/silverbridge/backend/pkg/slogx"

	_ "github.com/silverbridge/backend/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-profile limits the routes are registered with.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultRateLimits returns the httpx profiles, including any environment
// overrides applied at startup.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
		Public:   httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	registry revocation.Registry

	Limits RateLimits
	Now    func() time.Time

	Credentials       *service.CredentialVerifier
	Issuer            *service.TokenIssuer
	Validator         *service.TokenValidator
	Refresh           *service.RefreshCoordinator
	UserService       *service.UserService
	PhoneVerification *service.PhoneVerificationService
	Social            *service.SocialAuthService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	registry revocation.Registry,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		registry:     registry,
		logger:       logger,
		Limits:       DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerSocial()
	r.registerSMS()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SilverBridge Authentication Service API
//	@version		0.1.0
//	@description	Phone number and password login, plus Kakao login, for the SilverBridge mobile apps.
//	@description
//	@description				Access tokens are short lived and never revoked. Refresh tokens are single use:
//	@description				every refresh returns a new pair and revokes the token that was presented.
//
//	@contact.name				SilverBridge Team
//	@contact.url				https://github.com/silverbridge/backend
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
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

func (r *Router) registerUsers() {
	// POST /login - strict, keyed by IP + phone number to slow password guessing
	r.Mux.Handle("POST /api/users/login",
		httpx.Chain(&LoginHandler{Credentials: r.Credentials, Issuer: r.Issuer, Now: r.Now},
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "phoneNumber"),
		),
	)

	r.Mux.Handle("POST /api/users/refresh",
		httpx.Chain(&RefreshHandler{Coordinator: r.Refresh, Now: r.Now},
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	r.Mux.Handle("POST /api/users/logout",
		httpx.Chain(&LogoutHandler{Coordinator: r.Refresh},
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	r.Mux.Handle("POST /api/users/join",
		httpx.Chain(&JoinHandler{UserService: r.UserService},
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)

	// Authenticated endpoint - lenient rate limit by user
	r.Mux.Handle("GET /api/users/me",
		httpx.Chain(&MeHandler{UserService: r.UserService},
			httpx.AuthnMiddleware(r.Validator),
			httpx.RequireAnyRole(domain.AllRoles()...),
			httpx.RateLimitByUser(r.Limits.Lenient),
		),
	)
}

func (r *Router) registerSocial() {
	h := &SocialHandler{Social: r.Social, Now: r.Now}

	r.Mux.Handle("POST /api/users/social/kakao",
		httpx.Chain(http.HandlerFunc(h.HandleKakaoLogin),
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)
	// The temp token is checked by the handler, not the gate, which only
	// admits access tokens.
	r.Mux.Handle("POST /api/users/social/register-final",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterFinal),
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)
}

func (r *Router) registerSMS() {
	h := &SMSHandler{Phones: r.PhoneVerification}

	// Both keyed by IP + phone number: sending costs money, verifying is guessable.
	r.Mux.Handle("POST /api/sms/send",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "phoneNumber"),
		),
	)
	r.Mux.Handle("POST /api/sms/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "phoneNumber"),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /api/health",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.registry),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys.KeySet),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
}
