package api

import (
	"context"
	"net/http"

	"github.com/edufam/edufam-backend/internal/api/handlers"
	"github.com/edufam/edufam-backend/internal/api/middleware"
	"github.com/edufam/edufam-backend/internal/config"
	"github.com/edufam/edufam-backend/internal/domain"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/ratelimit"
	"github.com/edufam/edufam-backend/internal/repository/postgres"
	"github.com/edufam/edufam-backend/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Limiters holds one limiter per rate limited auth endpoint.
type Limiters struct {
	Login   ratelimit.Limiter
	Refresh ratelimit.Limiter
	Logout  ratelimit.Limiter
}

// NewLimiters builds Redis backed limiters when client is set and in-memory
// ones otherwise.
func NewLimiters(cfg config.RateLimit, client *redis.Client) Limiters {
	build := func(name string, max int) ratelimit.Limiter {
		policy := ratelimit.Policy{Name: name, Max: max, Window: cfg.Window}
		if client != nil {
			return ratelimit.NewRedis(client, policy)
		}
		return ratelimit.NewMemory(policy)
	}
	return Limiters{
		Login:   build("login", cfg.LoginMax),
		Refresh: build("refresh", cfg.RefreshMax),
		Logout:  build("logout", cfg.LogoutMax),
	}
}

type Deps struct {
	Services *service.Services
	Config   *config.Config
	Limiters Limiters
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	DB       *gorm.DB
	Logger   zerolog.Logger
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Validated at startup; an unparsable list trusts nobody.
	trusted, _ := deps.Config.TrustedProxyPrefixes()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RealIP(trusted))
	r.Use(chiMiddleware.StripSlashes)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recover)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(deps.Config.AllowedOrigins))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	var ping handlers.Pinger
	if deps.DB != nil {
		ping = func(ctx context.Context) error { return postgres.Ping(ctx, deps.DB) }
	}

	authHandler := handlers.NewAuthHandler(deps.Services.Auth)
	authenticate := middleware.Authenticate(deps.Services.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		r.Get("/health", handlers.Health(ping))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(deps.Limiters.Login, deps.Metrics)).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(deps.Limiters.Refresh, deps.Metrics))
				r.Post("/refresh", authHandler.Refresh)
				r.Post("/refresh-token", authHandler.Refresh)
			})

			r.With(middleware.RateLimit(deps.Limiters.Logout, deps.Metrics)).Post("/logout", authHandler.Logout)

			r.With(authenticate).Get("/me", authHandler.Me)
		})

		// Segment roots; business routes are not implemented yet.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.With(middleware.RequireUserType(domain.UserTypeSchool)).Get("/school", handlers.Placeholder("school"))
			r.With(middleware.RequireUserType(domain.UserTypeSchool)).Get("/mobile", handlers.Placeholder("mobile"))
			r.With(
				middleware.RequireUserType(domain.UserTypeAdmin),
				middleware.RequireRole(domain.AdminRoles...),
			).Get("/admin", handlers.Placeholder("admin"))
		})
	})

	return r
}
