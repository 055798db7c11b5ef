package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/penshort/budgetdesk/internal/middleware"
)

// Routes groups the handlers mounted by NewRouter.
type Routes struct {
	Root         *Handler
	Health       *HealthHandler
	Metrics      *MetricsHandler
	Verification *VerificationHandler
	Allocations  *AllocationHandler
	Catalog      *CatalogHandler
}

// RouterConfig configures the middleware chain.
type RouterConfig struct {
	Logger        *slog.Logger
	VerboseErrors bool
	Security      middleware.SecurityConfig
	CORSOrigins   []string
	RateLimit     middleware.RateLimitConfig
	Session       middleware.SessionConfig
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(routes Routes, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.VerboseErrors))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Probes and metrics carry no session.
	r.Get("/healthz", routes.Health.Healthz)
	r.Get("/readyz", routes.Health.Readyz)
	r.Get("/metrics", routes.Metrics.Metrics)
	r.Get("/", routes.Root.Hello)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(cfg.RateLimit))
		r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
		r.Use(middleware.Session(cfg.Session))

		r.Post("/verification", routes.Verification.Start)
		r.Get("/verify", routes.Verification.Verify)
		r.Get("/session", routes.Verification.Session)
		r.Post("/logout", routes.Verification.Logout)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", routes.Catalog.Projects)
			r.Get("/facets", routes.Catalog.Facets)
		})

		r.Route("/websites", func(r chi.Router) {
			r.Get("/", routes.Catalog.Websites)
			r.Get("/random", routes.Catalog.RandomWebsite)
			r.Get("/detail", routes.Catalog.WebsiteDetail)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Use(middleware.RequireVerified)
			r.Get("/", routes.Allocations.List)
			r.Get("/summary", routes.Allocations.Summary)
			r.Get("/categories", routes.Allocations.Categories)
			r.Get("/export", routes.Allocations.Export)
			r.Post("/{projectID}/validate", routes.Allocations.Validate)
			r.Put("/{projectID}", routes.Allocations.Put)
		})

		r.Get("/analysis", routes.Root.ComingSoon)
		r.Get("/allocation-rules", routes.Root.ComingSoon)
	})

	// 404 and 405 handlers
	r.NotFound(routes.Root.NotFound)
	r.MethodNotAllowed(routes.Root.MethodNotAllowed)

	return r
}
