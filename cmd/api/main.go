// Package main is the entrypoint for the budgetdesk API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/penshort/budgetdesk/internal/app"
	"github.com/penshort/budgetdesk/internal/cache"
	"github.com/penshort/budgetdesk/internal/config"
	"github.com/penshort/budgetdesk/internal/handler"
	"github.com/penshort/budgetdesk/internal/metrics"
	"github.com/penshort/budgetdesk/internal/middleware"
	"github.com/penshort/budgetdesk/internal/server"
	"github.com/penshort/budgetdesk/internal/service"
	"github.com/penshort/budgetdesk/internal/session"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize store
	repo, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Redis is optional; without it sessions and rate limits stay in process.
	var (
		redisCache   *cache.Cache
		sessionStore session.Store        = session.NewMemoryStore(cfg.SessionTTL)
		limiter      middleware.IPLimiter = middleware.NewLocalLimiter(cfg.MaxRequestsPerMinute, cfg.RateLimitBurst)
	)
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			_ = repo.Close()
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", app.SanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", app.RedactURL(cfg.RedisURL)),
			)
			return err
		}
		sessionStore = cache.NewSessionStore(redisCache, cfg.SessionTTL)
		limiter = &middleware.RedisLimiter{
			Cache:     redisCache,
			PerMinute: cfg.MaxRequestsPerMinute,
			Burst:     cfg.RateLimitBurst,
		}
		logger.Info("connected to Redis", slog.String("redis_url", app.RedactURL(cfg.RedisURL)))
	}

	awsLoader := app.NewAWS(cfg)
	notifier, err := app.NewNotifier(ctx, cfg, awsLoader, logger)
	if err != nil {
		_ = repo.Close()
		return err
	}
	catalogs := app.LoadCatalogs(ctx, cfg, awsLoader, logger)

	// Initialize services
	recorder := metrics.NewInMemory()
	verificationService := service.NewVerificationService(repo, notifier, app.VerificationConfig(cfg),
		service.WithLogger(logger), service.WithRecorder(recorder))
	allocationService := service.NewAllocationService(repo, cfg.TotalBudget, cfg.MaxProjects,
		service.WithLogger(logger), service.WithRecorder(recorder))
	reportService := service.NewReportService(repo, catalogs.Projects)

	// Initialize handlers
	health := handler.NewHealthHandler(repo, nil)
	if redisCache != nil {
		health = handler.NewHealthHandler(repo, redisCache)
	}
	routes := handler.Routes{
		Root:         handler.New(logger),
		Health:       health,
		Metrics:      handler.NewMetricsHandler(recorder),
		Verification: handler.NewVerificationHandler(verificationService, logger, cfg.VerificationCooldown),
		Allocations:  handler.NewAllocationHandler(allocationService, reportService, catalogs.Projects, logger),
		Catalog:      handler.NewCatalogHandler(catalogs.Projects, catalogs.Websites, nil),
	}

	r := handler.NewRouter(routes, handler.RouterConfig{
		Logger:        logger,
		VerboseErrors: cfg.IsDevelopment(),
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORSOrigins: cfg.GetCORSAllowedOrigins(),
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
		},
		Session: middleware.SessionConfig{
			Store:    sessionStore,
			Logger:   logger,
			TTL:      cfg.SessionTTL,
			Secure:   cfg.IsProduction(),
			DemoUser: cfg.DemoUser(),
			EnsureUser: func(ctx context.Context, email string) error {
				_, err := repo.CreateUser(ctx, email, time.Now())
				return err
			},
		},
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("store", func(context.Context) error { return repo.Close() })
	if redisCache != nil {
		srv.OnShutdown("redis", func(context.Context) error { return redisCache.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"notify_channel", cfg.NotifyChannel,
		"projects", catalogs.Projects.Len(),
		"websites", catalogs.Websites.Len(),
	)

	return srv.Run(ctx)
}
