package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"

	_ "order-insights/docs"
	"order-insights/internal/config"
	"order-insights/internal/middleware"
	"order-insights/internal/observability"
	"order-insights/internal/server"
	"order-insights/internal/services"
	"order-insights/internal/ui/templates"
)

const (
	redisPingTimeout = 3 * time.Second
	cacheMaxAge      = "public, max-age=300"
)

// app is the assembled HTTP stack plus what must be released on shutdown.
type app struct {
	handler       http.Handler
	analytics     *services.Analytics
	rateLimiter   *middleware.RateLimiter
	shutdownHooks []func(ctx context.Context) error
}

func dashboardHandler() http.Handler {
	page := templ.Handler(templates.Dashboard())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheMaxAge)
		page.ServeHTTP(w, r)
	})
}

// newResultCache picks the Redis cache when configured and reachable and the
// in-memory cache otherwise. The returned cache is nil when caching is off.
func newResultCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (services.ResultCache, func(context.Context) error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		logger.Info("result cache disabled")
		return nil, noop
	}

	if cfg.RedisURL != "" {
		rc, err := services.NewRedisCache(cfg.RedisURL, cfg.TTL)
		if err != nil {
			logger.Warn("invalid redis url, using memory cache", "error", err)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
			err = rc.Ping(pingCtx)
			cancel()
			if err == nil {
				logger.Info("result cache ready", "backend", rc.Name(), "ttl", cfg.TTL)
				return rc, func(context.Context) error { return rc.Close() }
			}
			logger.Warn("redis unreachable, using memory cache", "error", err)
			rc.Close()
		}
	}

	mc := services.NewMemoryCache(cfg.TTL, cfg.MaxEntries)
	logger.Info("result cache ready", "backend", mc.Name(), "ttl", cfg.TTL, "max_entries", cfg.MaxEntries)
	return mc, noop
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) *app {
	cache, closeCache := newResultCache(ctx, cfg.Cache, logger)

	analytics := services.NewAnalytics(services.Options{
		Workers:   cfg.Analysis.Workers,
		BatchSize: cfg.Analysis.BatchSize,
		Cache:     cache,
		Logger:    logger,
	})

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(),
	}

	srv := server.NewServer(analytics, logger, templateHandlers, cfg.Analysis.MaxUploadBytes)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return &app{
		handler:     middlewareChain(srv),
		analytics:   analytics,
		rateLimiter: rateLimiter,
		shutdownHooks: []func(ctx context.Context) error{
			func(context.Context) error {
				rateLimiter.Stop()
				return nil
			},
			closeCache,
		},
	}
}

// @title Order Insights API
// @version 1.0
// @description Upload an order CSV and get revenue and best-seller analytics.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"max_upload_bytes", cfg.Analysis.MaxUploadBytes,
		"workers", cfg.Analysis.Workers,
	)

	a := newApp(context.Background(), cfg, logger)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	for _, hook := range a.shutdownHooks {
		gracefulServer.RegisterShutdownHook(hook)
	}
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", a.analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
