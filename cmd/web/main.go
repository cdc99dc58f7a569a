package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

const version = "1.0.0"

type application struct {
	handler http.Handler
	watcher *dataset.Watcher
}

// setup loads the dataset and builds the full handler stack. The first load
// happens here so a bad dataset stops the process before it listens.
func setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	source, err := dataset.OpenSource(ctx, cfg.Dataset.URI, cfg.Dataset.S3)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	var cache *dataset.Cache
	if cfg.Dataset.CacheEnabled {
		cache = dataset.NewCache(cfg.Dataset.CacheDir)
	}

	store := dataset.NewStore(dataset.NewLoader(source, cache, logger), logger)
	if metrics != nil {
		store.SetObserver(metrics)
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Dataset.LoadTimeout)
	defer cancel()
	if _, err := store.Get(loadCtx); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	app := &application{}
	if cfg.Dataset.ReloadInterval > 0 {
		app.watcher = dataset.NewWatcher(source, store, cfg.Dataset.ReloadInterval, cfg.Dataset.LoadTimeout, logger)
	}

	analytics := services.NewAnalytics(store, logger, metrics)
	srv := server.NewServer(analytics, logger, metrics)

	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
	}
	if cfg.Security.EnableRateLimit {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger))
	}
	if metrics != nil {
		chain = append(chain, middleware.Metrics(metrics))
	}

	app.handler = middleware.Chain(chain...)(srv)
	return app, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"dataset", cfg.Dataset.URI,
		"addr", cfg.Address(),
	)

	app, err := setup(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      app.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	if app.watcher != nil {
		if err := app.watcher.Start(); err != nil {
			logger.Error("failed to start dataset watcher", "error", err)
			os.Exit(1)
		}
		gracefulServer.RegisterShutdownHook("dataset watcher", func(ctx context.Context) error {
			app.watcher.Stop()
			return nil
		})
	}

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
