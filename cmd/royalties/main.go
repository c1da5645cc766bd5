package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"royalties/internal/backend"
	"royalties/internal/cache"
	"royalties/internal/cli"
	apphttp "royalties/internal/http"
	applog "royalties/internal/log"
	"royalties/internal/notify"
	"royalties/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	appLogger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
		Handler:   logger.Handler(),
	})

	// Background loops share one context; the signal handler below cancels
	// it through the server shutdown.
	runCtx, stopRunners := context.WithCancel(context.Background())
	defer stopRunners()

	hub := notify.NewHub(cfg.InstanceID)
	go hub.Start(runCtx)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger, hub).CreateBackend(runCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	store := result.Backend
	review := services.NewReviewService(store, hub)
	performance := services.NewPerformanceService(store, cfg.CacheSize, cfg.CacheTTL)
	reports := services.NewReportService(store, hub)

	var g errgroup.Group
	for _, run := range result.Runners {
		g.Go(func() error {
			if err := run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Backend runner stopped", "error", err)
				return err
			}
			return nil
		})
	}

	updates, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	g.Go(func() error {
		performance.Watch(runCtx, updates)
		return nil
	})

	caches := cache.NewManager()
	caches.Register(performance.Cache())
	g.Go(func() error {
		caches.Run(runCtx, cfg.CacheCleanupInterval)
		return nil
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Store:              store,
		Review:             review,
		Performance:        performance,
		Reports:            reports,
		Hub:                hub,
		Logger:             appLogger,
		PageSize:           cfg.PageSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	// Configure server timeouts and limits. Websockets manage their own
	// deadlines, so there is no write timeout.
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		stopRunners()
	})

	logger.Info("Starting royalties server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"instance", cfg.InstanceID,
		"live_updates", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if err := g.Wait(); err != nil {
		logger.Warn("Background work ended with error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
