// Package main is the entry point for the intake session server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Pleeriyenterprise/intake/internal/backend"
	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/observability"
	"github.com/Pleeriyenterprise/intake/internal/transport"
	"github.com/Pleeriyenterprise/intake/internal/wizard"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "intake", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 4: Build backend clients, one breaker per service boundary.
	catalogClient := backend.NewCatalogClient(cfg.Services[config.ServiceCatalog], metrics)
	orderClient := backend.NewOrderClient(cfg.Services[config.ServiceOrders], metrics)
	checkoutClient := backend.NewCheckoutClient(cfg.Services[config.ServiceCheckout], cfg.Checkout, metrics)

	// Step 5: Build the session store and engine.
	store := wizard.NewMemorySessionStore()
	engine := wizard.NewEngine(store, catalogClient, orderClient, checkoutClient, cfg.Pricing, cfg.Session, logger)

	// Step 6: Build HTTP router.
	router := transport.NewRouter(transport.Dependencies{
		Config:  cfg,
		Engine:  engine,
		Logger:  logger,
		Metrics: metrics,
		Ready: observability.ReadinessChecks{
			SessionStore: store,
			Catalog:      catalogClient,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 7: Start the idle-session reaper.
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	go runSessionReaper(bgCtx, engine, metrics, cfg.Session.SweepInterval, logger)

	// Step 8: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Cancel background tasks.
	bgCancel()

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// runSessionReaper periodically abandons idle sessions past their TTL.
func runSessionReaper(ctx context.Context, engine *wizard.Engine, metrics *observability.Metrics, interval time.Duration, logger *zap.Logger) {
	if interval == 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped, err := engine.ReapExpired(ctx)
			if err != nil {
				logger.Error("session reaping failed", zap.Error(err))
				continue
			}
			if reaped > 0 {
				metrics.RecordSessionsReaped(reaped)
				logger.Info("sessions reaped", zap.Int("count", reaped))
			}
		}
	}
}
