// Package main implements the retune scheduler daemon entry point.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radio-control/retune/internal/adapter/fake"
	"github.com/radio-control/retune/internal/api"
	"github.com/radio-control/retune/internal/audit"
	"github.com/radio-control/retune/internal/auth"
	"github.com/radio-control/retune/internal/config"
	"github.com/radio-control/retune/internal/logging"
	"github.com/radio-control/retune/internal/observability"
	"github.com/radio-control/retune/internal/retune"
	"github.com/radio-control/retune/internal/telemetry"
	"github.com/radio-control/retune/internal/timer"
	"github.com/radio-control/retune/internal/transport"
)

const Version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting retune scheduler", logging.String("version", Version))

	// Metrics. A disabled registry leaves every collector nil, which turns
	// all diagnostic counting into no-ops without touching the core paths.
	var (
		metrics  *observability.Collector
		registry *prometheus.Registry
	)
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics, err = observability.NewCollector(registry)
		if err != nil {
			log.Fatalf("Failed to register metrics: %v", err)
		}
	}

	auditLogger, err := audit.NewLogger(cfg.AuditDir)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	hub := telemetry.NewHub()

	// The fake frontend stands in for RF hardware; real synthesizer
	// drivers plug in behind adapter.Synthesizer.
	synth := fake.New("retune-0")

	queue := retune.NewQueue()
	timers := timer.New(synth, metrics, cfg.TimerPollInterval, logger.With(logging.String("component", "timer")))

	dispatcher := retune.NewDispatcher(queue, synth, hub, metrics, logger.With(logging.String("component", "dispatcher")))
	dispatcher.SetAuditLogger(auditLogger)
	worker := retune.NewWorker(queue, synth, timers, hub, metrics, logger.With(logging.String("component", "worker")))
	service := retune.NewService(queue, dispatcher, worker, metrics, cfg.TickInterval, logger.With(logging.String("component", "runloop")))

	var authMW *auth.Middleware
	if cfg.AuthSecret != "" {
		authMW = auth.NewMiddleware(auth.NewVerifier(cfg.AuthSecret))
	}

	var gatherer prometheus.Gatherer
	if registry != nil {
		gatherer = registry
	}
	opsServer := api.NewServer(service, timers, hub, gatherer, authMW)

	hostLink := transport.NewServer(service, logger.With(logging.String("component", "transport")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 3)
	go func() {
		if err := service.Run(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()
	go func() {
		if err := timers.Run(ctx); err != nil && err != context.Canceled {
			errCh <- err
		}
	}()
	go func() {
		if err := opsServer.Start(cfg.APIAddr); err != nil {
			errCh <- err
		}
	}()

	if err := hostLink.Start(cfg.HostLinkAddr); err != nil {
		log.Fatalf("Failed to start host link: %v", err)
	}

	logger.Info("retune scheduler started",
		logging.String("hostLink", cfg.HostLinkAddr),
		logging.String("api", cfg.APIAddr))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutting down", logging.Any("signal", sig.String()))
	case err := <-errCh:
		logger.Error("fatal error", logging.Err(err))
	}

	cancel()

	if err := hostLink.Stop(); err != nil {
		logger.Warn("host link stop failed", logging.Err(err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := opsServer.Stop(stopCtx); err != nil {
		logger.Warn("operations server stop failed", logging.Err(err))
	}

	hub.Stop()
	if err := auditLogger.Close(); err != nil {
		logger.Warn("audit log close failed", logging.Err(err))
	}

	logger.Info("retune scheduler shutdown complete")
}
