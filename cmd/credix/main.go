// Credix - Pre-delinquency intervention for retail lending.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/credix/internal/api"
	"github.com/opensource-finance/credix/internal/bus"
	"github.com/opensource-finance/credix/internal/cache"
	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/intervention"
	"github.com/opensource-finance/credix/internal/notify"
	"github.com/opensource-finance/credix/internal/outcome"
	"github.com/opensource-finance/credix/internal/repository"
	"github.com/opensource-finance/credix/internal/risk"
	"github.com/opensource-finance/credix/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg := domain.ConfigFromEnv(os.Getenv)

	slog.SetDefault(newLogger(cfg.Logging))

	slog.Info("starting credix",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"demo_mode", cfg.Intervention.DemoMode,
		"tracing", cfg.Tracing.Enabled,
	)
	if cfg.Intervention.DemoMode {
		slog.Warn("demo mode is on: unresolvable tokens are served a sample customer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Outcome Log
	outcomes, err := outcome.Open(cfg.Intervention.OutcomeLogPath)
	if err != nil {
		slog.Error("failed to open outcome log", "error", err)
		os.Exit(1)
	}
	defer outcomes.Close()
	slog.Info("outcome log opened", "path", outcomes.Path())

	// Initialize Classifier
	classifier, err := risk.NewClassifier()
	if err != nil {
		slog.Error("failed to initialize classifier", "error", err)
		os.Exit(1)
	}

	// Initialize Notifier
	notifier, err := notify.NewFromConfig(cfg.Notification)
	if err != nil {
		slog.Error("failed to initialize notifier", "error", err)
		os.Exit(1)
	}

	svc := intervention.NewService(intervention.ConfigFrom(cfg), classifier, repo, cacheImpl, outcomes, notifier, busImpl)

	// Initialize alert worker
	alertWorker := worker.NewWorker(busImpl, svc)
	if err := alertWorker.Start(worker.Config{Concurrency: cfg.Intervention.ScanConcurrency}); err != nil {
		slog.Error("failed to start alert worker", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(cfg.Server, svc, repo, cacheImpl, busImpl, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("credix is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if err := alertWorker.Stop(); err != nil {
		slog.Error("failed to stop alert worker", "error", err)
	}

	slog.Info("credix shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║                 CREDIX                    ║")
	fmt.Println("  ║   Pre-delinquency Intervention Engine     ║")
	fmt.Println("  ║      Help before the missed payment.      ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Portal:   %s/customer/intervention?token=<id>\n", cfg.Notification.BaseURL)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /customers/{id}/risk          - Risk band, reasons and priority")
	fmt.Println("    GET  /customers/{id}/plans         - Relief and reward plans")
	fmt.Println("    POST /customers/{id}/alerts        - Dispatch an intervention alert")
	fmt.Println("    POST /customers/import             - Load dataset or master CSV")
	fmt.Println("    GET  /intervention?token=          - Customer intervention view")
	fmt.Println("    POST /intervention/{id}/plans/{p}/accept|decline")
	fmt.Println("    POST /alerts/scan                  - Alert the highest-risk customers")
	fmt.Println("    GET  /operations/engagement        - Outcome log summary")
	fmt.Println("    GET  /operations/worklist          - Priority worklist")
	fmt.Println("    GET  /portfolio/kpis               - Portfolio KPIs")
	fmt.Println("    GET  /health                       - Health check")
	fmt.Println()
}
