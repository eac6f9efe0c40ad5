package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/medsafe/catalog"
	"github.com/giygas/medsafe/config"
	"github.com/giygas/medsafe/handlers"
	"github.com/giygas/medsafe/health"
	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
	"github.com/giygas/medsafe/scheduler"
	"github.com/giygas/medsafe/server"
	"github.com/giygas/medsafe/session"
	"github.com/giygas/medsafe/validation"
	"github.com/giygas/medsafe/views"
	"github.com/giygas/medsafe/wizard"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		LogDir:         cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.DefaultLoggingService.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"max_drug_count", cfg.MaxDrugCount,
		"session_ttl", cfg.SessionTTL.String(),
		"catalog_enabled", cfg.CatalogEnabled())

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	renderer, err := views.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	sessions := session.NewStore(cfg.SessionTTL)
	cat := catalog.New()

	var loader interfaces.CatalogLoader
	switch {
	case cfg.CatalogPath != "":
		loader = catalog.NewFileLoader(cfg.CatalogPath)
	case cfg.CatalogURL != "":
		loader = catalog.NewHTTPLoader(cfg.CatalogURL)
	}

	sched := scheduler.NewScheduler(sessions, cat, loader, cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(
		sessions,
		wizard.NewController(cfg.MaxDrugCount),
		validation.NewInputValidator(cfg.MaxDrugCount),
		cat,
		health.NewHealthChecker(sessions, cat, loader != nil, cfg.SessionSweepInterval),
		renderer,
	)

	srv := server.NewServer(cfg, handler, sessions)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
