// Command api is the Tennis Tracker API server.
//
// Usage:
//
//	tennis-api
//	API_PORT=8080 tennis-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/fernkoch/tennis-tracker/internal/api"
	"github.com/fernkoch/tennis-tracker/internal/api/handler"
	"github.com/fernkoch/tennis-tracker/internal/auth"
	"github.com/fernkoch/tennis-tracker/internal/config"
	"github.com/fernkoch/tennis-tracker/internal/notify"
	"github.com/fernkoch/tennis-tracker/internal/scheduler"
	"github.com/fernkoch/tennis-tracker/internal/store"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// File stores
	users, err := store.NewUserStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open user store", "error", err)
		os.Exit(1)
	}
	history, err := store.NewNotificationStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open notification store", "error", err)
		os.Exit(1)
	}
	logger.Info("Stores initialized", "data_dir", cfg.DataDir)

	// Upstream tennis data source with schedule cache
	client := tennis.NewClient(cfg.TennisAPIBaseURL, cfg.TennisAPIKey, cfg.TennisAPIRPM, logger)
	source := tennis.NewCachedSource(client, cfg.CacheEnabled, cfg.CacheTTL)
	logger.Info("Schedule cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	// Delivery channels
	push := notify.NewPushoverClient("", cfg.PushoverAppToken, logger)
	mailer := notify.NewMailer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword, cfg.EmailFrom)
	if !mailer.Enabled() {
		logger.Info("Email delivery disabled (no EMAIL_USER)")
	}
	dispatcher := notify.NewDispatcher(source, history, push, mailer, logger)

	// Background workers
	sched := scheduler.New(users, dispatcher, source, logger)
	sched.Start(ctx)

	magicLinks := auth.NewMagicLinkStore(logger)
	go magicLinks.StartSweep(ctx)

	// Create router
	router := api.NewRouter(handler.Deps{
		Users:      users,
		History:    history,
		Dispatcher: dispatcher,
		Source:     source,
		MagicLinks: magicLinks,
		Mailer:     mailer,
		Cfg:        cfg,
		Logger:     logger,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Tennis Tracker API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
