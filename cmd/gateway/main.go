package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/besfeng23/kairos-github-gateway/internal/config"
	"github.com/besfeng23/kairos-github-gateway/internal/dedupe"
	"github.com/besfeng23/kairos-github-gateway/internal/handlers"
	"github.com/besfeng23/kairos-github-gateway/internal/kairos"
	"github.com/besfeng23/kairos-github-gateway/internal/logging"
	"github.com/besfeng23/kairos-github-gateway/internal/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("github-gateway"))
	logging.SetDefault(logger)

	slog.Info("Starting GitHub gateway",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	if cfg.Github.WebhookSecret == "" {
		slog.Warn("GITHUB_WEBHOOK_SECRET is not set; every delivery will be rejected with 401")
	}
	allowedRepos := cfg.Github.AllowedRepoList()
	if len(allowedRepos) > 0 {
		slog.Info("Repo allow-list configured", slog.Int("repos", len(allowedRepos)))
	} else {
		slog.Info("No repo allow-list configured; all repos accepted")
	}

	// Select the dedupe store. Redis keeps replays correct across gateway
	// instances; memory mode is single-instance only.
	store := newDedupeStore(cfg)
	defer store.Close()

	// Kairos forwarding client. A missing base URL is a deployment error.
	kairosClient, err := kairos.New(kairos.Config{
		BaseURL:        cfg.Kairos.BaseURL,
		IngestEventURL: cfg.Kairos.IngestEventURL,
		RecomputeURL:   cfg.Kairos.RecomputeURL,
		Secret:         cfg.Kairos.Secret,
		Timeout:        cfg.Kairos.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create Kairos client: %v", err)
	}

	handler := handlers.NewWebhookHandler(cfg.Github.WebhookSecret, allowedRepos, store, kairosClient, logger)
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Gateway listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server stopped")
}

func newDedupeStore(cfg *config.Config) dedupe.Store {
	if cfg.Dedupe.Mode == "memory" {
		slog.Info("Dedupe store: memory (forced by DEDUPE_MODE)")
		slog.Warn("Memory dedupe store is not correct across multiple gateway instances")
		return dedupe.NewMemoryStore(cfg.Dedupe.TTL)
	}

	if cfg.Dedupe.RedisURL != "" {
		store, err := dedupe.NewRedisStore(cfg.Dedupe.RedisURL, cfg.Dedupe.TTL)
		if err != nil {
			slog.Warn("Failed to initialize redis dedupe store; falling back to memory",
				slog.String("error", err.Error()))
			slog.Warn("Memory dedupe store is not correct across multiple gateway instances")
			return dedupe.NewMemoryStore(cfg.Dedupe.TTL)
		}
		slog.Info("Dedupe store: redis")
		return store
	}

	slog.Warn("No redis URL configured; using memory dedupe store (single instance only)")
	return dedupe.NewMemoryStore(cfg.Dedupe.TTL)
}
