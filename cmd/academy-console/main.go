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

	"github.com/terra-clan/academy-console/internal/access"
	"github.com/terra-clan/academy-console/internal/api"
	"github.com/terra-clan/academy-console/internal/builder"
	"github.com/terra-clan/academy-console/internal/cleanup"
	"github.com/terra-clan/academy-console/internal/config"
	"github.com/terra-clan/academy-console/internal/health"
	"github.com/terra-clan/academy-console/internal/notify"
	"github.com/terra-clan/academy-console/internal/session"
	"github.com/terra-clan/academy-console/internal/storage"
	"github.com/terra-clan/academy-console/internal/templates"
	"github.com/terra-clan/academy-console/pkg/client"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting academy-console",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"academy_api", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	registry := health.NewRegistry(5 * time.Second)

	// Session store
	store, closeStore, err := newSessionStore(cfg.Session, registry)
	if err != nil {
		slog.Error("failed to create session store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Draft repository
	repo, err := newRepository(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to create draft repository", "error", err)
		os.Exit(1)
	}
	registry.Register("drafts", repo)

	// Academy API client
	academy := client.NewClient(cfg.API.BaseURL, client.WithTimeout(cfg.API.Timeout))
	registry.Register("upstream", academy)

	// Load template presets
	presets := templates.NewLoader()
	if err := presets.LoadFromDir(cfg.Templates.Dir); err != nil {
		slog.Warn("failed to load template presets", "dir", cfg.Templates.Dir, "error", err)
	}

	notices := notify.NewCenter(cfg.Notices.TTL)
	sessions := session.NewManager(store)
	builderService := builder.NewService(repo, academy, notices)

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval, cfg.Cleanup.DraftTTL).WithNotices(notices)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Sessions: sessions,
		Tokens:   session.NewTokenDecoder(cfg.Session.JWTSecret),
		Gate:     access.NewGate(notices),
		Notices:  notices,
		Builder:  builderService,
		Presets:  presets,
		Academy:  academy,
		Health:   registry,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("draft repository close error", "error", err)
	}

	slog.Info("academy-console stopped")
}

// newSessionStore builds the configured session backend. The redis store
// joins the readiness checks.
func newSessionStore(cfg config.SessionConfig, registry *health.Registry) (session.Store, func(), error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		store, err := session.NewRedisStore(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		registry.Register("sessions", store)
		slog.Info("using redis session store", "address", cfg.RedisAddress)
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Error("redis close error", "error", err)
			}
		}, nil
	case config.SessionBackendFile:
		store, err := session.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using file session store", "dir", cfg.Dir)
		return store, func() {}, nil
	default:
		slog.Info("using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}
}

// newRepository connects the postgres draft store after running migrations,
// or keeps drafts in memory when no DSN is configured
func newRepository(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if cfg.DSN == "" {
		slog.Info("DATABASE_DSN not set, keeping builder drafts in memory")
		return storage.NewMemoryRepository(), nil
	}

	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	if err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: int32(cfg.MaxOpenConns),
		MaxIdleConns: int32(cfg.MaxIdleConns),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("database connected successfully")
	return repo, nil
}
