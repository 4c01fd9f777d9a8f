package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/curriculum-engine/internal/api"
	"github.com/terra-clan/curriculum-engine/internal/catalog"
	"github.com/terra-clan/curriculum-engine/internal/cleanup"
	"github.com/terra-clan/curriculum-engine/internal/config"
	"github.com/terra-clan/curriculum-engine/internal/editor"
	"github.com/terra-clan/curriculum-engine/internal/progression"
	"github.com/terra-clan/curriculum-engine/internal/session"
	"github.com/terra-clan/curriculum-engine/internal/storage"
	"github.com/terra-clan/curriculum-engine/pkg/client"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting curriculum-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"persistence", cfg.Persistence.Backend,
	)

	profile, err := progression.LoadFromFile(cfg.Progression.ProfilePath)
	if err != nil {
		slog.Error("failed to load progression profile", "error", err)
		os.Exit(1)
	}

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	backend := client.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, client.WithTimeout(cfg.Backend.Timeout))
	checks := make(map[string]api.ReadinessCheck)

	var (
		primary   catalog.PrimarySource
		secondary catalog.SecondarySource
		cache     catalog.Cache
		courses   editor.CourseRepository
		clients   api.ClientStore
		repo      storage.Repository
	)

	switch cfg.Persistence.Backend {
	case config.PersistencePostgres:
		if cfg.Database.RunMigrations {
			slog.Info("running database migrations")
			if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN); err != nil {
				slog.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}

		repo, err = storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected successfully")

		secondary = repo
		courses = repo
		clients = repo
		checks["database"] = repo.Ping
	default:
		primary = backend
		secondary = backend
		courses = backend
		checks["backend"] = backend.Health
	}

	// Static keys override the api_clients table
	if static := api.NewStaticClients(cfg.Server.APIKeys); static != nil {
		clients = static
	}
	if clients == nil {
		slog.Warn("no API keys configured, authentication disabled")
	}

	if cfg.Redis.Enabled {
		redisCache, err := catalog.NewRedisCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Catalog.CacheTTL)
		if err != nil {
			slog.Warn("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
			checks["redis"] = redisCache.HealthCheck
		}
	}

	loader := catalog.NewLoader(primary, secondary, cache, catalog.Options{
		PrimaryPageSize:   cfg.Catalog.PrimaryPageSize,
		SecondaryPageSize: cfg.Catalog.SecondaryPageSize,
		MaxPages:          cfg.Catalog.MaxPages,
		LoadTimeout:       cfg.Catalog.LoadTimeout,
		Bands:             profile.BandTable(),
	})

	registry := session.NewRegistry(func(id, courseID string) *editor.Controller {
		return editor.NewController(id, courseID, loader, courses, editor.Options{
			Profile:       profile,
			MoveSemantics: cfg.Editor.MoveSemantics,
			CatalogWait:   cfg.Catalog.WaitTimeout,
			Seed:          cfg.Editor.Seed,
		})
	}, cfg.Editor.MaxOpen)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Catalog.PreloadOnStart {
		go func() {
			techniques := loader.Load(ctx)
			slog.Info("catalog preloaded", "count", len(techniques))
		}()
	}

	// Start cleanup worker
	cleaner := cleanup.NewCleaner(registry, cfg.Editor.IdleTTL, cfg.Editor.CleanupInterval)
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, loader, registry, clients, checks)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// Event streams end when their editors close
	registry.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if repo != nil {
		repo.Close()
	}

	slog.Info("curriculum-engine stopped")
}
