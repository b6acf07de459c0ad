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

	"github.com/solvetrack/tagstat-engine/internal/api"
	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/refresh"
	"github.com/solvetrack/tagstat-engine/internal/snapshot"
	"github.com/solvetrack/tagstat-engine/internal/storage"
	"github.com/solvetrack/tagstat-engine/internal/tagstats"
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

	slog.Info("starting tagstat-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Open snapshot store
	store, err := storage.Open(initCtx, cfg.Store)
	if err != nil {
		slog.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	slog.Info("snapshot store connected", "backend", cfg.Store.Backend)

	// Wire the pipeline
	fetcher := cfapi.NewClient(cfg.Codeforces)
	cache := snapshot.NewCache(store, cfg.Cache)
	hub := api.NewHub()
	service := tagstats.NewService(fetcher, cache, cfg.Scoring, hub)

	// Create context with cancellation for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start snapshot warmer
	if cfg.Refresh.Enabled {
		warmer := refresh.NewWarmer(service, cfg.Refresh)
		warmer.Start(ctx)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, service, store, hub)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
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

	// Close the store
	if err := store.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("tagstat-engine stopped")
}
