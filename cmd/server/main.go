package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memoir/internal/server/api"
	"memoir/internal/server/config"
	"memoir/internal/server/database"
	"memoir/internal/server/imaging"
	"memoir/internal/server/service"
	"memoir/internal/server/storage"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg := config.Load()
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"storage_path", cfg.StoragePath,
		"max_upload_size", cfg.MaxUploadSize,
		"retention_window", cfg.RetentionWindow,
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations complete")

	// Initialize object storage
	objects := storage.NewFileSystemStore(cfg.StoragePath)
	if err := objects.EnsureDir(); err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Info("image storage initialized", "path", cfg.StoragePath)

	// Initialize repositories and services
	memoryRepo := database.NewMemoryRepository(db)
	statsRepo := database.NewStatsRepository(db)
	normalizer := imaging.NewJPEGNormalizer(cfg.JPEGQuality, cfg.MaxImageDimension)

	stats := service.NewStatsService(statsRepo)
	memories := service.NewMemoryService(memoryRepo, stats, objects, normalizer, cfg)

	// Start retention service
	retentionCtx, retentionCancel := context.WithCancel(context.Background())
	retention := storage.NewRetentionService(memories, cfg.RetentionWindow, cfg.CleanupInterval)
	retention.Start(retentionCtx)

	// Setup HTTP router
	handler := api.NewHandler(memories, stats, objects, db, cfg)
	e := api.SetupRouter(handler, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop retention service
	retentionCancel()
	retention.Wait()

	slog.Info("server exited cleanly")
}
