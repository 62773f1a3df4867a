package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api"
	"github.com/saturnino-fabrica-de-software/facematch/internal/app"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting facematch API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GalleryBackend == config.BackendPostgres {
		if err := database.MigrateUp(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to migrate gallery schema: %w", err)
		}
	}

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build face pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Error("failed to release providers", slog.Any("error", err))
		}
	}()

	router := api.NewRouter(logger, &api.Dependencies{
		FaceService:  pipeline.Service,
		Gallery:      pipeline.Gallery,
		RateLimitMax: cfg.RateLimitMax,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}
