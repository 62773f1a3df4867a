// Package app assembles the face pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/facematch/internal/acquire"
	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/embedding"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
	"github.com/saturnino-fabrica-de-software/facematch/internal/gallery"
	"github.com/saturnino-fabrica-de-software/facematch/internal/localizer"
	"github.com/saturnino-fabrica-de-software/facematch/internal/repository"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
	"github.com/saturnino-fabrica-de-software/facematch/internal/similarity"
)

// App owns everything a running pipeline holds open
type App struct {
	Service *service.FaceService
	Gallery gallery.Store

	providers *face.Providers
	pool      *pgxpool.Pool
}

// New builds providers, the gallery store and the face service described by cfg.
// Close must be called to release models and database connections.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	providers, err := face.NewProviders(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create providers: %w", err)
	}
	a := &App{providers: providers}

	store, err := a.openGallery(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Gallery = store

	strategy, err := similarity.NewStrategy(cfg.MatchStrategy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Service = service.NewFaceService(
		acquire.NewFetcher(acquire.Config{Timeout: cfg.FetchTimeout, MaxBytes: cfg.MaxImageBytes}),
		localizer.New(providers.Detector, localizer.SelectFirst),
		newEmbedder(providers, cfg),
		store,
		strategy,
	).
		WithThreshold(cfg.MatchThreshold).
		WithAudit(audit.NewSlogLogger(logger)).
		WithLogger(logger)

	logger.Info("face pipeline ready",
		slog.String("detector", cfg.Detector),
		slog.String("embedder", cfg.Embedder),
		slog.String("strategy", strategy.Name()),
		slog.Float64("threshold", cfg.MatchThreshold),
		slog.String("gallery", cfg.GalleryBackend),
	)
	return a, nil
}

// newEmbedder returns a nil interface, not a typed nil, when no model is configured
func newEmbedder(p *face.Providers, cfg *config.Config) service.EmbedderInterface {
	if p.Model == nil {
		return nil
	}
	return embedding.NewExtractor(p.Model, embedding.Config{
		InputSize: cfg.EmbeddingInputSize,
		Dim:       cfg.EmbeddingSize,
		Layout:    embedding.Layout(cfg.EmbeddingLayout),
	})
}

func (a *App) openGallery(ctx context.Context, cfg *config.Config) (gallery.Store, error) {
	switch cfg.GalleryBackend {
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("connect gallery database: %w", err)
		}
		a.pool = pool
		return repository.NewGalleryRepository(pool), nil
	case config.BackendFile:
		return gallery.NewFileStore(cfg.GalleryPath), nil
	default:
		return nil, fmt.Errorf("unsupported gallery backend %q", cfg.GalleryBackend)
	}
}

func (a *App) Close() error {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.providers != nil {
		return a.providers.Close()
	}
	return nil
}
