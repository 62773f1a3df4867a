package repository

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/gallery"
)

// GalleryRepository stores one row per enrolled sample.
// Rows are read back by id so identity and sample order match insertion order.
type GalleryRepository struct {
	pool PgxPool
}

var _ gallery.Store = (*GalleryRepository)(nil)

func NewGalleryRepository(pool PgxPool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

func (r *GalleryRepository) Append(ctx context.Context, personID string, emb domain.Embedding) error {
	query := `
		INSERT INTO gallery_embeddings (person_id, embedding)
		VALUES ($1, $2)
	`

	_, err := r.pool.Exec(ctx, query, personID, pgvector.NewVector(emb))
	if err != nil {
		return domain.ErrStoreIOFailed.WithError(fmt.Errorf("insert embedding: %w", err))
	}
	return nil
}

func (r *GalleryRepository) LoadAll(ctx context.Context) (*domain.Gallery, error) {
	query := `
		SELECT person_id, embedding
		FROM gallery_embeddings
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.ErrStoreIOFailed.WithError(fmt.Errorf("query gallery: %w", err))
	}
	defer rows.Close()

	g := domain.NewGallery()
	for rows.Next() {
		var personID string
		var vec *pgvector.Vector
		if err := rows.Scan(&personID, &vec); err != nil {
			return nil, domain.ErrStoreIOFailed.WithError(fmt.Errorf("scan gallery row: %w", err))
		}
		if vec == nil {
			continue
		}
		g.Append(personID, vec.Slice())
	}

	if err := rows.Err(); err != nil {
		return nil, domain.ErrStoreIOFailed.WithError(fmt.Errorf("iterate gallery: %w", err))
	}
	return g, nil
}

// Count returns identities and samples without loading embeddings
func (r *GalleryRepository) Count(ctx context.Context) (identities int, samples int, err error) {
	query := `
		SELECT COUNT(DISTINCT person_id), COUNT(*)
		FROM gallery_embeddings
	`

	if err := r.pool.QueryRow(ctx, query).Scan(&identities, &samples); err != nil {
		return 0, 0, domain.ErrStoreIOFailed.WithError(fmt.Errorf("count gallery: %w", err))
	}
	return identities, samples, nil
}

// Ping checks the database is reachable
func (r *GalleryRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
