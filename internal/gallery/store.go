// Package gallery persists enrolled embeddings.
package gallery

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Store is an append-only gallery. Implementations serialize writers and
// return snapshots that later appends do not modify.
type Store interface {
	Append(ctx context.Context, personID string, emb domain.Embedding) error
	LoadAll(ctx context.Context) (*domain.Gallery, error)
}
