//go:build !tflite

package tflite

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// Embedder is unavailable without the tflite build tag
type Embedder struct{}

var _ provider.EmbeddingModel = (*Embedder)(nil)

func NewEmbedder(cfg Config) (*Embedder, error) {
	return nil, ErrNotCompiled
}

func (e *Embedder) Infer(ctx context.Context, input []float32) ([]float32, error) {
	return nil, ErrNotCompiled
}

func (e *Embedder) Close() error {
	return nil
}
