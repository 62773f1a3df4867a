package provider

import (
	"context"
	"image"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// PerformanceMode trades detector accuracy for speed.
type PerformanceMode string

const (
	ModeFast     PerformanceMode = "fast"
	ModeAccurate PerformanceMode = "accurate"
)

// DetectorOptions configura o detector
type DetectorOptions struct {
	Mode      PerformanceMode
	Landmarks bool
}

// FaceDetector localiza faces numa imagem decodificada.
// Faces são retornadas na ordem do detector, com caixas em pixels da imagem de entrada.
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error)
}

// EmbeddingModel runs a face embedding network on a preprocessed tensor.
// The input is size*size*3 float32 values in the layout the model was configured with.
// The output is the raw, unnormalized embedding.
type EmbeddingModel interface {
	Infer(ctx context.Context, input []float32) ([]float32, error)
	Close() error
}
