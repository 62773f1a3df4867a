package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// minFaceSide abaixo disso o detector não encontra faces
const minFaceSide = 16

// Detector implementa provider.FaceDetector para testes e desenvolvimento.
// Reporta uma única face cobrindo o centro da imagem, com os cinco landmarks
// em posições fixas relativas à caixa.
type Detector struct {
	landmarks bool
}

// NewDetector cria um detector determinístico
func NewDetector(opts provider.DetectorOptions) *Detector {
	return &Detector{landmarks: opts.Landmarks}
}

func (d *Detector) Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() < minFaceSide || b.Dy() < minFaceSide {
		return nil, nil
	}

	box := domain.BoundingBox{
		Left:   b.Min.X + b.Dx()/10,
		Top:    b.Min.Y + b.Dy()/10,
		Right:  b.Max.X - b.Dx()/10,
		Bottom: b.Max.Y - b.Dy()/10,
	}

	face := domain.DetectedFace{Box: box, Confidence: 0.99}
	if d.landmarks {
		face.Landmarks = landmarksFor(box)
	}
	return []domain.DetectedFace{face}, nil
}

func landmarksFor(box domain.BoundingBox) domain.Landmarks {
	w := float64(box.Width())
	h := float64(box.Height())
	at := func(t domain.LandmarkType, rx, ry float64) domain.Landmark {
		return domain.Landmark{Type: t, X: float64(box.Left) + rx*w, Y: float64(box.Top) + ry*h}
	}
	return domain.Landmarks{
		at(domain.LandmarkLeftEye, 0.3, 0.4),
		at(domain.LandmarkRightEye, 0.7, 0.4),
		at(domain.LandmarkNoseBase, 0.5, 0.6),
		at(domain.LandmarkMouthLeft, 0.35, 0.8),
		at(domain.LandmarkMouthRight, 0.65, 0.8),
	}
}

// Model implementa provider.EmbeddingModel gerando embedding determinístico
// baseado no hash do tensor de entrada.
type Model struct {
	dim int
}

// NewModel cria um modelo mock com a dimensão de saída informada
func NewModel(dim int) *Model {
	return &Model{dim: dim}
}

func (m *Model) Infer(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, 4*len(input))
	for i, v := range input {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return generateEmbedding(buf, m.dim), nil
}

func (m *Model) Close() error {
	return nil
}

// generateEmbedding gera embedding determinístico baseado no hash dos dados
func generateEmbedding(data []byte, dim int) []float32 {
	hash := sha256.Sum256(data)
	embedding := make([]float32, dim)
	hashLen := len(hash)

	for i := 0; i < dim; i++ {
		idx := i % hashLen
		embedding[i] = (float32(hash[idx])/255.0)*2 - 1
	}

	return embedding
}

var (
	_ provider.FaceDetector   = (*Detector)(nil)
	_ provider.EmbeddingModel = (*Model)(nil)
)
