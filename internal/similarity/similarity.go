// Package similarity scores how alike two faces are.
package similarity

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// DefaultThreshold is the match decision threshold for embedding scores
const DefaultThreshold = 0.7

// normFloor replaces the norm of a zero vector so the division stays finite
const normFloor = 1e-10

// Normalize returns v scaled to unit L2 norm. A zero vector stays zero.
// Any nonzero vector, however small, comes out with norm 1, so normalizing
// twice gives the same vector as normalizing once.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = normFloor
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Mismatched lengths or a zero vector score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return clamp(dot/denom, -1, 1)
}

var landmarkTriad = [3]domain.LandmarkType{
	domain.LandmarkLeftEye,
	domain.LandmarkRightEye,
	domain.LandmarkNoseBase,
}

// LandmarkSimilarity compares the eye and nose positions of two faces.
// Distances are summed, divided by the mean face scale sqrt(w*h) of the two
// boxes and mapped through 1/(1+d). Any missing point scores 0.
func LandmarkSimilarity(a, b domain.FaceSignature) float64 {
	var d float64
	for _, t := range landmarkTriad {
		pa, ok := a.Landmarks.Find(t)
		if !ok {
			return 0
		}
		pb, ok := b.Landmarks.Find(t)
		if !ok {
			return 0
		}
		d += math.Hypot(pa.X-pb.X, pa.Y-pb.Y)
	}

	scale := (faceScale(a.Box) + faceScale(b.Box)) / 2
	if scale <= 0 {
		return 0
	}

	return clamp(1/(1+d/scale), 0, 1)
}

func faceScale(b domain.BoundingBox) float64 {
	if !b.Valid() {
		return 0
	}
	return math.Sqrt(float64(b.Width()) * float64(b.Height()))
}

// Decide applies the match threshold
func Decide(score, threshold float64) bool {
	return score >= threshold
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Strategy scores two face signatures
type Strategy interface {
	Name() string
	// NeedsEmbedding reports whether signatures must carry an embedding
	NeedsEmbedding() bool
	Score(a, b domain.FaceSignature) float64
}

const (
	StrategyEmbedding = "embedding"
	StrategyLandmark  = "landmark"
)

// EmbeddingStrategy compares embeddings by cosine similarity
type EmbeddingStrategy struct{}

func (EmbeddingStrategy) Name() string         { return StrategyEmbedding }
func (EmbeddingStrategy) NeedsEmbedding() bool { return true }
func (EmbeddingStrategy) Score(a, b domain.FaceSignature) float64 {
	return CosineSimilarity(a.Embedding, b.Embedding)
}

// LandmarkStrategy is the lower confidence fallback used when no embedding
// model is available. It measures geometric alignment, not identity.
type LandmarkStrategy struct{}

func (LandmarkStrategy) Name() string         { return StrategyLandmark }
func (LandmarkStrategy) NeedsEmbedding() bool { return false }
func (LandmarkStrategy) Score(a, b domain.FaceSignature) float64 {
	return LandmarkSimilarity(a, b)
}

// NewStrategy returns the strategy registered under name
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyEmbedding:
		return EmbeddingStrategy{}, nil
	case StrategyLandmark:
		return LandmarkStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity strategy %q", name)
	}
}
