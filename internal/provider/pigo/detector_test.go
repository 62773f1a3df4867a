package pigo

import (
	"image"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

func TestToFaces(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 50, Col: 40, Scale: 20, Q: 8},
		{Row: 10, Col: 10, Scale: 10, Q: 2},
		{Row: 100, Col: 100, Scale: 40, Q: 30},
	}

	faces := toFaces(dets, 5, image.Pt(0, 0))

	require.Len(t, faces, 2, "low quality detection is dropped")
	assert.Equal(t, domain.BoundingBox{Left: 80, Top: 80, Right: 120, Bottom: 120}, faces[0].Box)
	assert.Equal(t, domain.BoundingBox{Left: 30, Top: 40, Right: 50, Bottom: 60}, faces[1].Box)
	assert.Greater(t, faces[0].Confidence, faces[1].Confidence)
	assert.Empty(t, faces[0].Landmarks)
}

func TestQualityToConfidence(t *testing.T) {
	assert.Equal(t, 0.0, qualityToConfidence(-3))
	assert.InDelta(t, 0.5, qualityToConfidence(10), 1e-9)
	assert.Less(t, qualityToConfidence(1000), 1.0)
}

func TestNewDetector_MissingCascade(t *testing.T) {
	_, err := NewDetector(DefaultConfig("/nonexistent/facefinder"), provider.DetectorOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read cascade file")
}
