package app

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:        "test",
		RateLimitMax:       120,
		MatchStrategy:      "embedding",
		MatchThreshold:     0.7,
		Detector:           "mock",
		DetectorMode:       "fast",
		DetectorLandmarks:  true,
		Embedder:           "mock",
		EmbeddingInputSize: 112,
		EmbeddingSize:      128,
		EmbeddingLayout:    "nhwc",
		GalleryBackend:     config.BackendFile,
		GalleryPath:        filepath.Join(t.TempDir(), "embeddings.json"),
		FetchTimeout:       time.Second,
		MaxImageBytes:      1 << 20,
	}
}

func writeImage(t *testing.T, shade uint8) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 96, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 96; x++ {
			img.Set(x, y, color.RGBA{uint8(x) ^ shade, uint8(y) + shade, shade, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_FileBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := New(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	assert.Equal(t, "embedding", a.Service.Strategy())
	assert.Equal(t, 0.7, a.Service.Threshold())

	ref := writeImage(t, 40)
	require.NoError(t, a.Service.Enrol(ctx, ref, "alice"))

	result, err := a.Service.Recognize(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "alice", result.PersonID)
	assert.InDelta(t, 1.0, result.Score, 1e-6)

	g, err := a.Gallery.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, g.IDs())

	_, err = os.Stat(cfg.GalleryPath)
	assert.NoError(t, err, "enrol should create the gallery file")
}

func TestNew_WithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Embedder = "none"
	cfg.MatchStrategy = "landmark"

	a, err := New(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	ref := writeImage(t, 10)
	err = a.Service.Enrol(ctx, ref, "alice")
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)

	res, err := a.Service.Compare(ctx, ref, ref)
	require.NoError(t, err)
	assert.Equal(t, "landmark", res.Strategy)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.True(t, res.IsMatch)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{
			name:   "unknown detector",
			mutate: func(c *config.Config) { c.Detector = "haar" },
		},
		{
			name:   "unknown embedder",
			mutate: func(c *config.Config) { c.Embedder = "arcface" },
		},
		{
			name:   "unknown strategy",
			mutate: func(c *config.Config) { c.MatchStrategy = "euclidean" },
		},
		{
			name:   "unknown backend",
			mutate: func(c *config.Config) { c.GalleryBackend = "redis" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			a, err := New(context.Background(), cfg, discardLogger())
			assert.Error(t, err)
			assert.Nil(t, a)
		})
	}
}

func TestApp_CloseTwice(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), discardLogger())
	require.NoError(t, err)

	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
