// Package embedding turns a face crop into a unit-length descriptor.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/similarity"
)

const (
	DefaultInputSize = 112
	DefaultDim       = 128
)

// Layout is the tensor layout the model consumes
type Layout string

const (
	// LayoutNHWC interleaves R, G, B per pixel, row-major
	LayoutNHWC Layout = "nhwc"
	// LayoutNCHW stores one plane per channel
	LayoutNCHW Layout = "nchw"
)

type Config struct {
	InputSize int
	Dim       int
	Layout    Layout
}

func DefaultConfig() Config {
	return Config{InputSize: DefaultInputSize, Dim: DefaultDim, Layout: LayoutNHWC}
}

// Extractor preprocesses crops, runs the model and normalizes the output
type Extractor struct {
	model provider.EmbeddingModel
	cfg   Config
}

func NewExtractor(model provider.EmbeddingModel, cfg Config) *Extractor {
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultInputSize
	}
	if cfg.Dim <= 0 {
		cfg.Dim = DefaultDim
	}
	if cfg.Layout == "" {
		cfg.Layout = LayoutNHWC
	}
	return &Extractor{model: model, cfg: cfg}
}

// Dim returns the embedding length this extractor produces
func (e *Extractor) Dim() int {
	return e.cfg.Dim
}

// Embed returns the L2-normalized embedding of crop
func (e *Extractor) Embed(ctx context.Context, crop image.Image) (domain.Embedding, error) {
	input := Preprocess(crop, e.cfg.InputSize, e.cfg.Layout)

	raw, err := e.model.Infer(ctx, input)
	if errors.Is(err, domain.ErrEmbeddingSizeMismatch) {
		return nil, err
	}
	if err != nil {
		return nil, domain.ErrEmbeddingFailed.WithError(err)
	}
	if len(raw) != e.cfg.Dim {
		return nil, domain.ErrEmbeddingSizeMismatch.WithError(
			fmt.Errorf("model returned %d values, expected %d", len(raw), e.cfg.Dim))
	}

	return domain.Embedding(similarity.Normalize(raw)), nil
}

// Preprocess resizes img to size x size with bilinear filtering and maps
// every channel to (v/255 - 0.5) * 2, i.e. [-1, 1].
func Preprocess(img image.Image, size int, layout Layout) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < size; x++ {
			p := row[x*4:]
			r, g, b := scale(p[0]), scale(p[1]), scale(p[2])
			i := y*size + x
			if layout == LayoutNCHW {
				out[i], out[plane+i], out[2*plane+i] = r, g, b
			} else {
				out[3*i], out[3*i+1], out[3*i+2] = r, g, b
			}
		}
	}
	return out
}

func scale(v uint8) float32 {
	return (float32(v)/255 - 0.5) * 2
}
