package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// Layout is the tensor layout an embedding network expects
type Layout string

const (
	LayoutNHWC Layout = "nhwc"
	LayoutNCHW Layout = "nchw"
)

// EmbedderConfig describes an embedding network
type EmbedderConfig struct {
	ModelPath string
	InputSize int
	Dim       int
	Layout    Layout
}

// Embedder runs a MobileFaceNet or ArcFace style network.
// The session binds fixed input and output tensors, so calls are serialized.
type Embedder struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	inLen   int
	dim     int
}

var _ provider.EmbeddingModel = (*Embedder)(nil)

// NewEmbedder loads the model. The runtime must be initialized first.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if err := ensureInitialized(); err != nil {
		return nil, err
	}

	inputName, outputs, err := ioInfo(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if err := checkOutputDim(outputs[0].Dimensions, cfg.Dim); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ModelPath, err)
	}

	s := int64(cfg.InputSize)
	shape := ort.NewShape(1, s, s, 3)
	if cfg.Layout == LayoutNCHW {
		shape = ort.NewShape(1, 3, s, s)
	}

	input, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Dim)))
	if err != nil {
		_ = input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{inputName},
		[]string{outputs[0].Name},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		_ = input.Destroy()
		_ = output.Destroy()
		return nil, fmt.Errorf("create embedder session: %w", err)
	}

	return &Embedder{
		session: session,
		input:   input,
		output:  output,
		inLen:   int(shape.FlattenedSize()),
		dim:     cfg.Dim,
	}, nil
}

// checkOutputDim compares the per-sample output width with dim. The leading
// batch axis is ignored; a dynamic axis defers the check to inference.
func checkOutputDim(shape ort.Shape, dim int) error {
	axes := shape
	if len(axes) > 1 {
		axes = axes[1:]
	}

	width := int64(1)
	for _, d := range axes {
		if d <= 0 {
			return nil
		}
		width *= d
	}
	if width != int64(dim) {
		return domain.ErrEmbeddingSizeMismatch.WithError(
			fmt.Errorf("model outputs %d values per face, expected %d", width, dim))
	}
	return nil
}

// Infer runs the network and returns a copy of the raw output
func (e *Embedder) Infer(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(input) != e.inLen {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(input), e.inLen)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.input.GetData(), input)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("run embedding: %w", err)
	}

	out := make([]float32, e.dim)
	copy(out, e.output.GetData())
	return out, nil
}

func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for _, destroy := range []func() error{e.session.Destroy, e.input.Destroy, e.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
