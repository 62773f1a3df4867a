//go:build tflite

package tflite

import (
	"context"
	"fmt"
	"sync"

	"github.com/mattn/go-tflite"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// Embedder runs a TFLite embedding network.
// The interpreter is not reentrant, so calls are serialized.
type Embedder struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	inLen       int
}

var _ provider.EmbeddingModel = (*Embedder)(nil)

// NewEmbedder loads the model and allocates its tensors
func NewEmbedder(cfg Config) (*Embedder, error) {
	model := tflite.NewModelFromFile(cfg.ModelPath)
	if model == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadModel, cfg.ModelPath)
	}

	options := tflite.NewInterpreterOptions()
	threads := cfg.Threads
	if threads <= 0 {
		threads = 2
	}
	options.SetNumThread(threads)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("%w: create interpreter", ErrLoadModel)
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("%w: allocate tensors", ErrLoadModel)
	}

	in := interpreter.GetInputTensor(0)
	n := 1
	for i := 0; i < in.NumDims(); i++ {
		n *= in.Dim(i)
	}

	return &Embedder{
		model:       model,
		options:     options,
		interpreter: interpreter,
		inLen:       n,
	}, nil
}

func (e *Embedder) Infer(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(input) != e.inLen {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(input), e.inLen)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.interpreter.GetInputTensor(0).Float32s(), input)
	if status := e.interpreter.Invoke(); status != tflite.OK {
		return nil, ErrInvoke
	}

	output := e.interpreter.GetOutputTensor(0)
	raw := output.Float32s()
	out := make([]float32, len(raw))
	copy(out, raw)
	return out, nil
}

func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.interpreter.Delete()
	e.options.Delete()
	e.model.Delete()
	return nil
}
