package face

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/onnx"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/pigo"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/rekognition"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider/tflite"
)

// DetectorType defines supported face detectors
type DetectorType string

const (
	// DetectorSCRFD runs insightface SCRFD locally through ONNX Runtime (boxes + 5 keypoints)
	DetectorSCRFD DetectorType = "scrfd"
	// DetectorPigo is the pure Go cascade detector (boxes only)
	DetectorPigo DetectorType = "pigo"
	// DetectorDeepFace calls a DeepFace HTTP service
	DetectorDeepFace DetectorType = "deepface"
	// DetectorRekognition calls AWS Rekognition DetectFaces
	DetectorRekognition DetectorType = "rekognition"
	// DetectorMock is deterministic, for dev/test
	DetectorMock DetectorType = "mock"
)

// EmbedderType defines supported embedding runtimes
type EmbedderType string

const (
	EmbedderONNX   EmbedderType = "onnx"
	EmbedderTFLite EmbedderType = "tflite"
	EmbedderMock   EmbedderType = "mock"
	// EmbedderNone leaves the pipeline without a model; only landmark compare works
	EmbedderNone EmbedderType = "none"
)

// Providers bundles the configured detector and embedding model
type Providers struct {
	Detector provider.FaceDetector
	// Model is nil when EMBEDDER=none
	Model provider.EmbeddingModel

	closers []func() error
}

// NewProviders creates the detector and embedding model described by cfg.
//
// Environment variables:
//   - DETECTOR: scrfd, pigo, deepface, rekognition or mock (default: "scrfd")
//   - DETECTOR_MODEL_PATH: SCRFD onnx file or pigo cascade file
//   - EMBEDDER: onnx, tflite, mock or none (default: "onnx")
//   - ONNX_LIBRARY_PATH: onnxruntime shared library, when a component uses ONNX
//   - DEEPFACE_URL: DeepFace API URL
//   - AWS_REGION: AWS region for Rekognition (credentials via the AWS SDK chain)
func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	p := &Providers{}

	if usesONNX(cfg) {
		if err := onnx.Initialize(cfg.ONNXLibraryPath); err != nil {
			return nil, err
		}
		p.closers = append(p.closers, onnx.Shutdown)
	}

	detector, err := NewDetector(ctx, cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Detector = detector
	if c, ok := detector.(io.Closer); ok {
		p.closers = append([]func() error{c.Close}, p.closers...)
	}

	model, err := NewEmbeddingModel(cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if model != nil {
		p.Model = model
		p.closers = append([]func() error{model.Close}, p.closers...)
	}

	return p, nil
}

// Close releases models in reverse creation order
func (p *Providers) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// NewDetector creates the configured face detector. ONNX Runtime must
// already be initialized for scrfd.
func NewDetector(ctx context.Context, cfg *config.Config) (provider.FaceDetector, error) {
	opts := provider.DetectorOptions{
		Mode:      provider.PerformanceMode(cfg.DetectorMode),
		Landmarks: cfg.DetectorLandmarks,
	}

	switch DetectorType(cfg.Detector) {
	case DetectorSCRFD:
		d, err := onnx.NewSCRFD(onnx.DefaultSCRFDConfig(cfg.DetectorModelPath), opts)
		if err != nil {
			return nil, fmt.Errorf("create scrfd detector: %w", err)
		}
		return d, nil

	case DetectorPigo:
		d, err := pigo.NewDetector(pigo.DefaultConfig(cfg.DetectorModelPath), opts)
		if err != nil {
			return nil, fmt.Errorf("create pigo detector: %w", err)
		}
		return d, nil

	case DetectorDeepFace:
		return createDeepFaceDetector(cfg, opts), nil

	case DetectorRekognition:
		rekogConfig := rekognition.DefaultConfig()
		if cfg.AWSRegion != "" {
			rekogConfig.Region = cfg.AWSRegion
		}
		d, err := rekognition.NewDetector(ctx, rekogConfig, opts)
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		return d, nil

	case DetectorMock:
		return mock.NewDetector(opts), nil

	default:
		return nil, fmt.Errorf("unknown detector type: %s (supported: %s, %s, %s, %s, %s)",
			cfg.Detector, DetectorSCRFD, DetectorPigo, DetectorDeepFace, DetectorRekognition, DetectorMock)
	}
}

// NewEmbeddingModel creates the configured embedding model, or nil for EMBEDDER=none
func NewEmbeddingModel(cfg *config.Config) (provider.EmbeddingModel, error) {
	switch EmbedderType(cfg.Embedder) {
	case EmbedderONNX:
		m, err := onnx.NewEmbedder(onnx.EmbedderConfig{
			ModelPath: cfg.EmbeddingModelPath,
			InputSize: cfg.EmbeddingInputSize,
			Dim:       cfg.EmbeddingSize,
			Layout:    onnx.Layout(cfg.EmbeddingLayout),
		})
		if err != nil {
			return nil, fmt.Errorf("create onnx embedder: %w", err)
		}
		return m, nil

	case EmbedderTFLite:
		m, err := tflite.NewEmbedder(tflite.Config{ModelPath: cfg.EmbeddingModelPath, Threads: 4})
		if err != nil {
			return nil, fmt.Errorf("create tflite embedder: %w", err)
		}
		return m, nil

	case EmbedderMock:
		return mock.NewModel(cfg.EmbeddingSize), nil

	case EmbedderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown embedder type: %s (supported: %s, %s, %s, %s)",
			cfg.Embedder, EmbedderONNX, EmbedderTFLite, EmbedderMock, EmbedderNone)
	}
}

func usesONNX(cfg *config.Config) bool {
	return DetectorType(cfg.Detector) == DetectorSCRFD || EmbedderType(cfg.Embedder) == EmbedderONNX
}

// createDeepFaceDetector creates a DeepFace detector instance
func createDeepFaceDetector(cfg *config.Config, opts provider.DetectorOptions) provider.FaceDetector {
	deepfaceConfig := deepface.DefaultConfig()

	// Use defaults for other fields (timeout, model, detector, retry)
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}

	return deepface.NewDetector(deepfaceConfig, opts)
}
