package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	// Server
	Port         int    `envconfig:"PORT" default:"3000"`
	Environment  string `envconfig:"ENV" default:"development"`
	RateLimitMax int    `envconfig:"RATE_LIMIT_MAX" default:"120"`

	// Matching
	MatchStrategy  string  `envconfig:"MATCH_STRATEGY" default:"embedding"`
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.7"`

	// Detector
	Detector          string `envconfig:"DETECTOR" default:"scrfd"`
	DetectorMode      string `envconfig:"DETECTOR_MODE" default:"accurate"`
	DetectorLandmarks bool   `envconfig:"DETECTOR_LANDMARKS" default:"true"`
	DetectorModelPath string `envconfig:"DETECTOR_MODEL_PATH" default:"models/scrfd_2.5g_kps.onnx"`
	DeepFaceURL       string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	AWSRegion         string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Embedding
	Embedder           string `envconfig:"EMBEDDER" default:"onnx"`
	EmbeddingModelPath string `envconfig:"EMBEDDING_MODEL_PATH" default:"models/face_embedding.onnx"`
	EmbeddingInputSize int    `envconfig:"EMBEDDING_INPUT_SIZE" default:"112"`
	EmbeddingSize      int    `envconfig:"EMBEDDING_SIZE" default:"128"`
	EmbeddingLayout    string `envconfig:"EMBEDDING_LAYOUT" default:"nhwc"`
	ONNXLibraryPath    string `envconfig:"ONNX_LIBRARY_PATH"`

	// Gallery
	GalleryBackend string `envconfig:"GALLERY_BACKEND" default:"file"`
	GalleryPath    string `envconfig:"GALLERY_PATH" default:"data/embeddings.json"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// Acquisition
	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	MaxImageBytes int64         `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations the pipeline cannot start with
func (c *Config) Validate() error {
	if err := oneOf("MATCH_STRATEGY", c.MatchStrategy, "embedding", "landmark"); err != nil {
		return err
	}
	if c.MatchThreshold < -1 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be within [-1, 1], got %v", c.MatchThreshold)
	}
	if err := oneOf("DETECTOR", c.Detector, "scrfd", "pigo", "deepface", "rekognition", "mock"); err != nil {
		return err
	}
	if err := oneOf("DETECTOR_MODE", c.DetectorMode, "fast", "accurate"); err != nil {
		return err
	}
	if err := oneOf("EMBEDDER", c.Embedder, "onnx", "tflite", "mock", "none"); err != nil {
		return err
	}
	if err := oneOf("EMBEDDING_LAYOUT", c.EmbeddingLayout, "nhwc", "nchw"); err != nil {
		return err
	}
	if err := oneOf("GALLERY_BACKEND", c.GalleryBackend, BackendFile, BackendPostgres); err != nil {
		return err
	}

	if c.EmbeddingInputSize <= 0 || c.EmbeddingSize <= 0 {
		return fmt.Errorf("EMBEDDING_INPUT_SIZE and EMBEDDING_SIZE must be positive")
	}
	if c.MaxImageBytes <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES and FETCH_TIMEOUT must be positive")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}

	if c.GalleryBackend == BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres gallery backend")
	}
	if c.GalleryBackend == BackendFile && c.GalleryPath == "" {
		return fmt.Errorf("GALLERY_PATH is required for the file gallery backend")
	}
	if c.MatchStrategy == "embedding" && c.Embedder == "none" {
		return fmt.Errorf("MATCH_STRATEGY=embedding needs an EMBEDDER")
	}

	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q (allowed: %v)", name, value, allowed)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
