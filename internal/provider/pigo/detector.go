package pigo

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// Config configures the pixel-intensity cascade detector
type Config struct {
	CascadePath string
	MinSize     int
	MaxSize     int
	// MinQuality drops detections scoring below it
	MinQuality float32
	IoU        float64
}

func DefaultConfig(cascadePath string) Config {
	return Config{
		CascadePath: cascadePath,
		MinSize:     20,
		MaxSize:     1000,
		MinQuality:  5,
		IoU:         0.2,
	}
}

// Detector is a pure Go face detector. It reports boxes only, so the
// landmark comparison strategy cannot score its faces.
type Detector struct {
	classifier *pigo.Pigo
	cfg        Config
	shift      float64
	scale      float64
}

var _ provider.FaceDetector = (*Detector)(nil)

// NewDetector reads and unpacks the cascade file
func NewDetector(cfg Config, opts provider.DetectorOptions) (*Detector, error) {
	cascade, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}
	return NewDetectorFromCascade(cascade, cfg, opts)
}

// NewDetectorFromCascade builds a detector from cascade bytes
func NewDetectorFromCascade(cascade []byte, cfg Config, opts provider.DetectorOptions) (*Detector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	d := &Detector{classifier: classifier, cfg: cfg, shift: 0.1, scale: 1.1}
	if opts.Mode == provider.ModeFast {
		d.shift, d.scale = 0.15, 1.2
	}
	return d, nil
}

// Detect runs the cascade and returns clustered detections in descending quality
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := pigo.ImgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinSize,
		MaxSize:     d.cfg.MaxSize,
		ShiftFactor: d.shift,
		ScaleFactor: d.scale,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.cfg.IoU)

	return toFaces(dets, d.cfg.MinQuality, img.Bounds().Min), nil
}

func toFaces(dets []pigo.Detection, minQuality float32, origin image.Point) []domain.DetectedFace {
	faces := make([]domain.DetectedFace, 0, len(dets))
	for _, det := range dets {
		if det.Q < minQuality {
			continue
		}
		half := det.Scale / 2
		faces = append(faces, domain.DetectedFace{
			Box: domain.BoundingBox{
				Left:   origin.X + det.Col - half,
				Top:    origin.Y + det.Row - half,
				Right:  origin.X + det.Col + half,
				Bottom: origin.Y + det.Row + half,
			},
			Confidence: qualityToConfidence(det.Q),
		})
	}
	sortByQuality(faces)
	return faces
}

// qualityToConfidence squashes the unbounded cascade score into [0, 1)
func qualityToConfidence(q float32) float64 {
	if q <= 0 {
		return 0
	}
	return float64(q) / (float64(q) + 10)
}

func sortByQuality(faces []domain.DetectedFace) {
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Confidence > faces[j].Confidence
	})
}
