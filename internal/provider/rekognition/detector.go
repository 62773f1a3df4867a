package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

var landmarkTypes = map[types.LandmarkType]domain.LandmarkType{
	types.LandmarkTypeEyeLeft:    domain.LandmarkLeftEye,
	types.LandmarkTypeEyeRight:   domain.LandmarkRightEye,
	types.LandmarkTypeNose:       domain.LandmarkNoseBase,
	types.LandmarkTypeMouthLeft:  domain.LandmarkMouthLeft,
	types.LandmarkTypeMouthRight: domain.LandmarkMouthRight,
}

// Detector implements provider.FaceDetector using the Rekognition DetectFaces API
type Detector struct {
	api       API
	cfg       Config
	landmarks bool
}

// Ensure Detector implements provider.FaceDetector interface at compile time
var _ provider.FaceDetector = (*Detector)(nil)

// NewDetector creates a detector backed by a real Rekognition client
func NewDetector(ctx context.Context, cfg Config, opts provider.DetectorOptions) (*Detector, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewDetectorWithAPI(client, cfg, opts), nil
}

// NewDetectorWithAPI creates a detector over any API implementation
func NewDetectorWithAPI(api API, cfg Config, opts provider.DetectorOptions) *Detector {
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = DefaultConfig().JPEGQuality
	}
	return &Detector{api: api, cfg: cfg, landmarks: opts.Landmarks}
}

// Detect uploads a JPEG rendition of img and converts the ratio-based
// results back to pixel coordinates. No faces is not an error.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.cfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	if buf.Len() > maxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, buf.Len())
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: buf.Bytes()},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", parseAPIError(err))
	}

	bounds := img.Bounds()
	faces := make([]domain.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		confidence := float32Value(detail.Confidence)
		if confidence < d.cfg.MinConfidence {
			continue
		}

		face := domain.DetectedFace{
			Box:        toPixelBox(detail.BoundingBox, bounds),
			Confidence: float64(confidence) / 100,
		}
		if d.landmarks {
			face.Landmarks = toLandmarks(detail.Landmarks, bounds)
		}
		faces = append(faces, face)
	}

	return faces, nil
}

func toPixelBox(bb *types.BoundingBox, bounds image.Rectangle) domain.BoundingBox {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	left := float64(float32Value(bb.Left)) * w
	top := float64(float32Value(bb.Top)) * h

	return domain.BoundingBox{
		Left:   bounds.Min.X + int(math.Round(left)),
		Top:    bounds.Min.Y + int(math.Round(top)),
		Right:  bounds.Min.X + int(math.Round(left+float64(float32Value(bb.Width))*w)),
		Bottom: bounds.Min.Y + int(math.Round(top+float64(float32Value(bb.Height))*h)),
	}
}

func toLandmarks(in []types.Landmark, bounds image.Rectangle) domain.Landmarks {
	out := make(domain.Landmarks, 0, len(landmarkTypes))
	for _, lm := range in {
		t, ok := landmarkTypes[lm.Type]
		if !ok || lm.X == nil || lm.Y == nil {
			continue
		}
		out = append(out, domain.Landmark{
			Type: t,
			X:    float64(bounds.Min.X) + float64(*lm.X)*float64(bounds.Dx()),
			Y:    float64(bounds.Min.Y) + float64(*lm.Y)*float64(bounds.Dy()),
		})
	}
	return out
}

func float32Value(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}
