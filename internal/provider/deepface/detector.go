package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// Detector implements provider.FaceDetector using the DeepFace API.
// DeepFace reports eye positions for some backends but never the nose,
// so landmark similarity over its faces scores 0.
type Detector struct {
	client    *Client
	landmarks bool
}

var _ provider.FaceDetector = (*Detector)(nil)

// NewDetector creates a new DeepFace detector
func NewDetector(config Config, opts provider.DetectorOptions) *Detector {
	if opts.Mode == provider.ModeFast && config.Detector == DefaultConfig().Detector {
		config.Detector = "opencv"
	}
	return &Detector{
		client:    NewClient(config),
		landmarks: opts.Landmarks,
	}
}

// Detect encodes img as JPEG and returns the faces DeepFace found, in its order
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	resp, err := d.client.Represent(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	origin := img.Bounds().Min
	faces := make([]domain.DetectedFace, 0, len(resp.Results))
	for _, r := range resp.Results {
		area := r.FacialArea
		// enforce_detection=false returns the whole image with confidence 0 when nothing is found
		if r.FaceConfidence <= 0 {
			continue
		}

		face := domain.DetectedFace{
			Box: domain.BoundingBox{
				Left:   origin.X + area.X,
				Top:    origin.Y + area.Y,
				Right:  origin.X + area.X + area.W,
				Bottom: origin.Y + area.Y + area.H,
			},
			Confidence: r.FaceConfidence,
		}
		if d.landmarks {
			face.Landmarks = eyeLandmarks(area, origin)
		}
		faces = append(faces, face)
	}

	return faces, nil
}

func eyeLandmarks(area FacialArea, origin image.Point) domain.Landmarks {
	var out domain.Landmarks
	if area.LeftEye != nil {
		out = append(out, domain.Landmark{
			Type: domain.LandmarkLeftEye,
			X:    float64(origin.X) + area.LeftEye[0],
			Y:    float64(origin.Y) + area.LeftEye[1],
		})
	}
	if area.RightEye != nil {
		out = append(out, domain.Landmark{
			Type: domain.LandmarkRightEye,
			X:    float64(origin.X) + area.RightEye[0],
			Y:    float64(origin.Y) + area.RightEye[1],
		})
	}
	return out
}
