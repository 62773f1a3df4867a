// Package localizer finds the face to work on inside a decoded image.
package localizer

import (
	"context"
	"image"
	"image/draw"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// SelectionPolicy picks the primary face among usable detections
type SelectionPolicy string

const (
	// SelectFirst keeps detector order
	SelectFirst SelectionPolicy = "first"
	// SelectLargest picks the face with the largest clamped area
	SelectLargest SelectionPolicy = "largest"
)

type Localizer struct {
	detector provider.FaceDetector
	policy   SelectionPolicy
}

func New(detector provider.FaceDetector, policy SelectionPolicy) *Localizer {
	if policy == "" {
		policy = SelectFirst
	}
	return &Localizer{detector: detector, policy: policy}
}

// Locate runs the detector and returns every face whose box is still
// non-empty after clamping to the image, in detector order.
func (l *Localizer) Locate(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	faces, err := l.detector.Detect(ctx, img)
	if err != nil {
		return nil, domain.ErrFaceDetectionFailed.WithError(err)
	}

	b := img.Bounds()
	usable := make([]domain.DetectedFace, 0, len(faces))
	for _, f := range faces {
		// boxes are clamped in image-relative coordinates then shifted back
		rel := domain.BoundingBox{
			Left:   f.Box.Left - b.Min.X,
			Top:    f.Box.Top - b.Min.Y,
			Right:  f.Box.Right - b.Min.X,
			Bottom: f.Box.Bottom - b.Min.Y,
		}.Clamp(b.Dx(), b.Dy())
		if !rel.Valid() {
			continue
		}
		f.Box = domain.BoundingBox{
			Left:   rel.Left + b.Min.X,
			Top:    rel.Top + b.Min.Y,
			Right:  rel.Right + b.Min.X,
			Bottom: rel.Bottom + b.Min.Y,
		}
		usable = append(usable, f)
	}

	if len(usable) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	return usable, nil
}

// Primary returns the face selected by the configured policy
func (l *Localizer) Primary(ctx context.Context, img image.Image) (domain.DetectedFace, error) {
	faces, err := l.Locate(ctx, img)
	if err != nil {
		return domain.DetectedFace{}, err
	}

	best := faces[0]
	if l.policy == SelectLargest {
		for _, f := range faces[1:] {
			if area(f.Box) > area(best.Box) {
				best = f
			}
		}
	}
	return best, nil
}

func area(b domain.BoundingBox) int {
	return b.Width() * b.Height()
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the region of img inside box. The box must already be clamped.
func Crop(img image.Image, box domain.BoundingBox) image.Image {
	r := image.Rect(box.Left, box.Top, box.Right, box.Bottom)
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
