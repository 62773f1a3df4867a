package onnx

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

var scrfdStrides = []int{8, 16, 32}

const scrfdAnchors = 2

// SCRFDConfig configures the SCRFD detector
type SCRFDConfig struct {
	ModelPath     string
	ConfThreshold float32
	NMSThreshold  float32
}

// DefaultSCRFDConfig returns the thresholds insightface ships with
func DefaultSCRFDConfig(modelPath string) SCRFDConfig {
	return SCRFDConfig{
		ModelPath:     modelPath,
		ConfThreshold: 0.5,
		NMSThreshold:  0.4,
	}
}

// SCRFD implements provider.FaceDetector with the insightface SCRFD model
// (bounding boxes plus five keypoints).
type SCRFD struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	inputSize int
	conf      float32
	nms       float32
	landmarks bool
}

var _ provider.FaceDetector = (*SCRFD)(nil)

// NewSCRFD loads the detector. Fast mode runs at 320x320, accurate at 640x640.
func NewSCRFD(cfg SCRFDConfig, opts provider.DetectorOptions) (*SCRFD, error) {
	if err := ensureInitialized(); err != nil {
		return nil, err
	}

	inputName, outputNames, err := ioNames(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	if len(outputNames) != 9 {
		return nil, fmt.Errorf("%w: scrfd with keypoints has 9 outputs, got %d", ErrUnexpectedModel, len(outputNames))
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{inputName}, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("create scrfd session: %w", err)
	}

	size := 640
	if opts.Mode == provider.ModeFast {
		size = 320
	}

	return &SCRFD{
		session:   session,
		inputSize: size,
		conf:      cfg.ConfThreshold,
		nms:       cfg.NMSThreshold,
		landmarks: opts.Landmarks,
	}, nil
}

func (s *SCRFD) Detect(ctx context.Context, img image.Image) ([]domain.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, scale := letterbox(img, s.inputSize)
	size := int64(s.inputSize)

	input, err := ort.NewTensor(ort.NewShape(1, 3, size, size), blob)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := make([]ort.Value, 9)

	s.mu.Lock()
	err = s.session.Run([]ort.Value{input}, outputs)
	s.mu.Unlock()

	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()
	if err != nil {
		return nil, fmt.Errorf("scrfd inference: %w", err)
	}

	var levels [9][]float32
	for i, o := range outputs {
		t, ok := o.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("%w: output %d is not float32", ErrUnexpectedModel, i)
		}
		levels[i] = t.GetData()
	}

	candidates := decodeSCRFD(levels, s.inputSize, scale, s.conf)
	kept := nonMaxSuppression(candidates, s.nms)

	origin := img.Bounds().Min
	faces := make([]domain.DetectedFace, 0, len(kept))
	for _, c := range kept {
		faces = append(faces, c.toDomain(origin, s.landmarks))
	}
	return faces, nil
}

func (s *SCRFD) Close() error {
	return s.session.Destroy()
}

// letterbox scales img to fit size x size keeping aspect ratio, pads bottom
// and right with black, and returns the planar RGB blob normalized with
// (v - 127.5) / 128 along with the applied scale.
func letterbox(img image.Image, size int) ([]float32, float32) {
	b := img.Bounds()
	scale := float32(size) / float32(max(b.Dx(), b.Dy()))
	w := int(float32(b.Dx()) * scale)
	h := int(float32(b.Dy()) * scale)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(canvas, image.Rect(0, 0, w, h), img, b, draw.Src, nil)

	plane := size * size
	blob := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < size; x++ {
			p := row[x*4:]
			i := y*size + x
			blob[i] = (float32(p[0]) - 127.5) / 128
			blob[plane+i] = (float32(p[1]) - 127.5) / 128
			blob[2*plane+i] = (float32(p[2]) - 127.5) / 128
		}
	}
	return blob, scale
}

type candidate struct {
	x1, y1, x2, y2 float32
	kps            [10]float32
	score          float32
}

func (c candidate) area() float32 {
	return (c.x2 - c.x1) * (c.y2 - c.y1)
}

var keypointTypes = [5]domain.LandmarkType{
	domain.LandmarkLeftEye,
	domain.LandmarkRightEye,
	domain.LandmarkNoseBase,
	domain.LandmarkMouthLeft,
	domain.LandmarkMouthRight,
}

func (c candidate) toDomain(origin image.Point, withLandmarks bool) domain.DetectedFace {
	face := domain.DetectedFace{
		Box: domain.BoundingBox{
			Left:   origin.X + int(math.Floor(float64(c.x1))),
			Top:    origin.Y + int(math.Floor(float64(c.y1))),
			Right:  origin.X + int(math.Ceil(float64(c.x2))),
			Bottom: origin.Y + int(math.Ceil(float64(c.y2))),
		},
		Confidence: float64(c.score),
	}
	if withLandmarks {
		face.Landmarks = make(domain.Landmarks, 0, len(keypointTypes))
		for i, t := range keypointTypes {
			face.Landmarks = append(face.Landmarks, domain.Landmark{
				Type: t,
				X:    float64(origin.X) + float64(c.kps[2*i]),
				Y:    float64(origin.Y) + float64(c.kps[2*i+1]),
			})
		}
	}
	return face
}

// decodeSCRFD turns the nine raw outputs (scores, boxes, keypoints for
// strides 8, 16, 32) into candidates in source image pixels.
// Scores are already sigmoid-activated in the exported model.
func decodeSCRFD(out [9][]float32, inputSize int, scale, threshold float32) []candidate {
	var cands []candidate

	for level, stride := range scrfdStrides {
		scores, boxes, kps := out[level], out[level+3], out[level+6]
		fm := inputSize / stride
		st := float32(stride)

		idx := 0
		for y := 0; y < fm; y++ {
			for x := 0; x < fm; x++ {
				for a := 0; a < scrfdAnchors; a++ {
					if idx >= len(scores) {
						break
					}
					score := scores[idx]
					if score >= threshold && (idx+1)*4 <= len(boxes) && (idx+1)*10 <= len(kps) {
						cx := float32(x) * st
						cy := float32(y) * st
						bb := boxes[idx*4:]
						c := candidate{
							x1:    (cx - bb[0]*st) / scale,
							y1:    (cy - bb[1]*st) / scale,
							x2:    (cx + bb[2]*st) / scale,
							y2:    (cy + bb[3]*st) / scale,
							score: score,
						}
						kp := kps[idx*10:]
						for k := 0; k < 5; k++ {
							c.kps[2*k] = (cx + kp[2*k]*st) / scale
							c.kps[2*k+1] = (cy + kp[2*k+1]*st) / scale
						}
						cands = append(cands, c)
					}
					idx++
				}
			}
		}
	}

	return cands
}
