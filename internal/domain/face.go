package domain

// UnknownPerson is the identity reported when no gallery entry reaches the threshold.
const UnknownPerson = "unknown"

// NoMatchScore is reported by recognize when the gallery is empty.
const NoMatchScore = -1.0

// BoundingBox is a face rectangle in integer pixel coordinates of its source image.
// Right and Bottom are exclusive.
type BoundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (b BoundingBox) Width() int  { return b.Right - b.Left }
func (b BoundingBox) Height() int { return b.Bottom - b.Top }

// Valid reports whether the box has a positive area.
func (b BoundingBox) Valid() bool {
	return b.Right > b.Left && b.Bottom > b.Top
}

// Clamp restricts the box to an image of the given size.
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	return BoundingBox{
		Left:   clampInt(b.Left, 0, width),
		Top:    clampInt(b.Top, 0, height),
		Right:  clampInt(b.Right, 0, width),
		Bottom: clampInt(b.Bottom, 0, height),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type LandmarkType string

const (
	LandmarkLeftEye    LandmarkType = "LEFT_EYE"
	LandmarkRightEye   LandmarkType = "RIGHT_EYE"
	LandmarkNoseBase   LandmarkType = "NOSE_BASE"
	LandmarkMouthLeft  LandmarkType = "MOUTH_LEFT"
	LandmarkMouthRight LandmarkType = "MOUTH_RIGHT"
)

// Landmark is a named facial point in the same coordinate space as the bounding box.
type Landmark struct {
	Type LandmarkType `json:"type"`
	X    float64      `json:"x"`
	Y    float64      `json:"y"`
}

// Landmarks is the optional landmark set of a detected face.
type Landmarks []Landmark

// Find returns the first landmark of the given type.
func (l Landmarks) Find(t LandmarkType) (Landmark, bool) {
	for _, lm := range l {
		if lm.Type == t {
			return lm, true
		}
	}
	return Landmark{}, false
}

// DetectedFace is one face reported by a detector.
type DetectedFace struct {
	Box        BoundingBox `json:"box"`
	Landmarks  Landmarks   `json:"landmarks,omitempty"`
	Confidence float64     `json:"confidence"`
}

// Embedding is a fixed-length descriptor of a face, unit L2 norm once extracted.
type Embedding []float32

// FaceSignature is what a similarity strategy compares.
// Embedding is nil when the strategy does not need one.
type FaceSignature struct {
	Box       BoundingBox
	Landmarks Landmarks
	Embedding Embedding
}

// MatchResult is the outcome of recognize.
type MatchResult struct {
	PersonID string  `json:"person_id"`
	Score    float64 `json:"score"`
}

// Matched reports whether a gallery identity was found.
func (m MatchResult) Matched() bool {
	return m.PersonID != UnknownPerson
}

// CompareResult is the outcome of compare.
type CompareResult struct {
	IsMatch  bool    `json:"is_match"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
}
