package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // data URI with base64 encoded image
	ModelName        string `json:"model_name"`        // "Facenet512", "VGG-Face", etc
	DetectorBackend  string `json:"detector_backend"`  // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"` // false = empty result instead of 400 when no face
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

// FacialArea is reported in pixels of the uploaded image.
// Eye coordinates are only returned by detector backends that locate them.
type FacialArea struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
	LeftEye  *Point `json:"left_eye,omitempty"`
	RightEye *Point `json:"right_eye,omitempty"`
}

// Point is serialized by DeepFace as a two element array [x, y]
type Point [2]float64
