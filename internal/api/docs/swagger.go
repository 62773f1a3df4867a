package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// EnrolRequest is the body of POST /v1/faces/enrol
type EnrolRequest struct {
	ImageRef string `json:"image_ref" example:"https://cdn.example.com/alice.jpg"`
	PersonID string `json:"person_id" example:"alice"`
}

// EnrolResponse represents a successful enrolment
type EnrolResponse struct {
	PersonID string `json:"person_id" example:"alice"`
	Status   string `json:"status" example:"enrolled"`
}

// RecognizeRequest is the body of POST /v1/faces/recognize
type RecognizeRequest struct {
	ImageRef string `json:"image_ref" example:"/data/probe.jpg"`
}

// RecognizeResponse represents the best gallery match
type RecognizeResponse struct {
	PersonID string  `json:"person_id" example:"alice"`
	Score    float64 `json:"score" example:"0.91"`
	Matched  bool    `json:"matched" example:"true"`
}

// CompareRequest is the body of POST /v1/faces/compare
type CompareRequest struct {
	ImageRefA string `json:"image_ref_a" example:"https://cdn.example.com/a.jpg"`
	ImageRefB string `json:"image_ref_b" example:"https://cdn.example.com/b.jpg"`
}

// CompareResponse represents a pairwise decision
type CompareResponse struct {
	IsMatch  bool    `json:"is_match" example:"true"`
	Score    float64 `json:"score" example:"0.84"`
	Strategy string  `json:"strategy" example:"embedding"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"INVALID_INPUT"`
	Message string `json:"message" example:"Invalid input"`
}

// HealthResponse is returned by /health and /ready
type HealthResponse struct {
	Status     string `json:"status" example:"ready"`
	Version    string `json:"version,omitempty" example:"0.1.0"`
	Identities int    `json:"identities,omitempty" example:"12"`
	Samples    int    `json:"samples,omitempty" example:"30"`
}

var (
	errInvalidInput      = response.New(ErrorResponse{Code: "INVALID_INPUT", Message: "Invalid input"}, "400", "Bad Request")
	errAcquisitionFailed = response.New(ErrorResponse{Code: "IMAGE_ACQUISITION_FAILED", Message: "Could not fetch or decode the image"}, "422", "Unprocessable Entity")
	errNoFace            = response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity")
	errRateLimit         = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errEmbedding         = response.New(ErrorResponse{Code: "EMBEDDING_FAILED", Message: "Could not compute face embedding"}, "500", "Internal Server Error")
	errDetector          = response.New(ErrorResponse{Code: "FACE_DETECTION_FAILED", Message: "Face detector failed"}, "502", "Bad Gateway")
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "facematch API",
		Version:     "v1.0.0",
		Description: "Face enrolment, 1:N recognition and 1:1 comparison over images referenced by URL or path",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/faces/enrol
		endpoint.New(
			endpoint.POST,
			"/v1/faces/enrol",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enrol a face sample"),
			endpoint.WithDescription("Detects the primary face in image_ref, embeds it and appends the embedding to person_id's samples. Existing samples are never replaced."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(EnrolRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrolResponse{}, "201", "Sample enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidInput,
				errAcquisitionFailed,
				errNoFace,
				errRateLimit,
				errEmbedding,
				response.New(ErrorResponse{Code: "STORE_IO_FAILED", Message: "Gallery store read or write failed"}, "500", "Internal Server Error"),
				errDetector,
			}),
		),

		// POST /v1/faces/recognize
		endpoint.New(
			endpoint.POST,
			"/v1/faces/recognize",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Recognize a face against the gallery"),
			endpoint.WithDescription("Returns the enrolled identity with the highest cosine similarity. Below the threshold person_id is \"unknown\" and score is the best seen; over an empty gallery score is -1."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(RecognizeRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidInput,
				errAcquisitionFailed,
				errNoFace,
				errRateLimit,
				errEmbedding,
				errDetector,
			}),
		),

		// POST /v1/faces/compare
		endpoint.New(
			endpoint.POST,
			"/v1/faces/compare",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Compare two faces"),
			endpoint.WithDescription("Scores the primary faces of two images with the configured strategy (embedding or landmark) and applies the match threshold."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(CompareRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CompareResponse{}, "200", "Comparison completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidInput,
				errAcquisitionFailed,
				errNoFace,
				errRateLimit,
				errEmbedding,
				errDetector,
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ok"}, "200", "Process is up"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Loads the gallery store and reports its size"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Gallery store readable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Gallery store unreadable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
