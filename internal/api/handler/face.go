package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// FaceService interface for the service
type FaceService interface {
	Enrol(ctx context.Context, imageRef, personID string) error
	Recognize(ctx context.Context, imageRef string) (*domain.MatchResult, error)
	Compare(ctx context.Context, refA, refB string) (*domain.CompareResult, error)
}

// FaceHandler handles face-related requests
type FaceHandler struct {
	service FaceService
	logger  *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service FaceService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		logger:  logger.With("component", "face_handler"),
	}
}

// EnrolRequest body for the enrol endpoint
type EnrolRequest struct {
	ImageRef string `json:"image_ref"`
	PersonID string `json:"person_id"`
}

// EnrolResponse response for the enrol endpoint
type EnrolResponse struct {
	PersonID string `json:"person_id"`
	Status   string `json:"status"`
}

// RecognizeRequest body for the recognize endpoint
type RecognizeRequest struct {
	ImageRef string `json:"image_ref"`
}

// RecognizeResponse response for the recognize endpoint
type RecognizeResponse struct {
	PersonID string  `json:"person_id"`
	Score    float64 `json:"score"`
	Matched  bool    `json:"matched"`
}

// CompareRequest body for the compare endpoint
type CompareRequest struct {
	ImageRefA string `json:"image_ref_a"`
	ImageRefB string `json:"image_ref_b"`
}

// CompareResponse response for the compare endpoint
type CompareResponse struct {
	IsMatch  bool    `json:"is_match"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
}

// Enrol POST /v1/faces/enrol - add a sample for a person
func (h *FaceHandler) Enrol(c *fiber.Ctx) error {
	var req EnrolRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	// the store keeps the trimmed id, echo that one
	req.PersonID = strings.TrimSpace(req.PersonID)

	if err := h.service.Enrol(c.UserContext(), req.ImageRef, req.PersonID); err != nil {
		return err
	}

	h.logger.Info("face enrolled",
		"person_id", req.PersonID,
		"request_id", middleware.RequestID(c),
	)

	return c.Status(fiber.StatusCreated).JSON(EnrolResponse{
		PersonID: req.PersonID,
		Status:   "enrolled",
	})
}

// Recognize POST /v1/faces/recognize - 1:N search over the gallery
func (h *FaceHandler) Recognize(c *fiber.Ctx) error {
	var req RecognizeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.Recognize(c.UserContext(), req.ImageRef)
	if err != nil {
		return err
	}

	return c.JSON(RecognizeResponse{
		PersonID: result.PersonID,
		Score:    result.Score,
		Matched:  result.Matched(),
	})
}

// Compare POST /v1/faces/compare - 1:1 check between two images
func (h *FaceHandler) Compare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.Compare(c.UserContext(), req.ImageRefA, req.ImageRefB)
	if err != nil {
		return err
	}

	return c.JSON(CompareResponse{
		IsMatch:  result.IsMatch,
		Score:    result.Score,
		Strategy: result.Strategy,
	})
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		if errors.Is(err, fiber.ErrUnprocessableEntity) {
			return domain.ErrInvalidInput.WithMessage("Content-Type must be application/json")
		}
		return domain.ErrInvalidInput.WithError(err).WithMessage("Malformed request body")
	}
	return nil
}
