package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Version is reported by /health
const Version = "0.1.0"

// GalleryLoader is the part of the gallery store readiness depends on
type GalleryLoader interface {
	LoadAll(ctx context.Context) (*domain.Gallery, error)
}

type HealthHandler struct {
	gallery GalleryLoader
	timeout time.Duration
}

// NewHealthHandler creates the handler. A nil gallery makes /ready always succeed.
func NewHealthHandler(gallery GalleryLoader) *HealthHandler {
	return &HealthHandler{gallery: gallery, timeout: 2 * time.Second}
}

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version,omitempty"`
	Identities *int   `json:"identities,omitempty"`
	Samples    *int   `json:"samples,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// Ready reports whether the gallery store can be read
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.gallery == nil {
		return c.JSON(HealthResponse{Status: "ready"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	g, err := h.gallery.LoadAll(ctx)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "unavailable",
			Error:  domain.ErrStoreIOFailed.Code,
		})
	}

	identities, samples := g.Len(), g.SampleCount()
	return c.JSON(HealthResponse{
		Status:     "ready",
		Identities: &identities,
		Samples:    &samples,
	})
}
