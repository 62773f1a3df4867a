package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
)

type Dependencies struct {
	FaceService handler.FaceService
	Gallery     handler.GalleryLoader
	// RateLimitMax is requests per minute per client IP
	RateLimitMax int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "facematch API",
		// image refs travel as JSON strings, bodies stay small
		BodyLimit: 64 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var galleryLoader handler.GalleryLoader
	if r.deps != nil {
		galleryLoader = r.deps.Gallery
	}

	healthHandler := handler.NewHealthHandler(galleryLoader)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil || r.deps.FaceService == nil {
		return
	}

	v1 := r.app.Group("/v1")

	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    r.deps.RateLimitMax,
		Window: time.Minute,
	})
	v1.Use(r.rateLimiter.Handler())

	faceHandler := handler.NewFaceHandler(r.deps.FaceService, r.logger)

	v1.Post("/faces/enrol", faceHandler.Enrol)
	v1.Post("/faces/recognize", faceHandler.Recognize)
	v1.Post("/faces/compare", faceHandler.Compare)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	r.stopLimiter()
	return r.app.Shutdown()
}

// ShutdownWithTimeout waits up to timeout for in-flight requests
func (r *Router) ShutdownWithTimeout(timeout time.Duration) error {
	r.stopLimiter()
	return r.app.ShutdownWithTimeout(timeout)
}

// stopLimiter stops the rate limiter cleanup goroutine
func (r *Router) stopLimiter() {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
}
