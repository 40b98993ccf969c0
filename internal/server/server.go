package server

import (
	"log"

	"posemarket-be/internal/bootstrap"
	"posemarket-be/internal/config"
	"posemarket-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Initialize Fiber App. Body limit sized for JPEG frame batches and
	// pose payloads.
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Stored artifacts (videos, pose JSON) are served straight off disk.
	app.Static("/uploads", cfg.Blob.Dir)

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	// Liveness plus whether the pose model has been warmed up. Capture
	// sessions trigger the warmup lazily, so detector_ready false is
	// normal until the first recording.
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"status":         "ok",
			"detector_ready": c.PoseLoader.Ready(),
		})
	})

	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.TaskController.RegisterRoutes(api)
	c.SubmissionController.RegisterRoutes(api)
	c.WalletController.RegisterRoutes(api)

	c.CaptureHandler.RegisterRoutes(api)
	c.WatchHandler.RegisterRoutes(api)
}
