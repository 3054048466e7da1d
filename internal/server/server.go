package server

import (
	"context"
	"errors"

	"advisor-command-centre-be/internal/bootstrap"
	"advisor-command-centre-be/internal/config"
	"advisor-command-centre-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// multipartSlack covers form fields and part headers around the file.
const multipartSlack = 1 << 20

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	log := container.Logger

	bodyLimit := int(cfg.Upload.MaxBytes) + multipartSlack

	app := fiber.New(fiber.Config{
		AppName:   "advisor-command-centre",
		BodyLimit: bodyLimit,
		// Uploads are read from the connection as FormFile consumes them.
		StreamRequestBody:            true,
		DisablePreParseMultipartForm: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			// rejected by fasthttp before any handler ran
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusRequestEntityTooLarge {
				err = serverutils.NewTooLarge("File too large")
			}
			return serverutils.WriteError(ctx, log, err)
		},
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))
	app.Use(serverutils.BodyLimitMiddleware(bodyLimit, "File too large"))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.RequestLogMiddleware(log))
	app.Use(serverutils.ErrorHandlerMiddleware(log))

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
	s.container.Logger.Info("SERVER", "Listening", map[string]interface{}{"addr": "http://localhost:" + s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.HealthController.RegisterRoutes(api)
	c.AuthController.RegisterRoutes(api)

	c.MessageController.RegisterRoutes(api)
	c.SettingsController.RegisterRoutes(api)
	c.RecordingController.RegisterRoutes(api)

	c.StatusFeedHandler.RegisterRoutes(api)
}
