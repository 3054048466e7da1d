package controller

import (
	"context"
	"time"

	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
)

const healthPingTimeout = 2 * time.Second

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewHealthController(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IHealthController {
	return &healthController{uowFactory: uowFactory, logger: log}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), healthPingTimeout)
	defer cancel()

	if err := c.uowFactory.Ping(pingCtx); err != nil {
		c.logger.Warn("HEALTH", "Database ping failed", map[string]interface{}{"error": err})
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return ctx.JSON(fiber.Map{"status": "ok", "database": "ok"})
}
