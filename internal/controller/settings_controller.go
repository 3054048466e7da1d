package controller

import (
	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISettingsController interface {
	RegisterRoutes(r fiber.Router)
	GetSettings(ctx *fiber.Ctx) error
	UpsertSettings(ctx *fiber.Ctx) error
}

type settingsController struct {
	service   service.ISettingsService
	principal fiber.Handler
}

func NewSettingsController(service service.ISettingsService, principal fiber.Handler) ISettingsController {
	return &settingsController{service: service, principal: principal}
}

func (c *settingsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/settings", c.principal)
	h.Get("", c.GetSettings)
	h.Put("", c.UpsertSettings)
}

func (c *settingsController) GetSettings(ctx *fiber.Ctx) error {
	userId, err := principal(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSettings(ctx.UserContext(), userId)
	if err != nil {
		return failWith(err, "Failed to fetch settings")
	}
	return ctx.JSON(res)
}

func (c *settingsController) UpsertSettings(ctx *fiber.Ctx) error {
	userId, err := principal(ctx)
	if err != nil {
		return err
	}

	var req dto.UpsertSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid settings data", err)
	}

	res, err := c.service.UpsertSettings(ctx.UserContext(), userId, &req)
	if err != nil {
		return failWith(err, "Failed to save settings")
	}
	return ctx.JSON(res)
}
