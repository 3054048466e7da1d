package controller

import (
	"strconv"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	GetMessages(ctx *fiber.Ctx) error
	CreateMessage(ctx *fiber.Ctx) error
}

type messageController struct {
	service   service.IMessageService
	principal fiber.Handler
	limiter   fiber.Handler
}

func NewMessageController(service service.IMessageService, principal, limiter fiber.Handler) IMessageController {
	return &messageController{
		service:   service,
		principal: principal,
		limiter:   limiter,
	}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/messages", c.principal)
	h.Get("", c.GetMessages)
	h.Post("", c.limiter, c.CreateMessage)
}

func (c *messageController) GetMessages(ctx *fiber.Ctx) error {
	userId, err := principal(ctx)
	if err != nil {
		return err
	}

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return serverutils.NewBadRequest("Invalid limit", err)
		}
	}

	res, err := c.service.GetMessages(ctx.UserContext(), userId, limit)
	if err != nil {
		return failWith(err, "Failed to fetch messages")
	}
	return ctx.JSON(res)
}

func (c *messageController) CreateMessage(ctx *fiber.Ctx) error {
	userId, err := principal(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid message data", err)
	}

	res, err := c.service.CreateMessage(ctx.UserContext(), userId, &req)
	if err != nil {
		return failWith(err, "Failed to create message")
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}
