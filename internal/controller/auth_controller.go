package controller

import (
	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
}

type authController struct {
	service   service.IAuthService
	principal fiber.Handler
}

func NewAuthController(service service.IAuthService, principal fiber.Handler) IAuthController {
	return &authController{service: service, principal: principal}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Get("/me", c.principal, c.Me)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid registration data", err)
	}

	res, err := c.service.Register(ctx.UserContext(), &req)
	if err != nil {
		return failWith(err, "Failed to register")
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid login data", err)
	}

	res, err := c.service.Login(ctx.UserContext(), &req)
	if err != nil {
		return failWith(err, "Failed to log in")
	}
	return ctx.JSON(res)
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	userId, err := principal(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Me(ctx.UserContext(), userId)
	if err != nil {
		return failWith(err, "Failed to fetch user")
	}
	return ctx.JSON(res)
}
