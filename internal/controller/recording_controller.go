package controller

import (
	"mime/multipart"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRecordingController interface {
	RegisterRoutes(r fiber.Router)
	GetByClient(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
}

type recordingController struct {
	service   service.IRecordingService
	principal fiber.Handler
	limiter   fiber.Handler
}

func NewRecordingController(service service.IRecordingService, principal, limiter fiber.Handler) IRecordingController {
	return &recordingController{
		service:   service,
		principal: principal,
		limiter:   limiter,
	}
}

func (c *recordingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/recordings", c.principal)
	h.Get("/:clientId", c.GetByClient)
	h.Post("", c.limiter, c.Upload)
	h.Patch("/:id/status", c.UpdateStatus)
}

func (c *recordingController) GetByClient(ctx *fiber.Ctx) error {
	res, err := c.service.GetByClient(ctx.UserContext(), ctx.Params("clientId"))
	if err != nil {
		return failWith(err, "Failed to fetch recordings")
	}
	return ctx.JSON(res)
}

func (c *recordingController) Upload(ctx *fiber.Ctx) error {
	userId, err := principal(ctx)
	if err != nil {
		return err
	}

	// a missing or unreadable part is reported by the service as "No file uploaded"
	var file *multipart.FileHeader
	if fh, err := ctx.FormFile("file"); err == nil {
		file = fh
	}

	req := dto.UploadRecordingRequest{
		ClientId:    ctx.FormValue("clientId"),
		MeetingDate: ctx.FormValue("meetingDate"),
		MeetingType: ctx.FormValue("meetingType"),
	}

	res, err := c.service.Upload(ctx.UserContext(), userId, &req, file)
	if err != nil {
		return failWith(err, "Failed to upload recording")
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *recordingController) UpdateStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateRecordingStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequest("Invalid status", err)
	}

	res, err := c.service.UpdateStatus(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return failWith(err, "Failed to update recording status")
	}
	return ctx.JSON(res)
}
