package serverutils

import (
	"errors"
	"time"

	"advisor-command-centre-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into
// {"error": ...} responses. Causes are logged, never sent to the client.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, log, err)
	}
}

// WriteError renders err. Also used as fiber.Config.ErrorHandler.
func WriteError(ctx *fiber.Ctx, log logger.ILogger, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := AsAppError(err); ok {
		code = appErr.Code
		message = appErr.Message
	} else {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}
	}

	details := map[string]interface{}{
		"method": ctx.Method(),
		"path":   ctx.Path(),
		"status": code,
		"error":  err,
	}
	if code >= fiber.StatusInternalServerError {
		log.Error("HTTP", message, details)
	} else {
		log.Debug("HTTP", message, details)
	}

	return ctx.Status(code).JSON(ErrorResponse(message))
}

// RequestLogMiddleware logs one line per request.
func RequestLogMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		details := map[string]interface{}{
			"method":     ctx.Method(),
			"path":       ctx.Path(),
			"status":     ctx.Response().StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         ctx.IP(),
		}
		if userID, ok := CurrentUserID(ctx); ok {
			details["user_id"] = userID.String()
		}
		log.Info("HTTP", "request", details)
		return err
	}
}

// BodyLimitMiddleware rejects requests whose declared Content-Length is
// above limit before the body is read. It is needed because
// StreamRequestBody turns off fasthttp's own limit. The connection is
// closed since the unread body is still on the wire.
func BodyLimitMiddleware(limit int, message string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if n := ctx.Request().Header.ContentLength(); limit > 0 && n > limit {
			ctx.Context().SetConnectionClose()
			return NewTooLarge(message)
		}
		return ctx.Next()
	}
}
