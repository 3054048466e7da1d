package controller

import (
	"advisor-command-centre-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// failWith keeps expected failures as they are and hides anything else
// behind the endpoint's generic message.
func failWith(err error, message string) error {
	if _, ok := serverutils.AsAppError(err); ok {
		return err
	}
	return serverutils.NewInternal(message, err)
}

func principal(ctx *fiber.Ctx) (uuid.UUID, error) {
	userId, ok := serverutils.CurrentUserID(ctx)
	if !ok {
		return uuid.Nil, serverutils.NewUnauthorized("Unauthorized")
	}
	return userId, nil
}
