package contract

import (
	"context"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Create assigns id and timestamp.
	Create(ctx context.Context, message *entity.Message) error
	// FindByUser returns the user's messages newest first; limit <= 0 returns all.
	FindByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
}
