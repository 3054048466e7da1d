package contract

import (
	"context"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
)

// UserRepository lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
}
