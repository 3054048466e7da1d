package contract

import (
	"context"

	"advisor-command-centre-be/internal/entity"

	"github.com/google/uuid"
)

type UserSettingsRepository interface {
	// FindByUser returns (nil, nil) when the user never saved settings.
	FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error)
	// Upsert inserts or overwrites the row keyed on user id and returns the
	// stored row.
	Upsert(ctx context.Context, settings *entity.UserSettings) (*entity.UserSettings, error)
	CountByUser(ctx context.Context, userId uuid.UUID) (int64, error)
}
