package implementation

import (
	"context"
	"errors"
	"time"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/mapper"
	"advisor-command-centre-be/internal/model"
	"advisor-command-centre-be/internal/repository/contract"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns overwritten when a settings row for the user already exists.
var settingsUpsertColumns = []string{"calendar_connected", "recording_rule", "exclusions", "updated_at"}

type UserSettingsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserSettingsMapper
}

func NewUserSettingsRepository(db *gorm.DB) contract.UserSettingsRepository {
	return &UserSettingsRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserSettingsMapper(),
	}
}

func (r *UserSettingsRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) (*entity.UserSettings, error) {
	var m model.UserSettings
	query := applySpecifications(r.db.WithContext(ctx), specification.UserOwnedBy{UserID: userId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UserSettingsRepositoryImpl) Upsert(ctx context.Context, settings *entity.UserSettings) (*entity.UserSettings, error) {
	m := r.mapper.ToModel(settings)
	m.Id = uuid.Nil
	m.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(settingsUpsertColumns),
	}).Create(m).Error
	if err != nil {
		return nil, err
	}

	// On conflict the generated id is not the stored one, so read it back.
	return r.FindByUser(ctx, settings.UserId)
}

func (r *UserSettingsRepositoryImpl) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserSettings{}).
		Where("user_id = ?", userId).
		Count(&count).Error
	return count, err
}
