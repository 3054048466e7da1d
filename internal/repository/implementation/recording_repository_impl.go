package implementation

import (
	"context"
	"errors"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/mapper"
	"advisor-command-centre-be/internal/model"
	"advisor-command-centre-be/internal/repository/contract"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordingMapper
}

func NewRecordingRepository(db *gorm.DB) contract.RecordingRepository {
	return &RecordingRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordingMapper(),
	}
}

func (r *RecordingRepositoryImpl) Create(ctx context.Context, recording *entity.Recording) error {
	if recording.Status == "" {
		recording.Status = entity.RecordingStatusProcessing
	}
	m := r.mapper.ToModel(recording)
	m.UploadedAt = m.UploadedAt.UTC()
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*recording = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecordingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Recording, error) {
	var m model.Recording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RecordingRepositoryImpl) FindByClient(ctx context.Context, clientId string) ([]*entity.Recording, error) {
	return r.FindAll(ctx,
		specification.ByClientID{ClientID: clientId},
		specification.NewestRecordingsFirst{},
	)
}

func (r *RecordingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Recording, error) {
	var models []*model.Recording
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RecordingRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.RecordingStatus) (*entity.Recording, error) {
	res := r.db.WithContext(ctx).Model(&model.Recording{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *RecordingRepositoryImpl) TransitionFromProcessing(ctx context.Context, id uuid.UUID, status entity.RecordingStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Recording{}).
		Where("id = ? AND status = ?", id, string(entity.RecordingStatusProcessing)).
		Update("status", string(status))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
