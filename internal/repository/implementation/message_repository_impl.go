package implementation

import (
	"context"
	"time"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/mapper"
	"advisor-command-centre-be/internal/model"
	"advisor-command-centre-be/internal/repository/contract"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	// server-assigned, whatever the caller passed
	m.Id = uuid.Nil
	m.Timestamp = time.Now().UTC()
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Message, error) {
	return r.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.NewestMessagesFirst{},
		specification.Limit{N: limit},
	)
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
