package service

import (
	"context"
	"fmt"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/pkg/events"

	"github.com/google/uuid"
)

type IMessageService interface {
	// GetMessages returns the user's log newest first. limit <= 0 means all.
	GetMessages(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.MessageResponse, error)
	CreateMessage(ctx context.Context, userId uuid.UUID, req *dto.CreateMessageRequest) (*dto.MessageResponse, error)
}

type messageService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IEventPublisher
	logger     logger.ILogger
}

func NewMessageService(uowFactory unitofwork.RepositoryFactory, publisher IEventPublisher, log logger.ILogger) IMessageService {
	return &messageService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *messageService) GetMessages(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.MessageRepository().FindByUser(ctx, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}

	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		result = append(result, toMessageResponse(m))
	}
	return result, nil
}

func (s *messageService) CreateMessage(ctx context.Context, userId uuid.UUID, req *dto.CreateMessageRequest) (*dto.MessageResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, serverutils.NewBadRequest("Invalid message data", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	message := &entity.Message{
		UserId:  userId,
		Content: req.Content,
		Sender:  entity.MessageSender(req.Sender),
	}
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.publisher.Publish(ctx, events.New(events.TypeMessageCreated, map[string]interface{}{
		"messageId": message.Id.String(),
		"userId":    userId.String(),
		"sender":    string(message.Sender),
	}))

	return toMessageResponse(message), nil
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:        m.Id,
		UserId:    m.UserId,
		Content:   m.Content,
		Sender:    string(m.Sender),
		Timestamp: m.Timestamp,
	}
}
