package service

import (
	"context"
	"fmt"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/repository/memory"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/pkg/events"

	"github.com/google/uuid"
)

type ISettingsService interface {
	// GetSettings returns the stored row, or the defaults when the user
	// never saved any. Defaults are not persisted.
	GetSettings(ctx context.Context, userId uuid.UUID) (*dto.SettingsResponse, error)
	UpsertSettings(ctx context.Context, userId uuid.UUID, req *dto.UpsertSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.SettingsCache
	publisher  IEventPublisher
	logger     logger.ILogger
}

func NewSettingsService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.SettingsCache,
	publisher IEventPublisher,
	log logger.ILogger,
) ISettingsService {
	return &settingsService{
		uowFactory: uowFactory,
		cache:      cache,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *settingsService) GetSettings(ctx context.Context, userId uuid.UUID) (*dto.SettingsResponse, error) {
	if cached, ok := s.cache.Get(userId); ok {
		return toSettingsResponse(cached, true), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	settings, err := uow.UserSettingsRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	if settings == nil {
		return toSettingsResponse(entity.DefaultUserSettings(userId), false), nil
	}

	// A PUT may have cached a newer row since the read; Add keeps it.
	s.cache.Add(settings)
	return toSettingsResponse(settings, true), nil
}

func (s *settingsService) UpsertSettings(ctx context.Context, userId uuid.UUID, req *dto.UpsertSettingsRequest) (*dto.SettingsResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, serverutils.NewBadRequest("Invalid settings data", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.UserSettingsRepository().Upsert(ctx, &entity.UserSettings{
		UserId:            userId,
		CalendarConnected: *req.CalendarConnected,
		RecordingRule:     entity.RecordingRule(req.RecordingRule),
		Exclusions:        *req.Exclusions,
	})
	if err != nil {
		s.cache.Delete(userId)
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	if stored == nil {
		s.cache.Delete(userId)
		return nil, fmt.Errorf("upsert settings: row for user %s not found after write", userId)
	}

	s.cache.Save(ctx, stored)
	s.publisher.Publish(ctx, events.New(events.TypeSettingsUpdated, map[string]interface{}{
		"userId":            userId.String(),
		"calendarConnected": stored.CalendarConnected,
		"recordingRule":     string(stored.RecordingRule),
	}))

	return toSettingsResponse(stored, true), nil
}

func toSettingsResponse(s *entity.UserSettings, persisted bool) *dto.SettingsResponse {
	res := &dto.SettingsResponse{
		UserId:            s.UserId,
		CalendarConnected: s.CalendarConnected,
		RecordingRule:     string(s.RecordingRule),
		Exclusions:        s.Exclusions,
	}
	if persisted {
		id, updatedAt := s.Id, s.UpdatedAt
		res.Id = &id
		res.UpdatedAt = &updatedAt
	}
	return res
}
