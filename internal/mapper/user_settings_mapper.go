package mapper

import (
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/model"
)

type UserSettingsMapper struct{}

func NewUserSettingsMapper() *UserSettingsMapper {
	return &UserSettingsMapper{}
}

func (m *UserSettingsMapper) ToEntity(s *model.UserSettings) *entity.UserSettings {
	if s == nil {
		return nil
	}
	return &entity.UserSettings{
		Id:                s.Id,
		UserId:            s.UserId,
		CalendarConnected: s.CalendarConnected,
		RecordingRule:     entity.RecordingRule(s.RecordingRule),
		Exclusions:        s.Exclusions,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (m *UserSettingsMapper) ToModel(s *entity.UserSettings) *model.UserSettings {
	if s == nil {
		return nil
	}
	return &model.UserSettings{
		Id:                s.Id,
		UserId:            s.UserId,
		CalendarConnected: s.CalendarConnected,
		RecordingRule:     string(s.RecordingRule),
		Exclusions:        s.Exclusions,
		UpdatedAt:         s.UpdatedAt,
	}
}
