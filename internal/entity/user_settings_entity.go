package entity

import (
	"time"

	"github.com/google/uuid"
)

type RecordingRule string

const (
	RecordingRuleDisabled  RecordingRule = "disabled"
	RecordingRuleSelective RecordingRule = "selective"
	RecordingRuleAlways    RecordingRule = "always"
)

type UserSettings struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	CalendarConnected bool
	RecordingRule     RecordingRule
	Exclusions        string
	UpdatedAt         time.Time
}

// DefaultUserSettings is what a user who never saved settings sees.
// It is not persisted.
func DefaultUserSettings(userId uuid.UUID) *UserSettings {
	return &UserSettings{
		UserId:            userId,
		CalendarConnected: false,
		RecordingRule:     RecordingRuleSelective,
		Exclusions:        "",
	}
}
