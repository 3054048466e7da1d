package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSettings is one row per user. The unique index on user_id is the
// conflict target of the settings upsert.
type UserSettings struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_settings_user_id"`
	CalendarConnected bool      `gorm:"not null;default:false"`
	RecordingRule     string    `gorm:"type:varchar(20);not null;default:'selective'"`
	Exclusions        string    `gorm:"type:text;not null;default:''"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

func (s *UserSettings) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.Id)
	return nil
}
