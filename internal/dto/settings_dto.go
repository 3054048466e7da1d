package dto

import (
	"time"

	"github.com/google/uuid"
)

// UpsertSettingsRequest replaces the whole settings row. Pointers tell a
// missing field apart from false / "".
type UpsertSettingsRequest struct {
	CalendarConnected *bool   `json:"calendarConnected" validate:"required"`
	RecordingRule     string  `json:"recordingRule" validate:"required,oneof=disabled selective always"`
	Exclusions        *string `json:"exclusions" validate:"required"`
}

type SettingsResponse struct {
	Id                *uuid.UUID `json:"id,omitempty"`
	UserId            uuid.UUID  `json:"userId"`
	CalendarConnected bool       `json:"calendarConnected"`
	RecordingRule     string     `json:"recordingRule"`
	Exclusions        string     `json:"exclusions"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}
