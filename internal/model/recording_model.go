package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Recording struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientId    string    `gorm:"type:varchar(255);not null;index:idx_recordings_client_uploaded,priority:1"`
	MeetingDate string    `gorm:"type:varchar(64);not null"`
	MeetingType string    `gorm:"type:varchar(64);not null"`
	FileName    string    `gorm:"type:varchar(512);not null"`
	FileSize    int64     `gorm:"not null"`
	FilePath    *string   `gorm:"type:text"`
	MimeType    string    `gorm:"type:varchar(128)"`
	Duration    *string   `gorm:"type:varchar(32)"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null;index"`
	UploadedAt  time.Time `gorm:"not null;index:idx_recordings_client_uploaded,priority:2"`
	Status      string    `gorm:"type:varchar(20);not null;default:'processing'"`
}

func (Recording) TableName() string {
	return "recordings"
}

func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if err := ensureOrderedID(&r.Id); err != nil {
		return err
	}
	if r.UploadedAt.IsZero() {
		r.UploadedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = "processing"
	}
	return nil
}

type RecordingJob struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RecordingId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status      string         `gorm:"type:varchar(20);not null;index:idx_recording_jobs_status_run_at,priority:1"`
	Attempts    int            `gorm:"not null;default:0"`
	RunAt       time.Time      `gorm:"not null;index:idx_recording_jobs_status_run_at,priority:2"`
	Payload     datatypes.JSON
	LastError   string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (RecordingJob) TableName() string {
	return "recording_jobs"
}

func (j *RecordingJob) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.Id)
	return nil
}
