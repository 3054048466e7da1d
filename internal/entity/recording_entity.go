package entity

import (
	"time"

	"github.com/google/uuid"
)

type RecordingStatus string

const (
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusReady      RecordingStatus = "ready"
	RecordingStatusError      RecordingStatus = "error"
)

func (s RecordingStatus) Valid() bool {
	switch s {
	case RecordingStatusProcessing, RecordingStatusReady, RecordingStatusError:
		return true
	}
	return false
}

type Recording struct {
	Id          uuid.UUID
	ClientId    string
	MeetingDate string
	MeetingType string
	FileName    string
	FileSize    int64
	FilePath    *string
	MimeType    string
	Duration    *string
	UploadedBy  uuid.UUID
	UploadedAt  time.Time
	Status      RecordingStatus
}

type RecordingJobStatus string

const (
	RecordingJobQueued     RecordingJobStatus = "queued"
	RecordingJobProcessing RecordingJobStatus = "processing"
	RecordingJobDone       RecordingJobStatus = "done"
	RecordingJobFailed     RecordingJobStatus = "failed"
	RecordingJobCancelled  RecordingJobStatus = "cancelled"
)

// RecordingJobPayload is a snapshot of what the worker needs, taken at
// upload time.
type RecordingJobPayload struct {
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// RecordingJob drives the automatic processing -> ready transition of one
// recording. Rows outlive process restarts.
type RecordingJob struct {
	Id          uuid.UUID
	RecordingId uuid.UUID
	Status      RecordingJobStatus
	Attempts    int
	RunAt       time.Time
	Payload     RecordingJobPayload
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
