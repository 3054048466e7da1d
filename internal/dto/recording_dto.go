package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadRecordingRequest struct {
	ClientId    string `form:"clientId" validate:"required"`
	MeetingDate string `form:"meetingDate" validate:"required"`
	MeetingType string `form:"meetingType" validate:"required"`
}

type UpdateRecordingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=processing ready error"`
}

type RecordingResponse struct {
	Id          uuid.UUID `json:"id"`
	ClientId    string    `json:"clientId"`
	MeetingDate string    `json:"meetingDate"`
	MeetingType string    `json:"meetingType"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	FilePath    *string   `json:"filePath"`
	MimeType    string    `json:"mimeType"`
	Duration    *string   `json:"duration"`
	UploadedBy  uuid.UUID `json:"uploadedBy"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Status      string    `json:"status"`
}

// RecordingJobMessage wakes the processing worker after an upload.
type RecordingJobMessage struct {
	JobId       uuid.UUID `json:"job_id"`
	RecordingId uuid.UUID `json:"recording_id"`
	RunAt       time.Time `json:"run_at"`
}
