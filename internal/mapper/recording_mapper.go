package mapper

import (
	"encoding/json"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/model"

	"gorm.io/datatypes"
)

type RecordingMapper struct{}

func NewRecordingMapper() *RecordingMapper {
	return &RecordingMapper{}
}

func (m *RecordingMapper) ToEntity(r *model.Recording) *entity.Recording {
	if r == nil {
		return nil
	}
	return &entity.Recording{
		Id:          r.Id,
		ClientId:    r.ClientId,
		MeetingDate: r.MeetingDate,
		MeetingType: r.MeetingType,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		FilePath:    r.FilePath,
		MimeType:    r.MimeType,
		Duration:    r.Duration,
		UploadedBy:  r.UploadedBy,
		UploadedAt:  r.UploadedAt,
		Status:      entity.RecordingStatus(r.Status),
	}
}

func (m *RecordingMapper) ToModel(r *entity.Recording) *model.Recording {
	if r == nil {
		return nil
	}
	return &model.Recording{
		Id:          r.Id,
		ClientId:    r.ClientId,
		MeetingDate: r.MeetingDate,
		MeetingType: r.MeetingType,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		FilePath:    r.FilePath,
		MimeType:    r.MimeType,
		Duration:    r.Duration,
		UploadedBy:  r.UploadedBy,
		UploadedAt:  r.UploadedAt,
		Status:      string(r.Status),
	}
}

func (m *RecordingMapper) ToEntities(rs []*model.Recording) []*entity.Recording {
	entities := make([]*entity.Recording, len(rs))
	for i, r := range rs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

// Job Mappers

func (m *RecordingMapper) JobToEntity(j *model.RecordingJob) *entity.RecordingJob {
	if j == nil {
		return nil
	}
	var payload entity.RecordingJobPayload
	if len(j.Payload) > 0 {
		// a corrupt payload leaves an empty snapshot; the worker then fails the job
		_ = json.Unmarshal(j.Payload, &payload)
	}
	return &entity.RecordingJob{
		Id:          j.Id,
		RecordingId: j.RecordingId,
		Status:      entity.RecordingJobStatus(j.Status),
		Attempts:    j.Attempts,
		RunAt:       j.RunAt,
		Payload:     payload,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func (m *RecordingMapper) JobToModel(j *entity.RecordingJob) *model.RecordingJob {
	if j == nil {
		return nil
	}
	payload, _ := json.Marshal(j.Payload)
	return &model.RecordingJob{
		Id:          j.Id,
		RecordingId: j.RecordingId,
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		RunAt:       j.RunAt,
		Payload:     datatypes.JSON(payload),
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
