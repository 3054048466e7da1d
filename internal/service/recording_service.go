package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/filestore"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/pkg/events"

	"github.com/google/uuid"
)

var (
	allowedRecordingMimeTypes = map[string]bool{
		"audio/mpeg":  true,
		"audio/mp4":   true,
		"audio/wav":   true,
		"audio/webm":  true,
		"audio/x-m4a": true,
		"video/mp4":   true,
		"video/webm":  true,
	}
	allowedRecordingExtensions = map[string]bool{
		".mp3":  true,
		".mp4":  true,
		".m4a":  true,
		".wav":  true,
		".webm": true,
	}
)

// RecordingFileStore is where uploaded recordings live on disk.
type RecordingFileStore interface {
	Save(originalName string, r io.Reader) (*filestore.StoredFile, error)
	Remove(path string) error
	Stat(path string) (int64, error)
}

type IRecordingService interface {
	GetByClient(ctx context.Context, clientId string) ([]*dto.RecordingResponse, error)
	Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadRecordingRequest, file *multipart.FileHeader) (*dto.RecordingResponse, error)
	// UpdateStatus sets any valid status. Moving away from processing
	// cancels the queued processing job.
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateRecordingStatusRequest) (*dto.RecordingResponse, error)
}

type RecordingServiceOptions struct {
	MaxBytes        int64
	ProcessingDelay time.Duration
}

type recordingService struct {
	uowFactory unitofwork.RepositoryFactory
	store      RecordingFileStore
	publisher  IEventPublisher
	opts       RecordingServiceOptions
	logger     logger.ILogger
}

func NewRecordingService(
	uowFactory unitofwork.RepositoryFactory,
	store RecordingFileStore,
	publisher IEventPublisher,
	opts RecordingServiceOptions,
	log logger.ILogger,
) IRecordingService {
	return &recordingService{
		uowFactory: uowFactory,
		store:      store,
		publisher:  publisher,
		opts:       opts,
		logger:     log,
	}
}

func (s *recordingService) GetByClient(ctx context.Context, clientId string) ([]*dto.RecordingResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	recordings, err := uow.RecordingRepository().FindByClient(ctx, clientId)
	if err != nil {
		return nil, fmt.Errorf("find recordings: %w", err)
	}

	result := make([]*dto.RecordingResponse, 0, len(recordings))
	for _, r := range recordings {
		result = append(result, toRecordingResponse(r))
	}
	return result, nil
}

// checkRecordingType accepts a file when either its content type or its
// extension is allowed. It reports whether the two disagree.
func checkRecordingType(contentType, filename string) (ok bool, mismatch bool) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	mimeOK := allowedRecordingMimeTypes[strings.ToLower(contentType)]
	extOK := allowedRecordingExtensions[strings.ToLower(filepath.Ext(filename))]
	return mimeOK || extOK, mimeOK != extOK
}

func (s *recordingService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadRecordingRequest, file *multipart.FileHeader) (*dto.RecordingResponse, error) {
	if file == nil {
		return nil, serverutils.NewBadRequest("No file uploaded", nil)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, serverutils.NewBadRequest("Missing required fields", err)
	}

	contentType := file.Header.Get("Content-Type")
	ok, mismatch := checkRecordingType(contentType, file.Filename)
	if !ok {
		return nil, serverutils.NewBadRequest("Invalid file type. Only audio and video files are allowed.", nil)
	}
	if mismatch {
		s.logger.Warn("RecordingService", "Content type and extension disagree", map[string]interface{}{
			"file_name":    file.Filename,
			"content_type": contentType,
		})
	}
	if s.opts.MaxBytes > 0 && file.Size > s.opts.MaxBytes {
		return nil, serverutils.NewTooLarge("File too large")
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	stored, err := s.store.Save(file.Filename, src)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	recording, job, err := s.persistUpload(ctx, userId, req, file, contentType, stored)
	if err != nil {
		if rmErr := s.store.Remove(stored.Path); rmErr != nil {
			s.logger.Error("RecordingService", "Failed to remove orphaned upload", map[string]interface{}{
				"path":  stored.Path,
				"error": rmErr,
			})
		}
		return nil, err
	}

	s.publisher.Notify(TopicRecordingJobs, dto.RecordingJobMessage{
		JobId:       job.Id,
		RecordingId: recording.Id,
		RunAt:       job.RunAt,
	})
	s.publisher.Publish(ctx, recordingEvent(events.TypeRecordingUploaded, recording))

	s.logger.Info("RecordingService", "Recording uploaded", map[string]interface{}{
		"recording_id": recording.Id,
		"client_id":    recording.ClientId,
		"size":         recording.FileSize,
	})
	return toRecordingResponse(recording), nil
}

// persistUpload writes the recording and its processing job in one
// transaction.
func (s *recordingService) persistUpload(
	ctx context.Context,
	userId uuid.UUID,
	req *dto.UploadRecordingRequest,
	file *multipart.FileHeader,
	contentType string,
	stored *filestore.StoredFile,
) (*entity.Recording, *entity.RecordingJob, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("begin upload transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	path := stored.Path
	recording := &entity.Recording{
		ClientId:    req.ClientId,
		MeetingDate: req.MeetingDate,
		MeetingType: req.MeetingType,
		FileName:    file.Filename,
		FileSize:    stored.Size,
		FilePath:    &path,
		MimeType:    contentType,
		UploadedBy:  userId,
		UploadedAt:  time.Now().UTC(),
		Status:      entity.RecordingStatusProcessing,
	}
	if err := uow.RecordingRepository().Create(ctx, recording); err != nil {
		return nil, nil, fmt.Errorf("create recording: %w", err)
	}

	job := &entity.RecordingJob{
		RecordingId: recording.Id,
		Status:      entity.RecordingJobQueued,
		RunAt:       recording.UploadedAt.Add(s.opts.ProcessingDelay),
		Payload: entity.RecordingJobPayload{
			FilePath: path,
			FileSize: stored.Size,
			MimeType: contentType,
		},
	}
	if err := uow.RecordingJobRepository().Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("create recording job: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit upload: %w", err)
	}
	return recording, job, nil
}

func (s *recordingService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateRecordingStatusRequest) (*dto.RecordingResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, serverutils.NewBadRequest("Invalid status", err)
	}
	recordingId, err := uuid.Parse(id)
	if err != nil {
		// no recording can have a malformed id
		return nil, serverutils.NewNotFound("Recording not found")
	}
	status := entity.RecordingStatus(req.Status)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin status transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	recording, err := uow.RecordingRepository().UpdateStatus(ctx, recordingId, status)
	if err != nil {
		return nil, fmt.Errorf("update recording status: %w", err)
	}
	if recording == nil {
		return nil, serverutils.NewNotFound("Recording not found")
	}

	if status != entity.RecordingStatusProcessing {
		if _, err := uow.RecordingJobRepository().CancelPendingForRecording(ctx, recordingId); err != nil {
			return nil, fmt.Errorf("cancel recording jobs: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	s.publisher.Publish(ctx, recordingEvent(events.TypeRecordingStatusChanged, recording))
	return toRecordingResponse(recording), nil
}

func recordingEvent(eventType string, r *entity.Recording) events.BaseEvent {
	return events.New(eventType, map[string]interface{}{
		"recordingId": r.Id.String(),
		"clientId":    r.ClientId,
		"uploadedBy":  r.UploadedBy.String(),
		"status":      string(r.Status),
	})
}

func toRecordingResponse(r *entity.Recording) *dto.RecordingResponse {
	return &dto.RecordingResponse{
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
