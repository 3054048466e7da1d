package contract

import (
	"context"
	"time"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RecordingRepository interface {
	// Create defaults an empty status to processing.
	Create(ctx context.Context, recording *entity.Recording) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Recording, error)
	FindByClient(ctx context.Context, clientId string) ([]*entity.Recording, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Recording, error)
	// UpdateStatus returns (nil, nil) when no recording has that id.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.RecordingStatus) (*entity.Recording, error)
	// TransitionFromProcessing sets status only if the row is still
	// processing. Reports whether a row changed.
	TransitionFromProcessing(ctx context.Context, id uuid.UUID, status entity.RecordingStatus) (bool, error)
}

type RecordingJobRepository interface {
	Create(ctx context.Context, job *entity.RecordingJob) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordingJob, error)
	// ClaimNextDue atomically moves one due queued job to processing.
	// Returns (nil, nil) when nothing is due.
	ClaimNextDue(ctx context.Context, now time.Time) (*entity.RecordingJob, error)
	Complete(ctx context.Context, id uuid.UUID) error
	// Fail requeues the job at retryAt, or marks it failed when retryAt is nil.
	Fail(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time) error
	CancelPendingForRecording(ctx context.Context, recordingId uuid.UUID) (int64, error)
	// RequeueStale returns processing jobs not touched since olderThan to the queue.
	RequeueStale(ctx context.Context, olderThan time.Time) (int64, error)
}
