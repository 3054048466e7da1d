package implementation

import (
	"context"
	"errors"
	"time"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/mapper"
	"advisor-command-centre-be/internal/model"
	"advisor-command-centre-be/internal/repository/contract"
	"advisor-command-centre-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordingJobRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordingMapper
}

func NewRecordingJobRepository(db *gorm.DB) contract.RecordingJobRepository {
	return &RecordingJobRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordingMapper(),
	}
}

func (r *RecordingJobRepositoryImpl) Create(ctx context.Context, job *entity.RecordingJob) error {
	if job.Status == "" {
		job.Status = entity.RecordingJobQueued
	}
	m := r.mapper.JobToModel(job)
	m.RunAt = m.RunAt.UTC()
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*job = *r.mapper.JobToEntity(m)
	return nil
}

func (r *RecordingJobRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordingJob, error) {
	var models []*model.RecordingJob
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	jobs := make([]*entity.RecordingJob, len(models))
	for i, m := range models {
		jobs[i] = r.mapper.JobToEntity(m)
	}
	return jobs, nil
}

// ClaimNextDue locks the oldest due job (SKIP LOCKED on PostgreSQL; SQLite
// ignores the locking clause) and flips it to processing. The status guard
// on the UPDATE keeps the claim exclusive either way.
func (r *RecordingJobRepositoryImpl) ClaimNextDue(ctx context.Context, now time.Time) (*entity.RecordingJob, error) {
	now = now.UTC()
	var claimed *model.RecordingJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.RecordingJob
		q := applySpecifications(
			tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}),
			specification.DueJobs{Now: now},
		)
		if err := q.First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		res := tx.Model(&model.RecordingJob{}).
			Where("id = ? AND status = ?", job.Id, string(entity.RecordingJobQueued)).
			Updates(map[string]interface{}{
				"status":     string(entity.RecordingJobProcessing),
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// another worker got there first
			return nil
		}

		job.Status = string(entity.RecordingJobProcessing)
		job.Attempts++
		job.UpdatedAt = now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.mapper.JobToEntity(claimed), nil
}

func (r *RecordingJobRepositoryImpl) Complete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.RecordingJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(entity.RecordingJobDone),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *RecordingJobRepositoryImpl) Fail(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     string(entity.RecordingJobFailed),
		"last_error": reason,
		"updated_at": time.Now().UTC(),
	}
	if retryAt != nil {
		updates["status"] = string(entity.RecordingJobQueued)
		updates["run_at"] = retryAt.UTC()
	}
	return r.db.WithContext(ctx).Model(&model.RecordingJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *RecordingJobRepositoryImpl) CancelPendingForRecording(ctx context.Context, recordingId uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.RecordingJob{}).
		Where("recording_id = ? AND status = ?", recordingId, string(entity.RecordingJobQueued)).
		Updates(map[string]interface{}{
			"status":     string(entity.RecordingJobCancelled),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *RecordingJobRepositoryImpl) RequeueStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.RecordingJob{}).
		Where("status = ? AND updated_at < ?", string(entity.RecordingJobProcessing), olderThan.UTC()).
		Updates(map[string]interface{}{
			"status":     string(entity.RecordingJobQueued),
			"run_at":     time.Now().UTC(),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
