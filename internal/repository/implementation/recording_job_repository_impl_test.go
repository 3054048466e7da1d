package implementation

import (
	"context"
	"testing"
	"time"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/repository/specification"
	"advisor-command-centre-be/pkg/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingJobRepository_ClaimOnlyDueJobs(t *testing.T) {
	repo := NewRecordingJobRepository(dbtest.New(t))
	ctx := context.Background()
	now := time.Now().UTC()

	future := &entity.RecordingJob{RecordingId: uuid.New(), RunAt: now.Add(time.Hour)}
	due := &entity.RecordingJob{
		RecordingId: uuid.New(),
		RunAt:       now.Add(-time.Second),
		Payload:     entity.RecordingJobPayload{FilePath: "uploads/a.wav", FileSize: 10, MimeType: "audio/wav"},
	}
	require.NoError(t, repo.Create(ctx, future))
	require.NoError(t, repo.Create(ctx, due))
	assert.Equal(t, entity.RecordingJobQueued, due.Status)

	claimed, err := repo.ClaimNextDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, due.Id, claimed.Id)
	assert.Equal(t, entity.RecordingJobProcessing, claimed.Status)
	assert.Equal(t, 1, claimed.Attempts)
	assert.Equal(t, "uploads/a.wav", claimed.Payload.FilePath)

	again, err := repo.ClaimNextDue(ctx, now)
	require.NoError(t, err)
	assert.Nil(t, again, "future job is not due and the due one is already claimed")
}

func TestRecordingJobRepository_FailRequeuesOrTerminates(t *testing.T) {
	repo := NewRecordingJobRepository(dbtest.New(t))
	ctx := context.Background()
	now := time.Now().UTC()

	job := &entity.RecordingJob{RecordingId: uuid.New(), RunAt: now.Add(-time.Second)}
	require.NoError(t, repo.Create(ctx, job))
	_, err := repo.ClaimNextDue(ctx, now)
	require.NoError(t, err)

	retryAt := now.Add(-time.Millisecond)
	require.NoError(t, repo.Fail(ctx, job.Id, "db hiccup", &retryAt))

	reclaimed, err := repo.ClaimNextDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	assert.Equal(t, 2, reclaimed.Attempts)
	assert.Equal(t, "db hiccup", reclaimed.LastError)

	require.NoError(t, repo.Fail(ctx, job.Id, "gave up", nil))
	jobs, err := repo.FindAll(ctx, specification.ByID{ID: job.Id})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, entity.RecordingJobFailed, jobs[0].Status)
}

func TestRecordingJobRepository_CancelPending(t *testing.T) {
	repo := NewRecordingJobRepository(dbtest.New(t))
	ctx := context.Background()
	recordingId := uuid.New()

	require.NoError(t, repo.Create(ctx, &entity.RecordingJob{RecordingId: recordingId, RunAt: time.Now().Add(time.Minute)}))

	n, err := repo.CancelPendingForRecording(ctx, recordingId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	claimed, err := repo.ClaimNextDue(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestRecordingJobRepository_RequeueStale(t *testing.T) {
	repo := NewRecordingJobRepository(dbtest.New(t))
	ctx := context.Background()
	claimTime := time.Now().UTC().Add(-10 * time.Minute)

	job := &entity.RecordingJob{RecordingId: uuid.New(), RunAt: claimTime.Add(-time.Second)}
	require.NoError(t, repo.Create(ctx, job))
	claimed, err := repo.ClaimNextDue(ctx, claimTime)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	n, err := repo.RequeueStale(ctx, time.Now().UTC().Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reclaimed, err := repo.ClaimNextDue(ctx, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	assert.Equal(t, job.Id, reclaimed.Id)
}
