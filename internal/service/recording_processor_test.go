package service

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"testing"
	"time"

	"advisor-command-centre-be/internal/config"
	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/filestore"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/repository/contract"
	"advisor-command-centre-be/internal/repository/specification"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		ProcessingDelay: 0,
		PollInterval:    10 * time.Millisecond,
		MaxAttempts:     2,
		StaleAfter:      time.Minute,
	}
}

func uploadOne(t *testing.T, env *testEnv, delay time.Duration) *dto.RecordingResponse {
	t.Helper()
	res, err := newRecordingService(env, delay).Upload(context.Background(), uuid.New(), validUpload(),
		fileHeader(t, "call.mp3", "audio/mpeg", []byte("ID3")))
	require.NoError(t, err)
	return res
}

func recordingStatus(t *testing.T, env *testEnv, id uuid.UUID) entity.RecordingStatus {
	t.Helper()
	ctx := context.Background()
	rec, err := env.factory.NewUnitOfWork(ctx).RecordingRepository().FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec.Status
}

func jobFor(t *testing.T, env *testEnv, recordingId uuid.UUID) *entity.RecordingJob {
	t.Helper()
	ctx := context.Background()
	jobs, err := env.factory.NewUnitOfWork(ctx).RecordingJobRepository().FindAll(ctx, specification.ByRecordingID{RecordingID: recordingId})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	return jobs[0]
}

func TestRecordingProcessor_MarksReady(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	p := NewRecordingProcessor(env.factory, env.store, env.publisher, nil, workerConfig(), env.log)

	processed, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, entity.RecordingStatusReady, recordingStatus(t, env, res.Id))
	assert.Equal(t, entity.RecordingJobDone, jobFor(t, env, res.Id).Status)
	assert.Equal(t, events.TypeRecordingStatusChanged, env.publisher.last().EventType())

	processed, err = p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRecordingProcessor_WaitsForDelay(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, time.Hour)
	p := NewRecordingProcessor(env.factory, env.store, env.publisher, nil, workerConfig(), env.log)

	processed, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, entity.RecordingStatusProcessing, recordingStatus(t, env, res.Id))
}

func TestRecordingProcessor_MissingFileMeansError(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	require.NoError(t, os.Remove(*res.FilePath))
	p := NewRecordingProcessor(env.factory, env.store, env.publisher, nil, workerConfig(), env.log)

	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.RecordingStatusError, recordingStatus(t, env, res.Id))
}

func TestRecordingProcessor_ExplicitStatusWins(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	ctx := context.Background()

	// simulate a PATCH that landed between claim and processing
	p := NewRecordingProcessor(env.factory, env.store, env.publisher, nil, workerConfig(), env.log)
	job, err := env.factory.NewUnitOfWork(ctx).RecordingJobRepository().ClaimNextDue(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, job)
	_, err = env.factory.NewUnitOfWork(ctx).RecordingRepository().UpdateStatus(ctx, res.Id, entity.RecordingStatusError)
	require.NoError(t, err)

	require.NoError(t, p.process(ctx, job))

	assert.Equal(t, entity.RecordingStatusError, recordingStatus(t, env, res.Id))
	assert.Equal(t, entity.RecordingJobDone, jobFor(t, env, res.Id).Status)
}

func TestRecordingProcessor_CancelledJobNeverRuns(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	_, err := newRecordingService(env, 0).UpdateStatus(context.Background(), res.Id.String(), &dto.UpdateRecordingStatusRequest{Status: "error"})
	require.NoError(t, err)
	p := NewRecordingProcessor(env.factory, env.store, env.publisher, nil, workerConfig(), env.log)

	processed, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, entity.RecordingStatusError, recordingStatus(t, env, res.Id))
}

// panickyStore blows up on Stat to exercise the failure path.
type panickyStore struct {
	inner *filestore.LocalStore
}

func (s panickyStore) Save(name string, r io.Reader) (*filestore.StoredFile, error) {
	return s.inner.Save(name, r)
}
func (s panickyStore) Remove(path string) error { return s.inner.Remove(path) }
func (s panickyStore) Stat(string) (int64, error) { panic("disk on fire") }

func TestRecordingProcessor_RetriesThenGivesUp(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	cfg := workerConfig()
	cfg.PollInterval = time.Millisecond
	p := NewRecordingProcessor(env.factory, panickyStore{inner: env.store}, env.publisher, nil, cfg, env.log)
	ctx := context.Background()

	processed, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	job := jobFor(t, env, res.Id)
	assert.Equal(t, entity.RecordingJobQueued, job.Status)
	assert.Contains(t, job.LastError, "disk on fire")

	require.Eventually(t, func() bool {
		ok, err := p.RunOnce(ctx)
		return err == nil && ok
	}, time.Second, 5*time.Millisecond)

	job = jobFor(t, env, res.Id)
	assert.Equal(t, entity.RecordingJobFailed, job.Status)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, entity.RecordingStatusError, recordingStatus(t, env, res.Id))
}

func TestRecordingProcessor_RequeuesStaleClaims(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	ctx := context.Background()

	// a worker claimed the job and died
	claimed, err := env.factory.NewUnitOfWork(ctx).RecordingJobRepository().ClaimNextDue(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, claimed)

	cfg := workerConfig()
	cfg.StaleAfter = 5 * time.Minute
	p := NewRecordingProcessor(env.factory, env.store, env.publisher, nil, cfg, env.log)

	p.requeueStale(ctx)
	assert.Equal(t, entity.RecordingJobProcessing, jobFor(t, env, res.Id).Status, "claim is still fresh")

	p.now = func() time.Time { return time.Now().UTC().Add(10 * time.Minute) }
	p.requeueStale(ctx)
	assert.Equal(t, entity.RecordingJobQueued, jobFor(t, env, res.Id).Status)

	processed, err := p.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, entity.RecordingStatusReady, recordingStatus(t, env, res.Id))
	assert.Equal(t, 2, jobFor(t, env, res.Id).Attempts)
}

func TestRecordingProcessor_RunWakesOnEnqueue(t *testing.T) {
	env := newTestEnv(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger.NewWatermillAdapter(env.log))
	t.Cleanup(func() { _ = pubSub.Close() })
	publisher := NewEventPublisher(pubSub, nil, env.log)

	cfg := workerConfig()
	cfg.PollInterval = time.Hour // only the wake-up can trigger processing
	p := NewRecordingProcessor(env.factory, env.store, publisher, pubSub, cfg, env.log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	svc := NewRecordingService(env.factory, env.store, publisher, RecordingServiceOptions{MaxBytes: 1024, ProcessingDelay: 50 * time.Millisecond}, env.log)
	// Run subscribes asynchronously; give it a moment before enqueueing
	time.Sleep(50 * time.Millisecond)
	res, err := svc.Upload(context.Background(), uuid.New(), validUpload(), fileHeader(t, "call.mp3", "audio/mpeg", []byte("ID3")))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return recordingStatus(t, env, res.Id) == entity.RecordingStatusReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecordingProcessor_WakeupsDoNotAccumulateGoroutines(t *testing.T) {
	env := newTestEnv(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger.NewWatermillAdapter(env.log))
	t.Cleanup(func() { _ = pubSub.Close() })
	publisher := NewEventPublisher(pubSub, nil, env.log)

	cfg := workerConfig()
	cfg.PollInterval = time.Hour
	p := NewRecordingProcessor(env.factory, env.store, publisher, pubSub, cfg, env.log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(50 * time.Millisecond)

	before := runtime.NumGoroutine()
	for i := 0; i < 500; i++ {
		publisher.Notify(TopicRecordingJobs, dto.RecordingJobMessage{
			JobId:       uuid.New(),
			RecordingId: uuid.New(),
			RunAt:       time.Now().UTC().Add(20 * time.Millisecond),
		})
	}

	// let every message arrive and every timer fire
	time.Sleep(300 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+10
	}, 2*time.Second, 20*time.Millisecond, "wake-up timers left goroutines behind")
}

// failingCompleteFactory fails every job completion so the surrounding
// transaction has to roll back.
type failingCompleteFactory struct {
	unitofwork.RepositoryFactory
}

type failingCompleteUnitOfWork struct {
	unitofwork.UnitOfWork
}

type failingCompleteJobRepository struct {
	contract.RecordingJobRepository
}

func (f failingCompleteFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingCompleteUnitOfWork{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx)}
}

func (u failingCompleteUnitOfWork) RecordingJobRepository() contract.RecordingJobRepository {
	return failingCompleteJobRepository{RecordingJobRepository: u.UnitOfWork.RecordingJobRepository()}
}

func (failingCompleteJobRepository) Complete(context.Context, uuid.UUID) error {
	return errors.New("connection reset")
}

func TestRecordingProcessor_TransitionRollsBackWhenJobCannotComplete(t *testing.T) {
	env := newTestEnv(t)
	res := uploadOne(t, env, 0)
	ctx := context.Background()

	job, err := env.factory.NewUnitOfWork(ctx).RecordingJobRepository().ClaimNextDue(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, job)

	p := NewRecordingProcessor(failingCompleteFactory{RepositoryFactory: env.factory}, env.store, env.publisher, nil, workerConfig(), env.log)
	err = p.process(ctx, job)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete job")
	assert.Equal(t, entity.RecordingStatusProcessing, recordingStatus(t, env, res.Id))
	assert.Equal(t, entity.RecordingJobProcessing, jobFor(t, env, res.Id).Status)
}
