package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"advisor-command-centre-be/internal/config"
	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/internal/repository/unitofwork"
	"advisor-command-centre-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RecordingProcessor moves uploaded recordings out of processing. It stands
// in for transcription: once a job is due it checks the staged file and
// marks the recording ready, or error when the file is gone.
type RecordingProcessor struct {
	uowFactory unitofwork.RepositoryFactory
	store      RecordingFileStore
	publisher  IEventPublisher
	subscriber message.Subscriber
	cfg        config.WorkerConfig
	logger     logger.ILogger

	wake chan struct{}
	now  func() time.Time
}

func NewRecordingProcessor(
	uowFactory unitofwork.RepositoryFactory,
	store RecordingFileStore,
	publisher IEventPublisher,
	subscriber message.Subscriber,
	cfg config.WorkerConfig,
	log logger.ILogger,
) *RecordingProcessor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RecordingProcessor{
		uowFactory: uowFactory,
		store:      store,
		publisher:  publisher,
		subscriber: subscriber,
		cfg:        cfg,
		logger:     log,
		wake:       make(chan struct{}, 1),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run polls for due jobs until ctx is cancelled. Enqueue notifications on
// TopicRecordingJobs schedule an extra pass at the job's run time.
func (p *RecordingProcessor) Run(ctx context.Context) error {
	if p.subscriber != nil {
		messages, err := p.subscriber.Subscribe(ctx, TopicRecordingJobs)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", TopicRecordingJobs, err)
		}
		go p.consumeWakeups(messages)
	}

	p.requeueStale(ctx)

	poll := time.NewTicker(p.cfg.PollInterval)
	defer poll.Stop()

	var staleC <-chan time.Time
	if p.cfg.StaleAfter > 0 {
		staleTicker := time.NewTicker(p.cfg.StaleAfter / 2)
		defer staleTicker.Stop()
		staleC = staleTicker.C
	}

	p.logger.Info("RecordingProcessor", "Worker started", map[string]interface{}{
		"poll_interval": p.cfg.PollInterval.String(),
		"max_attempts":  p.cfg.MaxAttempts,
	})

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("RecordingProcessor", "Worker stopped", nil)
			return nil
		case <-poll.C:
			p.drain(ctx)
		case <-p.wake:
			p.drain(ctx)
		case <-staleC:
			p.requeueStale(ctx)
		}
	}
}

func (p *RecordingProcessor) consumeWakeups(messages <-chan *message.Message) {
	for msg := range messages {
		var payload dto.RecordingJobMessage
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			p.logger.Warn("RecordingProcessor", "Bad wake-up message", map[string]interface{}{"error": err})
			msg.Ack()
			continue
		}
		msg.Ack()

		delay := payload.RunAt.Sub(p.now())
		if delay <= 0 {
			p.signal()
			continue
		}
		// signal never blocks, so a timer firing after shutdown is a no-op.
		time.AfterFunc(delay, p.signal)
	}
}

func (p *RecordingProcessor) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RecordingProcessor) drain(ctx context.Context) {
	for ctx.Err() == nil {
		processed, err := p.RunOnce(ctx)
		if err != nil {
			p.logger.Error("RecordingProcessor", "Processing pass failed", map[string]interface{}{"error": err})
			return
		}
		if !processed {
			return
		}
	}
}

func (p *RecordingProcessor) requeueStale(ctx context.Context) {
	if p.cfg.StaleAfter <= 0 {
		return
	}
	uow := p.uowFactory.NewUnitOfWork(ctx)
	n, err := uow.RecordingJobRepository().RequeueStale(ctx, p.now().Add(-p.cfg.StaleAfter))
	if err != nil {
		p.logger.Error("RecordingProcessor", "Failed to requeue stale jobs", map[string]interface{}{"error": err})
		return
	}
	if n > 0 {
		p.logger.Warn("RecordingProcessor", "Requeued stale jobs", map[string]interface{}{"count": n})
	}
}

// RunOnce claims and handles at most one due job. It reports whether a job
// was claimed.
func (p *RecordingProcessor) RunOnce(ctx context.Context) (bool, error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.RecordingJobRepository().ClaimNextDue(ctx, p.now())
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := p.safeProcess(ctx, job); err != nil {
		p.handleFailure(ctx, job, err)
	}
	return true, nil
}

func (p *RecordingProcessor) safeProcess(ctx context.Context, job *entity.RecordingJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.process(ctx, job)
}

func (p *RecordingProcessor) process(ctx context.Context, job *entity.RecordingJob) error {
	target := entity.RecordingStatusReady
	if _, statErr := p.store.Stat(job.Payload.FilePath); statErr != nil {
		target = entity.RecordingStatusError
		p.logger.Warn("RecordingProcessor", "Staged file unavailable", map[string]interface{}{
			"recording_id": job.RecordingId,
			"path":         job.Payload.FilePath,
			"error":        statErr,
		})
	}

	uow := p.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	changed, err := uow.RecordingRepository().TransitionFromProcessing(ctx, job.RecordingId, target)
	if err != nil {
		return fmt.Errorf("transition recording: %w", err)
	}
	if err := uow.RecordingJobRepository().Complete(ctx, job.Id); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if changed {
		p.publishStatus(ctx, job)
		p.logger.Info("RecordingProcessor", "Recording processed", map[string]interface{}{
			"recording_id": job.RecordingId,
			"status":       string(target),
		})
	}
	return nil
}

func (p *RecordingProcessor) handleFailure(ctx context.Context, job *entity.RecordingJob, cause error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)
	details := map[string]interface{}{
		"job_id":       job.Id,
		"recording_id": job.RecordingId,
		"attempts":     job.Attempts,
		"error":        cause,
	}

	if job.Attempts < p.cfg.MaxAttempts {
		retryAt := p.now().Add(time.Duration(job.Attempts) * p.cfg.PollInterval)
		if err := uow.RecordingJobRepository().Fail(ctx, job.Id, cause.Error(), &retryAt); err != nil {
			details["fail_error"] = err.Error()
		}
		p.logger.Warn("RecordingProcessor", "Job failed, will retry", details)
		return
	}

	if err := uow.RecordingJobRepository().Fail(ctx, job.Id, cause.Error(), nil); err != nil {
		details["fail_error"] = err.Error()
	}
	changed, err := uow.RecordingRepository().TransitionFromProcessing(ctx, job.RecordingId, entity.RecordingStatusError)
	if err != nil {
		details["transition_error"] = err.Error()
	}
	p.logger.Error("RecordingProcessor", "Job failed permanently", details)
	if changed {
		p.publishStatus(ctx, job)
	}
}

func (p *RecordingProcessor) publishStatus(ctx context.Context, job *entity.RecordingJob) {
	uow := p.uowFactory.NewUnitOfWork(ctx)
	recording, err := uow.RecordingRepository().FindByID(ctx, job.RecordingId)
	if err != nil || recording == nil {
		p.logger.Warn("RecordingProcessor", "Recording vanished before status event", map[string]interface{}{
			"recording_id": job.RecordingId,
			"error":        err,
		})
		return
	}
	p.publisher.Publish(ctx, recordingEvent(events.TypeRecordingStatusChanged, recording))
}
