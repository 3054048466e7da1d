package service

import (
	"context"
	"fmt"

	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// StatusNotifier pushes a raw JSON frame to a user's live connections.
type StatusNotifier interface {
	Send(ctx context.Context, userID uuid.UUID, data []byte)
}

// StatusFeedRelay forwards recording events from the in-process bus to the
// uploader's status feed.
type StatusFeedRelay struct {
	subscriber message.Subscriber
	notifier   StatusNotifier
	logger     logger.ILogger
}

func NewStatusFeedRelay(subscriber message.Subscriber, notifier StatusNotifier, log logger.ILogger) *StatusFeedRelay {
	return &StatusFeedRelay{subscriber: subscriber, notifier: notifier, logger: log}
}

func (r *StatusFeedRelay) Run(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, TopicDomainEvents)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicDomainEvents, err)
	}

	for msg := range messages {
		r.handle(ctx, msg)
		msg.Ack()
	}
	return nil
}

func (r *StatusFeedRelay) handle(ctx context.Context, msg *message.Message) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		r.logger.Warn("StatusFeedRelay", "Failed to decode event", map[string]interface{}{"error": err})
		return
	}
	switch event.Type {
	case events.TypeRecordingUploaded, events.TypeRecordingStatusChanged:
	default:
		return
	}

	raw, _ := event.Data["uploadedBy"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		r.logger.Warn("StatusFeedRelay", "Event without uploader", map[string]interface{}{"type": event.Type})
		return
	}
	r.notifier.Send(ctx, userID, msg.Payload)
}
