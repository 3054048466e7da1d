package service

import (
	"context"
	"encoding/json"
	"time"

	"advisor-command-centre-be/internal/pkg/logger"
	"advisor-command-centre-be/pkg/events"
	pktNats "advisor-command-centre-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	// TopicDomainEvents carries every domain event inside the process.
	TopicDomainEvents = "domain.events"
	// TopicRecordingJobs wakes the recording processor after an enqueue.
	TopicRecordingJobs = "recording.jobs"
)

// IEventPublisher fans domain events out. Failures are logged, never
// returned, so publishing can't fail a request that already committed.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event)
	// Notify sends a raw JSON payload to an in-process topic.
	Notify(topic string, payload interface{})
}

type eventPublisher struct {
	pubSub message.Publisher
	nats   *pktNats.Publisher
	logger logger.ILogger
}

// NewEventPublisher publishes to pubSub and, when natsPub is non-nil, to
// JetStream as well.
func NewEventPublisher(pubSub message.Publisher, natsPub *pktNats.Publisher, log logger.ILogger) IEventPublisher {
	return &eventPublisher{pubSub: pubSub, nats: natsPub, logger: log}
}

func (p *eventPublisher) Publish(ctx context.Context, event events.Event) {
	payload, err := events.Marshal(event)
	if err != nil {
		p.logger.Error("EventPublisher", "Failed to marshal event", map[string]interface{}{"type": event.EventType(), "error": err})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(TopicDomainEvents, msg); err != nil {
		p.logger.Error("EventPublisher", "In-process publish failed", map[string]interface{}{"type": event.EventType(), "error": err})
	}

	if p.nats == nil {
		return
	}
	natsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.nats.Publish(natsCtx, event); err != nil {
		p.logger.Warn("EventPublisher", "NATS publish failed", map[string]interface{}{"type": event.EventType(), "error": err})
	}
}

func (p *eventPublisher) Notify(topic string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("EventPublisher", "Failed to marshal notification", map[string]interface{}{"topic": topic, "error": err})
		return
	}
	if err := p.pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), raw)); err != nil {
		p.logger.Error("EventPublisher", "Notify failed", map[string]interface{}{"topic": topic, "error": err})
	}
}
