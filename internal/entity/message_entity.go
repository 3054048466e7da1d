package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageSender string

const (
	MessageSenderUser      MessageSender = "user"
	MessageSenderAssistant MessageSender = "assistant"
)

// Message is one turn of the activity log. Immutable once created.
type Message struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Content   string
	Sender    MessageSender
	Timestamp time.Time
}
