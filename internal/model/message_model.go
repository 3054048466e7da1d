package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_user_timestamp,priority:1"`
	Content   string    `gorm:"type:text;not null"`
	Sender    string    `gorm:"type:varchar(20);not null"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_messages_user_timestamp,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return ensureOrderedID(&m.Id)
}
