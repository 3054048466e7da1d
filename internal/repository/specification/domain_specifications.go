package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ByUsername struct {
	Username string
}

func (s ByUsername) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("username = ?", s.Username)
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// Messages

// NewestMessagesFirst orders by timestamp; ids are UUIDv7, so equal
// timestamps fall back to insertion order. The column is
// quoted through clause because timestamp is a keyword in PostgreSQL.
type NewestMessagesFirst struct{}

func (s NewestMessagesFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
}

// Recordings

type ByClientID struct {
	ClientID string
}

func (s ByClientID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("client_id = ?", s.ClientID)
}

type NewestRecordingsFirst struct{}

func (s NewestRecordingsFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "uploaded_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
}

// Recording jobs

type ByRecordingID struct {
	RecordingID uuid.UUID
}

func (s ByRecordingID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("recording_id = ?", s.RecordingID)
}

// DueJobs selects queued jobs whose run_at has passed, oldest first.
type DueJobs struct {
	Now time.Time
}

func (s DueJobs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND run_at <= ?", "queued", s.Now).Order("run_at ASC")
}
