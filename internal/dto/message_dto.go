package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Sender  string `json:"sender" validate:"required,oneof=user assistant"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"userId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}
