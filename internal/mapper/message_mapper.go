package mapper

import (
	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/internal/model"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:        msg.Id,
		UserId:    msg.UserId,
		Content:   msg.Content,
		Sender:    entity.MessageSender(msg.Sender),
		Timestamp: msg.Timestamp,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:        msg.Id,
		UserId:    msg.UserId,
		Content:   msg.Content,
		Sender:    string(msg.Sender),
		Timestamp: msg.Timestamp,
	}
}

func (m *MessageMapper) ToEntities(msgs []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}
