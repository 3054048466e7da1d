package service

import (
	"context"
	"fmt"
	"testing"

	"advisor-command-centre-be/internal/dto"
	"advisor-command-centre-be/internal/pkg/serverutils"
	"advisor-command-centre-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_CreateAndListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMessageService(env.factory, env.publisher, env.log)
	ctx := context.Background()
	userId := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateMessage(ctx, userId, &dto.CreateMessageRequest{Content: fmt.Sprintf("m%d", i), Sender: "user"})
		require.NoError(t, err)
	}
	_, err := svc.CreateMessage(ctx, uuid.New(), &dto.CreateMessageRequest{Content: "other", Sender: "assistant"})
	require.NoError(t, err)

	all, err := svc.GetMessages(ctx, userId, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.After(all[i-1].Timestamp))
	}
	for _, m := range all {
		assert.Equal(t, userId, m.UserId)
	}

	limited, err := svc.GetMessages(ctx, userId, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, all[0].Id, limited[0].Id)

	assert.Contains(t, env.publisher.types(), events.TypeMessageCreated)
}

func TestMessageService_RejectsInvalidMessage(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMessageService(env.factory, env.publisher, env.log)

	cases := []*dto.CreateMessageRequest{
		{Content: "", Sender: "user"},
		{Content: "hi", Sender: ""},
		{Content: "hi", Sender: "system"},
	}
	for _, req := range cases {
		_, err := svc.CreateMessage(context.Background(), uuid.New(), req)
		appErr, ok := serverutils.AsAppError(err)
		require.True(t, ok, "%+v", req)
		assert.Equal(t, 400, appErr.Code)
		assert.Equal(t, "Invalid message data", appErr.Message)
	}
	assert.Empty(t, env.publisher.types())
}

func TestMessageService_EmptyLogIsEmptySlice(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMessageService(env.factory, env.publisher, env.log)

	got, err := svc.GetMessages(context.Background(), uuid.New(), 0)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
