package implementation

import (
	"context"
	"testing"

	"advisor-command-centre-be/internal/entity"
	"advisor-command-centre-be/pkg/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSettingsRepository_FindAbsent(t *testing.T) {
	repo := NewUserSettingsRepository(dbtest.New(t))

	got, err := repo.FindByUser(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserSettingsRepository_UpsertOverwritesSingleRow(t *testing.T) {
	repo := NewUserSettingsRepository(dbtest.New(t))
	ctx := context.Background()
	userId := uuid.New()

	first, err := repo.Upsert(ctx, &entity.UserSettings{
		UserId:            userId,
		CalendarConnected: true,
		RecordingRule:     entity.RecordingRuleAlways,
		Exclusions:        "acme.com",
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.Upsert(ctx, &entity.UserSettings{
		UserId:            userId,
		CalendarConnected: true,
		RecordingRule:     entity.RecordingRuleDisabled,
		Exclusions:        "",
	})
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id, "the existing row is updated in place")
	assert.True(t, second.CalendarConnected)
	assert.Equal(t, entity.RecordingRuleDisabled, second.RecordingRule)
	assert.Equal(t, "", second.Exclusions)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	count, err := repo.CountByUser(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserSettingsRepository_UpsertFalseValues(t *testing.T) {
	repo := NewUserSettingsRepository(dbtest.New(t))
	ctx := context.Background()
	userId := uuid.New()

	_, err := repo.Upsert(ctx, &entity.UserSettings{UserId: userId, CalendarConnected: true, RecordingRule: entity.RecordingRuleAlways, Exclusions: "x"})
	require.NoError(t, err)

	got, err := repo.Upsert(ctx, &entity.UserSettings{UserId: userId, CalendarConnected: false, RecordingRule: entity.RecordingRuleSelective, Exclusions: ""})
	require.NoError(t, err)

	assert.False(t, got.CalendarConnected)
	assert.Equal(t, entity.RecordingRuleSelective, got.RecordingRule)
}

func TestUserSettingsRepository_UsersAreIsolated(t *testing.T) {
	repo := NewUserSettingsRepository(dbtest.New(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_, err := repo.Upsert(ctx, &entity.UserSettings{UserId: alice, RecordingRule: entity.RecordingRuleAlways})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &entity.UserSettings{UserId: bob, RecordingRule: entity.RecordingRuleDisabled})
	require.NoError(t, err)

	got, err := repo.FindByUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordingRuleAlways, got.RecordingRule)
}
