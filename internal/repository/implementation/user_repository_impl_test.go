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

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewUserRepository(dbtest.New(t))
	ctx := context.Background()

	user := &entity.User{Username: "jane", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.Id)
	assert.Equal(t, entity.UserRoleAdvisor, user.Role)

	byID, err := repo.FindByID(ctx, user.Id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "jane", byID.Username)

	byName, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.Id, byName.Id)
}

func TestUserRepository_AbsentIsNotAnError(t *testing.T) {
	repo := NewUserRepository(dbtest.New(t))
	ctx := context.Background()

	byID, err := repo.FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, byID)

	byName, err := repo.FindByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, byName)
}

func TestUserRepository_UsernameUnique(t *testing.T) {
	repo := NewUserRepository(dbtest.New(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.User{Username: "jane", PasswordHash: "a"}))
	err := repo.Create(ctx, &entity.User{Username: "jane", PasswordHash: "b"})

	assert.Error(t, err)
}
