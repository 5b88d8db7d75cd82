package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-manager-bot/internal/model"
)

func TestUserRepositoryUpsert(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user, created, err := repo.Upsert(ctx, model.User{ID: 1001, Username: "ana", FirstName: "Ana"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1001), user.ID)

	user, created, err = repo.Upsert(ctx, model.User{ID: 1001, Username: "ana_p", FirstName: "Ana"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.FindByID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "ana_p", got.Username)
	assert.False(t, got.RegisteredAt.IsZero())

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepositoryUpsertWithSeed(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()
	defaults, err := DefaultCategories()
	require.NoError(t, err)

	_, created, err := users.UpsertWithSeed(ctx, model.User{ID: 7, FirstName: "Rita"})
	require.NoError(t, err)
	assert.True(t, created)
	list, err := categories.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, len(defaults))

	_, created, err = users.UpsertWithSeed(ctx, model.User{ID: 7, FirstName: "Rita"})
	require.NoError(t, err)
	assert.False(t, created)
	list, err = categories.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, len(defaults))

	t.Run("failed seed rolls back the user", func(t *testing.T) {
		require.NoError(t, db.Migrator().DropTable(&model.Category{}))
		_, _, err := users.UpsertWithSeed(ctx, model.User{ID: 8, FirstName: "Tomás"})
		require.Error(t, err)

		_, err = users.FindByID(ctx, 8)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
