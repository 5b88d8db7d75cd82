package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager-bot/internal/model"
)

func TestCategoryRepositoryAddIsInsertIfAbsent(t *testing.T) {
	repo := NewCategoryRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Add(ctx, 1, "Work", "💼")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Add(ctx, 1, "Work", "🔧")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = repo.Add(ctx, 2, "Work", "💼")
	require.NoError(t, err)
	assert.True(t, created)

	categories, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "💼", categories[0].Emoji)
}

func TestCategoryRepositorySeed(t *testing.T) {
	repo := NewCategoryRepository(newTestDB(t))
	ctx := context.Background()

	defaults, err := DefaultCategories()
	require.NoError(t, err)
	require.NotEmpty(t, defaults)

	_, err = repo.Add(ctx, 1, defaults[0].Name, "⭐")
	require.NoError(t, err)

	require.NoError(t, repo.Seed(ctx, 1))
	require.NoError(t, repo.Seed(ctx, 1))

	categories, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, categories, len(defaults))
	for i := 1; i < len(categories); i++ {
		assert.LessOrEqual(t, categories[i-1].Name, categories[i].Name)
	}
}

func TestCategoryRepositoryDeleteKeepsTasks(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	_, err := categories.Add(ctx, 1, "Work", model.DefaultCategoryEmoji)
	require.NoError(t, err)
	list, err := categories.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	task := createTask(t, tasks, model.Task{Title: "report", Category: strPtr("Work")})

	deleted, err := categories.Delete(ctx, 1, list[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := tasks.FindByID(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.CategoryName())

	deleted, err = categories.Delete(ctx, 1, list[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
