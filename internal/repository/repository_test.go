package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-manager-bot/internal/config"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, true)
}

func openTestDB(t *testing.T, autoMigrate bool) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(config.DatabaseConfig{
		Driver:      "sqlite",
		URL:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		AutoMigrate: autoMigrate,
	}, logger.Nop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func createTask(t *testing.T, repo *TaskRepository, task model.Task) model.Task {
	t.Helper()
	if task.UserID == 0 {
		task.UserID = 1
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if task.DurationMinutes == 0 {
		task.DurationMinutes = model.DefaultDurationMinutes
	}
	require.NoError(t, repo.Create(context.Background(), &task))
	require.NotZero(t, task.ID)
	return task
}
