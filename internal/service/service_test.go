package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-manager-bot/internal/config"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/repository"
)

type testEnv struct {
	tasks      *TaskService
	categories *CategoryService
	users      *UserService
	reminders  *ReminderService
	taskRepo   *repository.TaskRepository
	db         *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(config.DatabaseConfig{
		Driver:      "sqlite",
		URL:         fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
		AutoMigrate: true,
	}, logger.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	taskRepo := repository.NewTaskRepository(db)
	categories := NewCategoryService(repository.NewCategoryRepository(db))
	return &testEnv{
		tasks:      NewTaskService(taskRepo, nil),
		categories: categories,
		users:      NewUserService(repository.NewUserRepository(db)),
		reminders:  NewReminderService(taskRepo),
		taskRepo:   taskRepo,
		db:         db,
	}
}
