package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-manager-bot/internal/model"
	"task-manager-bot/internal/schedule"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns the user's tasks matching filter in listing order.
func (r *TaskRepository) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	query, args, err := listTasksQuery(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID int64, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Complete marks a pending task done. Already completed or missing tasks
// are left alone and changed is false.
func (r *TaskRepository) Complete(ctx context.Context, userID int64, taskID uint, completedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ? AND status <> ?", userID, taskID, model.StatusCompleted).
		Updates(map[string]interface{}{
			"status":       model.StatusCompleted,
			"completed_at": completedAt.UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("complete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID int64, taskID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return false, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Update applies the non-nil fields of u. An empty string clears an
// optional column; clearing the due date clears the time too.
func (r *TaskRepository) Update(ctx context.Context, userID int64, taskID uint, u model.TaskUpdate) (bool, error) {
	if u.Empty() {
		return false, nil
	}
	updates := updateColumns(u)
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("update task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func updateColumns(u model.TaskUpdate) map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = nullable(*u.Description)
	}
	if u.Priority != nil {
		updates["priority"] = *u.Priority
	}
	if u.Category != nil {
		updates["category"] = nullable(*u.Category)
	}
	if u.DueTime != nil {
		updates["due_time"] = nullable(*u.DueTime)
	}
	if u.DueDate != nil {
		updates["due_date"] = nullable(*u.DueDate)
		if *u.DueDate == "" {
			updates["due_time"] = nil
		}
	}
	if u.DurationMinutes != nil {
		updates["duration_minutes"] = *u.DurationMinutes
	}
	return updates
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Stats aggregates the user's tasks relative to now's local day.
func (r *TaskRepository) Stats(ctx context.Context, userID int64, now time.Time) (model.Stats, error) {
	var stats model.Stats
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("count tasks: %w", err)
	}
	if err := base().Where("status = ?", model.StatusCompleted).Count(&stats.Completed).Error; err != nil {
		return stats, fmt.Errorf("count completed tasks: %w", err)
	}
	stats.Pending = stats.Total - stats.Completed
	stats.CompletionRate = schedule.CompletionRate(stats.Completed, stats.Total)

	today := schedule.StartOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -6)

	if err := base().
		Where("status = ? AND completed_at >= ? AND completed_at < ?", model.StatusCompleted, today.UTC(), tomorrow.UTC()).
		Count(&stats.CompletedToday).Error; err != nil {
		return stats, fmt.Errorf("count completed today: %w", err)
	}
	if err := base().
		Where("status = ? AND completed_at >= ?", model.StatusCompleted, weekStart.UTC()).
		Count(&stats.CompletedWeek).Error; err != nil {
		return stats, fmt.Errorf("count completed this week: %w", err)
	}
	return stats, nil
}
