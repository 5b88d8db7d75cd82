package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"task-manager-bot/internal/metrics"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/repository"
	"task-manager-bot/internal/schedule"
)

// ErrInvalidTask wraps every input validation failure.
var ErrInvalidTask = errors.New("invalid task")

// TaskInput represents data required to create a task.
type TaskInput struct {
	UserID          int64  `validate:"required"`
	Title           string `validate:"required,max=200"`
	Description     string `validate:"max=1000"`
	Priority        string
	Category        string `validate:"max=64"`
	DueDate         string `validate:"omitempty,datetime=2006-01-02"`
	DueTime         string `validate:"omitempty,datetime=15:04"`
	DurationMinutes int    `validate:"min=0,max=1440"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	validate *validator.Validate
	metrics  *metrics.Metrics
}

func NewTaskService(taskRepo *repository.TaskRepository, m *metrics.Metrics) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		validate: validator.New(),
		metrics:  m,
	}
}

// CreateTask validates input and persists a pending task. Unknown
// priorities become Média; a time without a date is dropped.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.DueDate = strings.TrimSpace(input.DueDate)
	input.DueTime = strings.TrimSpace(input.DueTime)

	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}

	if input.DueDate == "" {
		input.DueTime = ""
	}
	duration := input.DurationMinutes
	if duration == 0 {
		duration = model.DefaultDurationMinutes
	}

	task := model.Task{
		UserID:          input.UserID,
		Title:           input.Title,
		Description:     optional(input.Description),
		Priority:        model.NormalizePriority(input.Priority),
		Category:        optional(input.Category),
		DueDate:         optional(input.DueDate),
		DueTime:         optional(input.DueTime),
		DurationMinutes: duration,
		Status:          model.StatusPending,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.metrics.TaskCreated()
	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	return s.taskRepo.List(ctx, userID, filter)
}

func (s *TaskService) ListPending(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.taskRepo.List(ctx, userID, model.TaskFilter{Status: model.StatusPending})
}

// TodayTasks lists pending tasks due on now's date.
func (s *TaskService) TodayTasks(ctx context.Context, userID int64, now time.Time) ([]model.Task, error) {
	return s.taskRepo.List(ctx, userID, model.TaskFilter{
		Status:  model.StatusPending,
		DueDate: schedule.ISODate(now),
	})
}

func (s *TaskService) GetTask(ctx context.Context, userID int64, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, userID, taskID)
}

// CompleteTask marks a task done. Completing twice keeps the first timestamp
// and reports false.
func (s *TaskService) CompleteTask(ctx context.Context, userID int64, taskID uint, completedAt time.Time) (bool, error) {
	changed, err := s.taskRepo.Complete(ctx, userID, taskID, completedAt)
	if err != nil {
		return false, err
	}
	if changed {
		s.metrics.TaskCompleted()
	}
	return changed, nil
}

// DeleteTask removes a task. Missing ids are a no-op.
func (s *TaskService) DeleteTask(ctx context.Context, userID int64, taskID uint) (bool, error) {
	return s.taskRepo.Delete(ctx, userID, taskID)
}

// UpdateTask applies a partial update after validating the provided fields.
func (s *TaskService) UpdateTask(ctx context.Context, userID int64, taskID uint, u model.TaskUpdate) (bool, error) {
	if err := validateUpdate(&u); err != nil {
		return false, err
	}
	return s.taskRepo.Update(ctx, userID, taskID, u)
}

// SetPriority is the common single-field update.
func (s *TaskService) SetPriority(ctx context.Context, userID int64, taskID uint, raw string) (model.Priority, bool, error) {
	p, ok := model.ParsePriority(raw)
	if !ok {
		return "", false, fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, raw)
	}
	changed, err := s.taskRepo.Update(ctx, userID, taskID, model.TaskUpdate{Priority: &p})
	return p, changed, err
}

func (s *TaskService) Stats(ctx context.Context, userID int64, now time.Time) (model.Stats, error) {
	return s.taskRepo.Stats(ctx, userID, now)
}

func validateUpdate(u *model.TaskUpdate) error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidTask)
		}
		u.Title = &title
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *u.Priority)
	}
	if u.DueDate != nil && *u.DueDate != "" {
		if _, ok := schedule.ParseISODate(*u.DueDate); !ok {
			return fmt.Errorf("%w: malformed due date %q", ErrInvalidTask, *u.DueDate)
		}
	}
	if u.DueTime != nil && *u.DueTime != "" {
		normalized, ok := schedule.ParseTime(*u.DueTime)
		if !ok {
			return fmt.Errorf("%w: malformed due time %q", ErrInvalidTask, *u.DueTime)
		}
		u.DueTime = &normalized
	}
	if u.DurationMinutes != nil && (*u.DurationMinutes <= 0 || *u.DurationMinutes > 1440) {
		return fmt.Errorf("%w: duration out of range", ErrInvalidTask)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
