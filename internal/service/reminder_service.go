package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"task-manager-bot/internal/model"
	"task-manager-bot/internal/repository"
	"task-manager-bot/internal/schedule"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	taskRepo *repository.TaskRepository
}

func NewReminderService(taskRepo *repository.TaskRepository) *ReminderService {
	return &ReminderService{taskRepo: taskRepo}
}

// DailySummary lists overdue, today's and the next week's pending tasks.
// It returns "" when there is nothing worth sending.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.taskRepo.List(ctx, user.ID, model.TaskFilter{Status: model.StatusPending})
	if err != nil {
		return "", err
	}

	today := schedule.ISODate(now)
	weekAhead := schedule.ISODate(now.AddDate(0, 0, 7))

	var overdue, dueToday, upcoming []model.Task
	for _, task := range tasks {
		due := task.Due()
		switch {
		case due == "":
			continue
		case schedule.IsOverdue(due, task.Time(), now):
			overdue = append(overdue, task)
		case due == today:
			dueToday = append(dueToday, task)
		case due <= weekAhead:
			upcoming = append(upcoming, task)
		}
	}
	if len(overdue)+len(dueToday)+len(upcoming) == 0 {
		return "", nil
	}

	var builder strings.Builder
	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		name = "olá"
	}
	builder.WriteString(fmt.Sprintf("☀️ <b>Bom dia, %s!</b>\n", html.EscapeString(name)))
	builder.WriteString(fmt.Sprintf("🗓 %s\n", schedule.FormatDate(today)))

	writeSection(&builder, "⚠️ <b>Atrasadas</b>", overdue, now)
	writeSection(&builder, "📌 <b>Para hoje</b>", dueToday, now)
	writeSection(&builder, "📅 <b>Próximos 7 dias</b>", upcoming, now)

	return strings.TrimSpace(builder.String()), nil
}

func writeSection(b *strings.Builder, title string, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		return
	}
	b.WriteString("\n" + title + "\n")
	for _, task := range tasks {
		b.WriteString(formatReminderTask(task, now))
	}
}

func formatReminderTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(task.Title))))
	if category := task.CategoryName(); category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(category)))
	}

	when := schedule.RelativeDateText(task.Due(), now)
	if t := task.Time(); t != "" {
		when += " às " + t
	}
	sb.WriteString(fmt.Sprintf("\n   ⏰ %s · %s", when, task.Priority))
	sb.WriteByte('\n')
	return sb.String()
}
