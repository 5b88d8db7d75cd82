package repository

import (
	"github.com/Masterminds/squirrel"

	"task-manager-bot/internal/model"
)

var taskColumns = []string{
	"id", "user_id", "title", "description", "priority", "category",
	"due_date", "due_time", "duration_minutes", "status", "created_at", "completed_at",
}

// listOrder mirrors model.TaskLess. NULL and '' are the same for category
// and due_date; uncategorised and undated tasks go last.
var listOrder = []string{
	"CASE WHEN COALESCE(category, '') = '' THEN 1 ELSE 0 END",
	"COALESCE(category, '') ASC",
	"CASE priority WHEN 'Alta' THEN 1 WHEN 'Média' THEN 2 WHEN 'Baixa' THEN 3 ELSE 4 END",
	"CASE WHEN COALESCE(due_date, '') = '' THEN 1 ELSE 0 END",
	"COALESCE(due_date, '') ASC",
	"created_at DESC",
	"id DESC",
}

// listTasksQuery builds the listing statement with "?" placeholders;
// gorm rebinds them for the active dialect.
func listTasksQuery(userID int64, filter model.TaskFilter) (string, []interface{}, error) {
	q := squirrel.Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"user_id": userID})

	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.DueDate != "" {
		q = q.Where(squirrel.Eq{"due_date": filter.DueDate})
	}

	return q.OrderBy(listOrder...).PlaceholderFormat(squirrel.Question).ToSql()
}
