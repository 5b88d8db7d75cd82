package model

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Priority is one of the three task priority literals.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Média"
	PriorityLow    Priority = "Baixa"
)

// Priorities lists the literals in rank order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities for listing: Alta=1, Média=2, Baixa=3, anything else=4.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

func (p Priority) Valid() bool {
	return p.Rank() < 4
}

// ParsePriority matches a literal ignoring case and accents ("media" -> Média).
func ParsePriority(raw string) (Priority, bool) {
	key := foldKey(raw)
	for _, p := range Priorities {
		if foldKey(string(p)) == key {
			return p, true
		}
	}
	return "", false
}

// NormalizePriority returns the matching literal or Média.
func NormalizePriority(raw string) Priority {
	if p, ok := ParsePriority(raw); ok {
		return p
	}
	return PriorityMedium
}

// Status is the task lifecycle state.
type Status string

const (
	StatusPending   Status = "Pendente"
	StatusCompleted Status = "Concluída"
)

const DefaultDurationMinutes = 60

// Task is a single to-do item. Category is denormalized: it holds the
// category name, not a reference, so deleting a category leaves tasks intact.
type Task struct {
	ID              uint     `gorm:"primaryKey"`
	UserID          int64    `gorm:"index;not null"`
	Title           string   `gorm:"not null"`
	Description     *string
	Priority        Priority `gorm:"type:varchar(16);not null;default:Média"`
	Category        *string  `gorm:"index"`
	DueDate         *string  `gorm:"type:varchar(10);index"`
	DueTime         *string  `gorm:"type:varchar(5)"`
	DurationMinutes int      `gorm:"not null;default:60"`
	Status          Status   `gorm:"type:varchar(16);not null;default:Pendente;index"`
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// CategoryName returns the trimmed category or "".
func (t Task) CategoryName() string {
	return deref(t.Category)
}

func (t Task) Due() string {
	return deref(t.DueDate)
}

func (t Task) Time() string {
	return deref(t.DueTime)
}

// TaskFilter holds the optional, conjunctive listing predicates.
type TaskFilter struct {
	Status   Status
	Category string
	DueDate  string
}

// TaskUpdate is a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title           *string
	Description     *string
	Priority        *Priority
	Category        *string
	DueDate         *string
	DueTime         *string
	DurationMinutes *int
}

func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Category == nil &&
		u.DueDate == nil && u.DueTime == nil && u.DurationMinutes == nil
}

// Stats aggregates a user's tasks.
type Stats struct {
	Total          int64
	Completed      int64
	Pending        int64
	CompletionRate float64
	CompletedToday int64
	CompletedWeek  int64
}

// TaskLess reports whether a sorts before b in listings: tasks with a
// category first (by name), then priority rank, then dated before undated
// (by date), then newest first, then higher id first.
func TaskLess(a, b Task) bool {
	ac, bc := a.CategoryName(), b.CategoryName()
	if (ac == "") != (bc == "") {
		return ac != ""
	}
	if ac != bc {
		return ac < bc
	}
	if ar, br := a.Priority.Rank(), b.Priority.Rank(); ar != br {
		return ar < br
	}
	ad, bd := a.Due(), b.Due()
	if (ad == "") != (bd == "") {
		return ad != ""
	}
	if ad != bd {
		return ad < bd
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return TaskLess(tasks[i], tasks[j])
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// foldKey lowercases and strips combining marks.
func foldKey(s string) string {
	decomposed := norm.NFD.String(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// FoldEqual compares two labels ignoring case and accents.
func FoldEqual(a, b string) bool {
	return foldKey(a) == foldKey(b)
}
