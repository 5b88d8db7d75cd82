// Package flow drives the multi-step task creation conversation:
// title, priority, date, time, category, then commit.
package flow

import (
	"time"

	"task-manager-bot/internal/calendar"
	"task-manager-bot/internal/model"
)

// Step is the question the user is currently answering.
type Step string

const (
	StepTitle    Step = "title"
	StepPriority Step = "priority"
	StepDate     Step = "date"
	StepTime     Step = "time"
	StepCategory Step = "category"
)

// Suggestions are defaults extracted from a voice note. The user still
// confirms every one of them.
type Suggestions struct {
	Priority model.Priority `json:"priority,omitempty"`
	DueDate  string         `json:"due_date,omitempty"`
	DueTime  string         `json:"due_time,omitempty"`
	Category string         `json:"category,omitempty"`
}

func (s *Suggestions) empty() bool {
	return s == nil || (s.Priority == "" && s.DueDate == "" && s.DueTime == "" && s.Category == "")
}

// Draft is the task being built. DateChosen separates "not asked yet"
// from "explicitly no date".
type Draft struct {
	Title      string         `json:"title"`
	Priority   model.Priority `json:"priority,omitempty"`
	DueDate    string         `json:"due_date,omitempty"`
	DueTime    string         `json:"due_time,omitempty"`
	Category   string         `json:"category,omitempty"`
	DateChosen bool           `json:"date_chosen"`
	Suggested  *Suggestions   `json:"suggested,omitempty"`
}

// Session is one user's in-progress conversation.
type Session struct {
	UserID    int64           `json:"user_id"`
	Step      Step            `json:"step"`
	Draft     Draft           `json:"draft"`
	Cursor    calendar.Cursor `json:"cursor"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Session) clone() *Session {
	cp := *s
	if s.Draft.Suggested != nil {
		sg := *s.Draft.Suggested
		cp.Draft.Suggested = &sg
	}
	return &cp
}
