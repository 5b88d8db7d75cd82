package model

import (
	"context"
	"time"
)

// SuggestionKind classifies an assistant suggestion.
type SuggestionKind string

const (
	SuggestionSplitTask SuggestionKind = "split_task"
	SuggestionPriority  SuggestionKind = "priority"
	SuggestionSetDate   SuggestionKind = "set_date"
	SuggestionGroup     SuggestionKind = "group"
	SuggestionNone      SuggestionKind = "none"
	SuggestionError     SuggestionKind = "error"
)

func (k SuggestionKind) Valid() bool {
	switch k {
	case SuggestionSplitTask, SuggestionPriority, SuggestionSetDate, SuggestionGroup, SuggestionNone, SuggestionError:
		return true
	}
	return false
}

type SuggestedAction struct {
	Label       string `json:"label"`
	ActionToken string `json:"action_token"`
}

type Suggestion struct {
	Kind             SuggestionKind    `json:"kind"`
	Message          string            `json:"message"`
	RelatedTaskID    *uint             `json:"related_task_id,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions"`
}

// TaskBrief is the reduced task shape handed to the suggestion provider.
type TaskBrief struct {
	ID       uint     `json:"id"`
	Title    string   `json:"title"`
	DueDate  string   `json:"due_date,omitempty"`
	Priority Priority `json:"priority"`
	Category string   `json:"category"`
}

func BriefOf(t Task) TaskBrief {
	category := t.CategoryName()
	if category == "" {
		category = "Sem categoria"
	}
	return TaskBrief{
		ID:       t.ID,
		Title:    t.Title,
		DueDate:  t.Due(),
		Priority: t.Priority,
		Category: category,
	}
}

// VoiceTask is what the voice parser extracted from a transcript. Every
// field is a hint; the creation flow still asks the user to confirm it.
type VoiceTask struct {
	Title         string   `json:"title"`
	DueDate       string   `json:"due_date,omitempty"`
	DueTime       string   `json:"due_time,omitempty"`
	Priority      string   `json:"priority,omitempty"`
	Category      string   `json:"category,omitempty"`
	Confidence    float64  `json:"confidence"`
	MissingFields []string `json:"missing_fields"`
}

// Missing reports whether the parser flagged field as missing.
func (v VoiceTask) Missing(field string) bool {
	for _, f := range v.MissingFields {
		if f == field {
			return true
		}
	}
	return false
}

type SuggestionProvider interface {
	Suggest(ctx context.Context, tasks []TaskBrief, today time.Time) (Suggestion, error)
}

type VoiceParser interface {
	Parse(ctx context.Context, transcript string, now time.Time) (VoiceTask, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Synthesizer renders text to an audio file and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
