package service

import (
	"fmt"
	"strconv"
	"strings"

	"task-manager-bot/internal/model"
)

// AssistantTokenPrefix marks callback tokens produced by suggestions.
const AssistantTokenPrefix = "ai:"

type AssistantActionKind string

const (
	AssistantAccept   AssistantActionKind = "accept"
	AssistantIgnore   AssistantActionKind = "ignore"
	AssistantDone     AssistantActionKind = "done"
	AssistantPriority AssistantActionKind = "priority"
)

// AssistantAction is a decoded suggestion button:
// ai:accept, ai:ignore, ai:done:<id>, ai:priority:<id>:<Alta|Média|Baixa>.
type AssistantAction struct {
	Kind     AssistantActionKind
	TaskID   uint
	Priority model.Priority
}

func (a AssistantAction) Token() string {
	switch a.Kind {
	case AssistantDone:
		return fmt.Sprintf("%s%s:%d", AssistantTokenPrefix, a.Kind, a.TaskID)
	case AssistantPriority:
		return fmt.Sprintf("%s%s:%d:%s", AssistantTokenPrefix, a.Kind, a.TaskID, a.Priority)
	default:
		return AssistantTokenPrefix + string(a.Kind)
	}
}

// ParseAssistantAction decodes a token; anything unexpected is rejected.
func ParseAssistantAction(token string) (AssistantAction, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(token), AssistantTokenPrefix)
	if !ok {
		return AssistantAction{}, false
	}
	parts := strings.Split(rest, ":")
	switch AssistantActionKind(parts[0]) {
	case AssistantAccept, AssistantIgnore:
		if len(parts) != 1 {
			return AssistantAction{}, false
		}
		return AssistantAction{Kind: AssistantActionKind(parts[0])}, true
	case AssistantDone:
		if len(parts) != 2 {
			return AssistantAction{}, false
		}
		id, ok := parseTaskID(parts[1])
		if !ok {
			return AssistantAction{}, false
		}
		return AssistantAction{Kind: AssistantDone, TaskID: id}, true
	case AssistantPriority:
		if len(parts) != 3 {
			return AssistantAction{}, false
		}
		id, ok := parseTaskID(parts[1])
		if !ok {
			return AssistantAction{}, false
		}
		p, ok := model.ParsePriority(parts[2])
		if !ok {
			return AssistantAction{}, false
		}
		return AssistantAction{Kind: AssistantPriority, TaskID: id, Priority: p}, true
	}
	return AssistantAction{}, false
}

func parseTaskID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
