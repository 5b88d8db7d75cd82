package flow

import (
	"task-manager-bot/internal/calendar"
	"task-manager-bot/internal/model"
)

type ReplyKind string

const (
	ReplyAskTitle    ReplyKind = "ask_title"
	ReplyAskPriority ReplyKind = "ask_priority"
	ReplyAskDate     ReplyKind = "ask_date"
	ReplyAskTime     ReplyKind = "ask_time"
	ReplyAskCategory ReplyKind = "ask_category"
	ReplyCreated     ReplyKind = "created"
	ReplyCancelled   ReplyKind = "cancelled"
	ReplyIgnored     ReplyKind = "ignored"
	ReplyNoSession   ReplyKind = "no_session"
)

// Reply tells the transport what to show next. Retry means the last input
// was rejected; Stale means a button from an earlier step was pressed.
type Reply struct {
	Kind         ReplyKind
	Retry        bool
	Stale        bool
	Draft        Draft
	Grid         *calendar.Grid
	TimeSlots    []string
	Categories   []model.Category
	Task         *model.Task
	CalendarLink string
}
