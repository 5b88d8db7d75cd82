package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"task-manager-bot/internal/calendar"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/schedule"
	"task-manager-bot/internal/service"
)

const (
	maxTitleLen        = 200
	minVoiceConfidence = 0.5
)

// TaskCreator persists the finished draft.
type TaskCreator interface {
	CreateTask(ctx context.Context, input service.TaskInput) (*model.Task, error)
}

// CategoryLister supplies the category menu.
type CategoryLister interface {
	List(ctx context.Context, userID int64) ([]model.Category, error)
}

// Controller owns the sessions and moves them between steps. Every
// operation holds the user's lock for its whole read-modify-write.
type Controller struct {
	store      SessionStore
	tasks      TaskCreator
	categories CategoryLister
	log        *logger.Logger
	now        func() time.Time
	locks      keyedMutex
}

type Option func(*Controller)

// WithClock overrides time.Now; the clock's location decides "today".
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(store SessionStore, tasks TaskCreator, categories CategoryLister, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		tasks:      tasks,
		categories: categories,
		log:        log.WithComponent("flow"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// outcome tells run what to do with the session after a step.
type outcome int

const (
	keep outcome = iota
	save
	drop
)

type stepFunc func(s *Session) (Reply, outcome, error)

func (c *Controller) run(ctx context.Context, userID int64, fn stepFunc) (Reply, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	s, err := c.store.Get(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return Reply{Kind: ReplyNoSession}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	reply, out, err := fn(s)
	if err != nil {
		return Reply{}, err
	}
	switch out {
	case save:
		if err := c.store.Save(ctx, s); err != nil {
			return Reply{}, err
		}
	case drop:
		if err := c.store.Delete(ctx, userID); err != nil {
			return Reply{}, err
		}
	}
	return reply, nil
}

// Start opens a fresh session, replacing any previous one.
func (c *Controller) Start(ctx context.Context, userID int64) (Reply, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	s := &Session{
		UserID: userID,
		Step:   StepTitle,
		Cursor: calendar.CursorAt(c.now()),
	}
	if err := c.store.Save(ctx, s); err != nil {
		return Reply{}, err
	}
	c.log.WithUserID(userID).Debugw("creation flow started")
	return c.prompt(ctx, s, false)
}

// StartFromVoice opens a session with the title filled in and moves to the
// priority step. Parsed values become suggestions when they are valid, not
// flagged as missing and the parser is confident enough.
func (c *Controller) StartFromVoice(ctx context.Context, userID int64, v model.VoiceTask) (Reply, error) {
	title := strings.TrimSpace(v.Title)
	if title == "" {
		return c.Start(ctx, userID)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = string([]rune(title)[:maxTitleLen])
	}

	sg, err := c.voiceSuggestions(ctx, userID, v)
	if err != nil {
		return Reply{}, err
	}

	unlock := c.locks.Lock(userID)
	defer unlock()

	s := &Session{
		UserID: userID,
		Step:   StepPriority,
		Draft:  Draft{Title: title},
		Cursor: calendar.CursorAt(c.now()),
	}
	if !sg.empty() {
		s.Draft.Suggested = sg
	}
	if err := c.store.Save(ctx, s); err != nil {
		return Reply{}, err
	}
	c.log.WithUserID(userID).Debugw("voice creation flow started", "confidence", v.Confidence)
	return c.prompt(ctx, s, false)
}

func (c *Controller) voiceSuggestions(ctx context.Context, userID int64, v model.VoiceTask) (*Suggestions, error) {
	sg := &Suggestions{}
	if v.Confidence < minVoiceConfidence {
		return sg, nil
	}
	if p, ok := model.ParsePriority(v.Priority); ok && !v.Missing("priority") {
		sg.Priority = p
	}
	if _, ok := schedule.ParseISODate(v.DueDate); ok && !v.Missing("due_date") {
		sg.DueDate = strings.TrimSpace(v.DueDate)
		if t, ok := schedule.ParseTime(v.DueTime); ok && !v.Missing("due_time") {
			sg.DueTime = t
		}
	}
	if name := strings.TrimSpace(v.Category); name != "" && !v.Missing("category") {
		categories, err := c.categories.List(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		for _, cat := range categories {
			if model.FoldEqual(cat.Name, name) {
				sg.Category = cat.Name
				break
			}
		}
	}
	return sg, nil
}

// Active reports whether the user is in the middle of creating a task.
func (c *Controller) Active(ctx context.Context, userID int64) (bool, error) {
	_, err := c.store.Get(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return false, nil
	}
	return err == nil, err
}

// Cancel discards the session from any step.
func (c *Controller) Cancel(ctx context.Context, userID int64) (Reply, error) {
	return c.run(ctx, userID, func(s *Session) (Reply, outcome, error) {
		return Reply{Kind: ReplyCancelled, Draft: s.Draft}, drop, nil
	})
}

// HandleText interprets a free-text message for the current step.
func (c *Controller) HandleText(ctx context.Context, userID int64, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	return c.run(ctx, userID, func(s *Session) (Reply, outcome, error) {
		if isAcceptWord(text) {
			if r, out, ok, err := c.acceptSuggestion(ctx, s); ok || err != nil {
				return r, out, err
			}
		}
		switch s.Step {
		case StepTitle:
			if text == "" || utf8.RuneCountInString(text) > maxTitleLen {
				return c.retry(ctx, s)
			}
			s.Draft.Title = text
			s.Step = StepPriority
			return c.advance(ctx, s)

		case StepPriority:
			p, ok := model.ParsePriority(text)
			if !ok {
				return c.retry(ctx, s)
			}
			return c.setPriority(ctx, s, p)

		case StepDate:
			if isNoDateWord(text) {
				return c.setNoDate(ctx, s)
			}
			date, ok := schedule.ParseDate(text)
			if !ok {
				if _, iso := schedule.ParseISODate(text); !iso {
					return c.retry(ctx, s)
				}
				date = text
			}
			return c.setDate(ctx, s, date)

		case StepTime:
			if isNoTimeWord(text) {
				return c.setTime(ctx, s, "")
			}
			t, ok := schedule.ParseTime(text)
			if !ok {
				return c.retry(ctx, s)
			}
			return c.setTime(ctx, s, t)

		case StepCategory:
			if isNoCategoryWord(text) {
				return c.commit(ctx, s, "")
			}
			categories, err := c.categories.List(ctx, s.UserID)
			if err != nil {
				return Reply{}, keep, fmt.Errorf("list categories: %w", err)
			}
			for _, cat := range categories {
				if model.FoldEqual(cat.Name, text) {
					return c.commit(ctx, s, cat.Name)
				}
			}
			return c.retry(ctx, s)
		}
		return c.retry(ctx, s)
	})
}

// ChoosePriority handles a priority button.
func (c *Controller) ChoosePriority(ctx context.Context, userID int64, raw string) (Reply, error) {
	return c.run(ctx, userID, func(s *Session) (Reply, outcome, error) {
		if s.Step != StepPriority {
			return c.stale(ctx, s)
		}
		p, ok := model.ParsePriority(raw)
		if !ok {
			return c.retry(ctx, s)
		}
		return c.setPriority(ctx, s, p)
	})
}

// HandleCalendar applies a decoded picker action. Cancel works from any
// step; the other actions only while the date is being asked.
func (c *Controller) HandleCalendar(ctx context.Context, userID int64, a calendar.Action) (Reply, error) {
	// Inert cells never touch the session, even an expired one.
	if a.Kind == calendar.KindIgnore {
		return Reply{Kind: ReplyIgnored}, nil
	}
	return c.run(ctx, userID, func(s *Session) (Reply, outcome, error) {
		if a.Kind == calendar.KindCancel {
			return Reply{Kind: ReplyCancelled, Draft: s.Draft}, drop, nil
		}
		if s.Step != StepDate {
			return c.stale(ctx, s)
		}
		switch a.Kind {
		case calendar.KindSelect:
			if _, ok := schedule.ParseISODate(a.Date); !ok {
				return c.retry(ctx, s)
			}
			return c.setDate(ctx, s, a.Date)
		case calendar.KindNoDate:
			return c.setNoDate(ctx, s)
		case calendar.KindPrev, calendar.KindNext:
			cursor, _ := calendar.Navigate(a)
			s.Cursor = cursor
			grid := calendar.Build(cursor)
			return Reply{Kind: ReplyAskDate, Draft: s.Draft, Grid: &grid}, save, nil
		}
		return c.stale(ctx, s)
	})
}

// ChooseTime handles a time-slot button. An empty slot means no time.
func (c *Controller) ChooseTime(ctx context.Context, userID int64, slot string) (Reply, error) {
	return c.run(ctx, userID, func(s *Session) (Reply, outcome, error) {
		if s.Step != StepTime {
			return c.stale(ctx, s)
		}
		if slot == "" {
			return c.setTime(ctx, s, "")
		}
		t, ok := schedule.ParseTime(slot)
		if !ok {
			return c.retry(ctx, s)
		}
		return c.setTime(ctx, s, t)
	})
}

// ChooseCategory handles a category button; id 0 means no category. The
// task is created on success.
func (c *Controller) ChooseCategory(ctx context.Context, userID int64, id uint) (Reply, error) {
	return c.run(ctx, userID, func(s *Session) (Reply, outcome, error) {
		if s.Step != StepCategory {
			return c.stale(ctx, s)
		}
		if id == 0 {
			return c.commit(ctx, s, "")
		}
		categories, err := c.categories.List(ctx, s.UserID)
		if err != nil {
			return Reply{}, keep, fmt.Errorf("list categories: %w", err)
		}
		for _, cat := range categories {
			if cat.ID == id {
				return c.commit(ctx, s, cat.Name)
			}
		}
		return c.retry(ctx, s)
	})
}

func (c *Controller) setPriority(ctx context.Context, s *Session, p model.Priority) (Reply, outcome, error) {
	s.Draft.Priority = p
	s.Step = StepDate
	s.Cursor = calendar.CursorAt(c.now())
	if sg := s.Draft.Suggested; sg != nil && sg.DueDate != "" {
		if d, ok := schedule.ParseISODate(sg.DueDate); ok {
			s.Cursor = calendar.CursorAt(d)
		}
	}
	return c.advance(ctx, s)
}

func (c *Controller) setDate(ctx context.Context, s *Session, date string) (Reply, outcome, error) {
	s.Draft.DueDate = date
	s.Draft.DateChosen = true
	s.Step = StepTime
	return c.advance(ctx, s)
}

func (c *Controller) setNoDate(ctx context.Context, s *Session) (Reply, outcome, error) {
	s.Draft.DueDate = ""
	s.Draft.DueTime = ""
	s.Draft.DateChosen = true
	s.Step = StepCategory
	return c.advance(ctx, s)
}

func (c *Controller) setTime(ctx context.Context, s *Session, t string) (Reply, outcome, error) {
	s.Draft.DueTime = t
	s.Step = StepCategory
	return c.advance(ctx, s)
}

// acceptSuggestion applies the voice suggestion for the current step when
// the user answers "sim". ok is false when there is nothing to accept.
func (c *Controller) acceptSuggestion(ctx context.Context, s *Session) (Reply, outcome, bool, error) {
	sg := s.Draft.Suggested
	if sg == nil {
		return Reply{}, keep, false, nil
	}
	var (
		r   Reply
		out outcome
		err error
	)
	switch {
	case s.Step == StepPriority && sg.Priority != "":
		r, out, err = c.setPriority(ctx, s, sg.Priority)
	case s.Step == StepDate && sg.DueDate != "":
		r, out, err = c.setDate(ctx, s, sg.DueDate)
	case s.Step == StepTime && sg.DueTime != "":
		r, out, err = c.setTime(ctx, s, sg.DueTime)
	case s.Step == StepCategory && sg.Category != "":
		r, out, err = c.commit(ctx, s, sg.Category)
	default:
		return Reply{}, keep, false, nil
	}
	return r, out, true, err
}

func (c *Controller) commit(ctx context.Context, s *Session, category string) (Reply, outcome, error) {
	d := s.Draft
	d.Category = category
	if d.DueDate == "" {
		d.DueTime = ""
	}

	task, err := c.tasks.CreateTask(ctx, service.TaskInput{
		UserID:   s.UserID,
		Title:    d.Title,
		Priority: string(d.Priority),
		Category: d.Category,
		DueDate:  d.DueDate,
		DueTime:  d.DueTime,
	})
	if err != nil {
		// The session stays at the category step so the user can retry.
		return Reply{}, keep, fmt.Errorf("commit draft: %w", err)
	}

	reply := Reply{Kind: ReplyCreated, Draft: d, Task: task}
	if task.Due() != "" {
		link, err := calendar.EventLink(calendar.Event{
			Title:           task.Title,
			Date:            task.Due(),
			Time:            task.Time(),
			DurationMinutes: task.DurationMinutes,
		})
		if err == nil {
			reply.CalendarLink = link
		}
	}
	c.log.WithUserID(s.UserID).Infow("task created from flow", "task_id", task.ID)
	return reply, drop, nil
}

// advance persists the new step and asks its question.
func (c *Controller) advance(ctx context.Context, s *Session) (Reply, outcome, error) {
	r, err := c.prompt(ctx, s, false)
	return r, save, err
}

// retry re-asks the current question without touching the draft.
func (c *Controller) retry(ctx context.Context, s *Session) (Reply, outcome, error) {
	r, err := c.prompt(ctx, s, true)
	return r, keep, err
}

// stale answers a button from an earlier step by re-asking the current one.
func (c *Controller) stale(ctx context.Context, s *Session) (Reply, outcome, error) {
	r, err := c.prompt(ctx, s, false)
	r.Stale = true
	return r, keep, err
}

func (c *Controller) prompt(ctx context.Context, s *Session, retry bool) (Reply, error) {
	r := Reply{Draft: s.Draft, Retry: retry}
	switch s.Step {
	case StepTitle:
		r.Kind = ReplyAskTitle
	case StepPriority:
		r.Kind = ReplyAskPriority
	case StepDate:
		r.Kind = ReplyAskDate
		grid := calendar.Build(s.Cursor)
		r.Grid = &grid
	case StepTime:
		r.Kind = ReplyAskTime
		r.TimeSlots = schedule.TimeSlots()
	case StepCategory:
		r.Kind = ReplyAskCategory
		categories, err := c.categories.List(ctx, s.UserID)
		if err != nil {
			return Reply{}, fmt.Errorf("list categories: %w", err)
		}
		r.Categories = categories
	default:
		return Reply{}, fmt.Errorf("unknown step %q", s.Step)
	}
	return r, nil
}

func isAcceptWord(text string) bool {
	switch foldWord(text) {
	case "sim", "ok", "aceitar", "confirmar":
		return true
	}
	return false
}

func isNoDateWord(text string) bool {
	switch foldWord(text) {
	case "nao", "sem data", "nenhuma":
		return true
	}
	return false
}

func isNoTimeWord(text string) bool {
	switch foldWord(text) {
	case "nao", "sem hora", "nenhuma":
		return true
	}
	return false
}

func isNoCategoryWord(text string) bool {
	switch foldWord(text) {
	case "nenhuma", "sem categoria", "nao":
		return true
	}
	return false
}

func foldWord(text string) string {
	for _, w := range []string{"nao", "sem data", "sem hora", "sem categoria", "nenhuma", "sim", "ok", "aceitar", "confirmar"} {
		if model.FoldEqual(text, w) {
			return w
		}
	}
	return ""
}
