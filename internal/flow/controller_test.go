package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager-bot/internal/calendar"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/service"
)

type fakeCreator struct {
	mu     sync.Mutex
	inputs []service.TaskInput
	err    error
}

func (f *fakeCreator) CreateTask(_ context.Context, in service.TaskInput) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	task := &model.Task{
		ID:              uint(len(f.inputs)),
		UserID:          in.UserID,
		Title:           in.Title,
		Priority:        model.NormalizePriority(in.Priority),
		DurationMinutes: model.DefaultDurationMinutes,
		Status:          model.StatusPending,
	}
	if in.Category != "" {
		task.Category = &in.Category
	}
	if in.DueDate != "" {
		task.DueDate = &in.DueDate
	}
	if in.DueTime != "" {
		task.DueTime = &in.DueTime
	}
	return task, nil
}

func (f *fakeCreator) created() []service.TaskInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.TaskInput(nil), f.inputs...)
}

type fakeCategories []model.Category

func (f fakeCategories) List(context.Context, int64) ([]model.Category, error) {
	return f, nil
}

var testCategories = fakeCategories{
	{ID: 1, UserID: 42, Name: "Trabalho", Emoji: "💼"},
	{ID: 2, UserID: 42, Name: "Saúde", Emoji: "💊"},
}

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func newTestController(t *testing.T) (*Controller, *fakeCreator, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(30 * time.Minute)
	creator := &fakeCreator{}
	c := NewController(store, creator, testCategories, logger.Nop(), WithClock(func() time.Time { return fixedNow }))
	return c, creator, store
}

func TestController_FullWalk(t *testing.T) {
	ctx := context.Background()
	c, creator, _ := newTestController(t)

	r, err := c.Start(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, ReplyAskTitle, r.Kind)

	r, err = c.HandleText(ctx, 42, "  Buy milk ")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskPriority, r.Kind)
	assert.Equal(t, "Buy milk", r.Draft.Title)

	r, err = c.ChoosePriority(ctx, 42, "Alta")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskDate, r.Kind)
	require.NotNil(t, r.Grid)
	assert.Equal(t, calendar.Cursor{Year: 2024, Month: time.March}, r.Grid.Cursor)

	r, err = c.HandleCalendar(ctx, 42, calendar.Select("2024-03-20"))
	require.NoError(t, err)
	assert.Equal(t, ReplyAskTime, r.Kind)
	assert.Contains(t, r.TimeSlots, "09:30")

	r, err = c.ChooseTime(ctx, 42, "09:30")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskCategory, r.Kind)
	assert.Len(t, r.Categories, 2)

	r, err = c.ChooseCategory(ctx, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, ReplyCreated, r.Kind)
	require.NotNil(t, r.Task)
	assert.Contains(t, r.CalendarLink, "dates=20240320T093000%2F20240320T103000")

	got := creator.created()
	require.Len(t, got, 1)
	assert.Equal(t, service.TaskInput{
		UserID:   42,
		Title:    "Buy milk",
		Priority: "Alta",
		Category: "Trabalho",
		DueDate:  "2024-03-20",
		DueTime:  "09:30",
	}, got[0])

	active, err := c.Active(ctx, 42)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestController_TextAnswers(t *testing.T) {
	ctx := context.Background()
	c, creator, _ := newTestController(t)

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 42, "Dentist")
	require.NoError(t, err)

	r, err := c.HandleText(ctx, 42, "media")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskDate, r.Kind)
	assert.Equal(t, model.PriorityMedium, r.Draft.Priority)

	r, err = c.HandleText(ctx, 42, "5/4/2024")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskTime, r.Kind)
	assert.Equal(t, "2024-04-05", r.Draft.DueDate)

	r, err = c.HandleText(ctx, 42, "sem hora")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskCategory, r.Kind)

	r, err = c.HandleText(ctx, 42, "saude")
	require.NoError(t, err)
	assert.Equal(t, ReplyCreated, r.Kind)

	got := creator.created()
	require.Len(t, got, 1)
	assert.Equal(t, "Saúde", got[0].Category)
	assert.Empty(t, got[0].DueTime)
}

func TestController_NoDateSkipsTime(t *testing.T) {
	ctx := context.Background()
	c, creator, _ := newTestController(t)

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 42, "Read book")
	require.NoError(t, err)
	_, err = c.ChoosePriority(ctx, 42, "Baixa")
	require.NoError(t, err)

	r, err := c.HandleCalendar(ctx, 42, calendar.NoDate())
	require.NoError(t, err)
	assert.Equal(t, ReplyAskCategory, r.Kind)
	assert.True(t, r.Draft.DateChosen)

	r, err = c.ChooseCategory(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, ReplyCreated, r.Kind)
	assert.Empty(t, r.CalendarLink)

	got := creator.created()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].DueDate)
	assert.Empty(t, got[0].Category)
}

func TestController_InvalidInputKeepsDraft(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t)

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 42, "Pay rent")
	require.NoError(t, err)
	_, err = c.ChoosePriority(ctx, 42, "Alta")
	require.NoError(t, err)

	before, err := store.Get(ctx, 42)
	require.NoError(t, err)

	for _, input := range []string{"amanhã talvez", "31/02/2024", "2024-13-01"} {
		r, err := c.HandleText(ctx, 42, input)
		require.NoError(t, err, input)
		assert.Equal(t, ReplyAskDate, r.Kind, input)
		assert.True(t, r.Retry, input)
	}

	after, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, before.Step, after.Step)
	assert.Equal(t, before.Draft, after.Draft)
}

func TestController_RejectsLongTitle(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)

	long := make([]rune, maxTitleLen+1)
	for i := range long {
		long[i] = 'a'
	}
	r, err := c.HandleText(ctx, 42, string(long))
	require.NoError(t, err)
	assert.Equal(t, ReplyAskTitle, r.Kind)
	assert.True(t, r.Retry)
}

func TestController_CancelFromEveryStep(t *testing.T) {
	ctx := context.Background()
	steps := []func(c *Controller) error{
		func(c *Controller) error { return nil },
		func(c *Controller) error { _, err := c.HandleText(ctx, 42, "Task"); return err },
		func(c *Controller) error { _, err := c.ChoosePriority(ctx, 42, "Alta"); return err },
		func(c *Controller) error {
			_, err := c.HandleCalendar(ctx, 42, calendar.Select("2024-03-20"))
			return err
		},
		func(c *Controller) error { _, err := c.ChooseTime(ctx, 42, "10:00"); return err },
	}

	for depth := range steps {
		for _, viaCalendar := range []bool{false, true} {
			t.Run(fmt.Sprintf("depth_%d_calendar_%v", depth, viaCalendar), func(t *testing.T) {
				c, creator, _ := newTestController(t)
				_, err := c.Start(ctx, 42)
				require.NoError(t, err)
				for _, step := range steps[:depth+1] {
					require.NoError(t, step(c))
				}

				var r Reply
				if viaCalendar {
					r, err = c.HandleCalendar(ctx, 42, calendar.Cancel())
				} else {
					r, err = c.Cancel(ctx, 42)
				}
				require.NoError(t, err)
				assert.Equal(t, ReplyCancelled, r.Kind)

				active, err := c.Active(ctx, 42)
				require.NoError(t, err)
				assert.False(t, active)
				assert.Empty(t, creator.created())
			})
		}
	}
}

func TestController_NoSession(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	r, err := c.HandleText(ctx, 7, "hello")
	require.NoError(t, err)
	assert.Equal(t, ReplyNoSession, r.Kind)

	r, err = c.HandleCalendar(ctx, 7, calendar.Select("2024-03-20"))
	require.NoError(t, err)
	assert.Equal(t, ReplyNoSession, r.Kind)

	r, err = c.Cancel(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, ReplyNoSession, r.Kind)

	r, err = c.HandleCalendar(ctx, 7, calendar.Ignore())
	require.NoError(t, err)
	assert.Equal(t, ReplyIgnored, r.Kind, "inert cells stay silent without a session")
}

func TestController_StalePressDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t)

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 42, "Task")
	require.NoError(t, err)

	r, err := c.HandleCalendar(ctx, 42, calendar.Select("2024-03-20"))
	require.NoError(t, err)
	assert.True(t, r.Stale)
	assert.Equal(t, ReplyAskPriority, r.Kind)

	r, err = c.ChooseCategory(ctx, 42, 1)
	require.NoError(t, err)
	assert.True(t, r.Stale)

	s, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StepPriority, s.Step)
	assert.Empty(t, s.Draft.DueDate)
	assert.Empty(t, s.Draft.Category)
}

func TestController_CalendarNavigation(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t)

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 42, "Task")
	require.NoError(t, err)
	_, err = c.ChoosePriority(ctx, 42, "Alta")
	require.NoError(t, err)

	r, err := c.HandleCalendar(ctx, 42, calendar.Prev(calendar.Cursor{Year: 2024, Month: time.January}))
	require.NoError(t, err)
	assert.Equal(t, ReplyAskDate, r.Kind)
	assert.Equal(t, calendar.Cursor{Year: 2023, Month: time.December}, r.Grid.Cursor)

	r, err = c.HandleCalendar(ctx, 42, calendar.Ignore())
	require.NoError(t, err)
	assert.Equal(t, ReplyIgnored, r.Kind)

	s, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, calendar.Cursor{Year: 2023, Month: time.December}, s.Cursor)
	assert.Equal(t, StepDate, s.Step)
}

func TestController_CommitFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	c, creator, _ := newTestController(t)
	creator.err = errors.New("db down")

	_, err := c.Start(ctx, 42)
	require.NoError(t, err)
	_, err = c.HandleText(ctx, 42, "Task")
	require.NoError(t, err)
	_, err = c.ChoosePriority(ctx, 42, "Alta")
	require.NoError(t, err)
	_, err = c.HandleCalendar(ctx, 42, calendar.NoDate())
	require.NoError(t, err)

	_, err = c.ChooseCategory(ctx, 42, 0)
	require.Error(t, err)

	active, err := c.Active(ctx, 42)
	require.NoError(t, err)
	assert.True(t, active)

	creator.err = nil
	r, err := c.ChooseCategory(ctx, 42, 0)
	require.NoError(t, err)
	assert.Equal(t, ReplyCreated, r.Kind)
}

func TestController_StartFromVoice(t *testing.T) {
	ctx := context.Background()
	c, creator, _ := newTestController(t)

	r, err := c.StartFromVoice(ctx, 42, model.VoiceTask{
		Title:      "Call the doctor",
		DueDate:    "2024-05-02",
		DueTime:    "14:00",
		Priority:   "alta",
		Category:   "saúde",
		Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, ReplyAskPriority, r.Kind)
	require.NotNil(t, r.Draft.Suggested)
	assert.Equal(t, Suggestions{
		Priority: model.PriorityHigh,
		DueDate:  "2024-05-02",
		DueTime:  "14:00",
		Category: "Saúde",
	}, *r.Draft.Suggested)

	r, err = c.HandleText(ctx, 42, "sim")
	require.NoError(t, err)
	assert.Equal(t, ReplyAskDate, r.Kind)
	assert.Equal(t, calendar.Cursor{Year: 2024, Month: time.May}, r.Grid.Cursor)

	for _, want := range []ReplyKind{ReplyAskTime, ReplyAskCategory, ReplyCreated} {
		r, err = c.HandleText(ctx, 42, "Sim")
		require.NoError(t, err)
		assert.Equal(t, want, r.Kind)
	}

	got := creator.created()
	require.Len(t, got, 1)
	assert.Equal(t, service.TaskInput{
		UserID:   42,
		Title:    "Call the doctor",
		Priority: "Alta",
		Category: "Saúde",
		DueDate:  "2024-05-02",
		DueTime:  "14:00",
	}, got[0])
}

func TestController_StartFromVoiceDropsWeakHints(t *testing.T) {
	ctx := context.Background()

	t.Run("low confidence", func(t *testing.T) {
		c, _, _ := newTestController(t)
		r, err := c.StartFromVoice(ctx, 42, model.VoiceTask{
			Title:      "Something",
			Priority:   "Alta",
			Confidence: 0.2,
		})
		require.NoError(t, err)
		assert.Nil(t, r.Draft.Suggested)
	})

	t.Run("missing and unknown fields", func(t *testing.T) {
		c, _, _ := newTestController(t)
		r, err := c.StartFromVoice(ctx, 42, model.VoiceTask{
			Title:         "Something",
			Priority:      "urgent",
			DueDate:       "2024-05-02",
			Category:      "Garden",
			Confidence:    0.8,
			MissingFields: []string{"due_date"},
		})
		require.NoError(t, err)
		assert.Nil(t, r.Draft.Suggested)
	})

	t.Run("empty title starts from scratch", func(t *testing.T) {
		c, _, _ := newTestController(t)
		r, err := c.StartFromVoice(ctx, 42, model.VoiceTask{Confidence: 1})
		require.NoError(t, err)
		assert.Equal(t, ReplyAskTitle, r.Kind)
	})
}

func TestController_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	c, creator, _ := newTestController(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			title := fmt.Sprintf("task %d", userID)
			_, err := c.Start(ctx, userID)
			assert.NoError(t, err)
			_, err = c.HandleText(ctx, userID, title)
			assert.NoError(t, err)
			_, err = c.ChoosePriority(ctx, userID, "Baixa")
			assert.NoError(t, err)
			_, err = c.HandleCalendar(ctx, userID, calendar.NoDate())
			assert.NoError(t, err)
			r, err := c.ChooseCategory(ctx, userID, 0)
			assert.NoError(t, err)
			if assert.NotNil(t, r.Task) {
				assert.Equal(t, title, r.Task.Title)
				assert.Equal(t, userID, r.Task.UserID)
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, creator.created(), 20)
}
