package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeDateText(t *testing.T) {
	today := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.Local)

	cases := []struct {
		name string
		due  string
		want string
	}{
		{"today", "2024-03-10", "Hoje"},
		{"tomorrow", "2024-03-11", "Amanhã"},
		{"one day ago", "2024-03-09", "Há 1 dia"},
		{"three days ago", "2024-03-07", "Há 3 dias"},
		{"in two days", "2024-03-12", "Em 2 dias"},
		{"across month", "2024-04-01", "Em 22 dias"},
		{"malformed", "10/03/2024", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeDateText(tc.due, today))
		})
	}
}

func TestRelativeDateTextAcrossDST(t *testing.T) {
	lisbon, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	today := time.Date(2024, time.March, 30, 23, 0, 0, 0, lisbon)
	assert.Equal(t, "Amanhã", RelativeDateText("2024-03-31", today))
	assert.Equal(t, "Em 2 dias", RelativeDateText("2024-04-01", today))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no due date is never overdue", func(t *testing.T) {
		assert.False(t, IsOverdue("", "", now))
		assert.False(t, IsOverdue("", "08:00", now))
		assert.False(t, IsOverdue("", "", now.AddDate(50, 0, 0)))
	})

	t.Run("date only expires at 23:59", func(t *testing.T) {
		assert.False(t, IsOverdue("2024-03-10", "", now))
		assert.False(t, IsOverdue("2024-03-10", "", time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)))
		assert.True(t, IsOverdue("2024-03-10", "", time.Date(2024, 3, 10, 23, 59, 30, 0, time.UTC)))
		assert.True(t, IsOverdue("2024-03-09", "", now))
	})

	t.Run("date and time", func(t *testing.T) {
		assert.True(t, IsOverdue("2024-03-10", "11:30", now))
		assert.False(t, IsOverdue("2024-03-10", "12:30", now))
	})

	t.Run("malformed is not overdue", func(t *testing.T) {
		assert.False(t, IsOverdue("2024/03/01", "", now))
		assert.False(t, IsOverdue("2024-03-01", "25:99", now))
	})
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/03/2024", FormatDate("2024-03-05"))
	assert.Equal(t, NoDateText, FormatDate(""))
	assert.Equal(t, "amanhã", FormatDate("amanhã"))
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("05/03/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", got)

	got, ok = ParseDate(" 5/3/2024 ")
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", got)

	for _, bad := range []string{"", "31/02/2024", "2024-03-05", "ontem", "05/13/2024"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseTime(t *testing.T) {
	got, ok := ParseTime("9:05")
	require.True(t, ok)
	assert.Equal(t, "09:05", got)

	_, ok = ParseTime("24:00")
	assert.False(t, ok)
	_, ok = ParseTime("meio-dia")
	assert.False(t, ok)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRate(0, 0))
	assert.Equal(t, 100.0, CompletionRate(1, 1))
	assert.Equal(t, 33.3, CompletionRate(1, 3))
	assert.Equal(t, 66.7, CompletionRate(2, 3))
}

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()
	require.Len(t, slots, 25)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:30", slots[1])
	assert.Equal(t, "20:00", slots[len(slots)-1])
}
