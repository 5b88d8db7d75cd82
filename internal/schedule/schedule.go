// Package schedule derives presentation fields from task dates: relative
// text, overdue status, localized formatting and parsing.
package schedule

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	isoLayout   = "2006-01-02"
	timeLayout  = "15:04"
	localLayout = "02/01/2006"

	NoDateText = "Sem data"
)

// ParseISODate parses YYYY-MM-DD as a civil date at midnight UTC.
func ParseISODate(value string) (time.Time, bool) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ISODate formats t's civil date in its own location.
func ISODate(t time.Time) string {
	return t.Format(isoLayout)
}

// RelativeDateText describes dueDate relative to today: "Hoje", "Amanhã",
// "Há N dias", "Em N dias". Malformed dates yield "".
func RelativeDateText(dueDate string, today time.Time) string {
	due, ok := ParseISODate(dueDate)
	if !ok {
		return ""
	}
	days := daysBetween(civil(today), due)
	switch {
	case days == 0:
		return "Hoje"
	case days == 1:
		return "Amanhã"
	case days < 0:
		return fmt.Sprintf("Há %d %s", -days, dayWord(-days))
	default:
		return fmt.Sprintf("Em %d %s", days, dayWord(days))
	}
}

// IsOverdue reports whether a task due at dueDate (and optionally dueTime)
// has passed at now. Without a time the date expires at 23:59.
func IsOverdue(dueDate, dueTime string, now time.Time) bool {
	deadline, ok := Deadline(dueDate, dueTime, now.Location())
	if !ok {
		return false
	}
	return now.After(deadline)
}

// Deadline combines a due date and optional time in loc.
func Deadline(dueDate, dueTime string, loc *time.Location) (time.Time, bool) {
	due, ok := ParseISODate(dueDate)
	if !ok {
		return time.Time{}, false
	}
	hour, minute := 23, 59
	if strings.TrimSpace(dueTime) != "" {
		t, err := time.Parse(timeLayout, strings.TrimSpace(dueTime))
		if err != nil {
			return time.Time{}, false
		}
		hour, minute = t.Hour(), t.Minute()
	}
	return time.Date(due.Year(), due.Month(), due.Day(), hour, minute, 0, 0, loc), true
}

// FormatDate renders an ISO date as DD/MM/YYYY. Malformed input is returned unchanged.
func FormatDate(dueDate string) string {
	if strings.TrimSpace(dueDate) == "" {
		return NoDateText
	}
	due, ok := ParseISODate(dueDate)
	if !ok {
		return dueDate
	}
	return due.Format(localLayout)
}

// ParseDate converts D/M/YYYY or DD/MM/YYYY to an ISO date.
func ParseDate(text string) (string, bool) {
	t, err := time.Parse("2/1/2006", strings.TrimSpace(text))
	if err != nil {
		return "", false
	}
	return t.Format(isoLayout), true
}

// ParseTime normalizes H:MM or HH:MM to HH:MM.
func ParseTime(text string) (string, bool) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(text))
	if err != nil {
		return "", false
	}
	return t.Format(timeLayout), true
}

// CompletionRate is completed/total as a percentage rounded to one decimal.
func CompletionRate(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TimeSlots is the fixed half-hour menu offered when picking a due time.
func TimeSlots() []string {
	slots := make([]string, 0, 25)
	for minutes := 8 * 60; minutes <= 20*60; minutes += 30 {
		slots = append(slots, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
	}
	return slots
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func dayWord(n int) string {
	if n == 1 {
		return "dia"
	}
	return "dias"
}
