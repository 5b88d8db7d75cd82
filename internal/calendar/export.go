package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	eventBaseURL    = "https://calendar.google.com/calendar/render"
	eventStampFmt   = "20060102T150405"
	defaultStart    = "09:00"
	defaultDuration = 60
)

// Event describes a calendar entry to export.
type Event struct {
	Title           string
	Date            string
	Time            string
	DurationMinutes int
	Description     string
}

// EventLink builds a "create event" template URL for the web calendar.
func EventLink(e Event) (string, error) {
	startTime := strings.TrimSpace(e.Time)
	if startTime == "" {
		startTime = defaultStart
	}
	duration := e.DurationMinutes
	if duration <= 0 {
		duration = defaultDuration
	}

	start, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(e.Date)+" "+startTime)
	if err != nil {
		return "", fmt.Errorf("parse event start: %w", err)
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	var b strings.Builder
	b.WriteString(eventBaseURL)
	b.WriteString("?action=TEMPLATE")
	b.WriteString("&text=" + escape(e.Title))
	b.WriteString("&dates=" + escape(start.Format(eventStampFmt)+"/"+end.Format(eventStampFmt)))
	if d := strings.TrimSpace(e.Description); d != "" {
		b.WriteString("&details=" + escape(d))
	}
	return b.String(), nil
}

func escape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
