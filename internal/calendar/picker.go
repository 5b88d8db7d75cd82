// Package calendar implements the inline month picker used while creating
// a task, and builds calendar export links.
package calendar

import (
	"fmt"
	"strconv"
	"time"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Monday first.
var weekdayHeader = [...]string{"S", "T", "Q", "Q", "S", "S", "D"}

const (
	LabelPrev   = "◀️"
	LabelNext   = "▶️"
	LabelNoDate = "📭 SEM DATA"
	LabelCancel = "❌ Cancelar"
	blank       = " "
)

// Cursor is the month shown by the picker.
type Cursor struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func CursorAt(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

func (c Cursor) Prev() Cursor {
	if c.Month == time.January {
		return Cursor{Year: c.Year - 1, Month: time.December}
	}
	return Cursor{Year: c.Year, Month: c.Month - 1}
}

func (c Cursor) Next() Cursor {
	if c.Month == time.December {
		return Cursor{Year: c.Year + 1, Month: time.January}
	}
	return Cursor{Year: c.Year, Month: c.Month + 1}
}

func (c Cursor) Title() string {
	return fmt.Sprintf("%s %d", monthNames[c.Month-1], c.Year)
}

// Navigate returns the month to display after a prev/next action. ok is
// false for every other kind.
func Navigate(a Action) (Cursor, bool) {
	from := Cursor{Year: a.Year, Month: a.Month}
	switch a.Kind {
	case KindPrev:
		return from.Prev(), true
	case KindNext:
		return from.Next(), true
	default:
		return Cursor{}, false
	}
}

// Cell is one button of the grid.
type Cell struct {
	Label  string
	Action Action
}

// Grid is the rendered picker: navigation header, weekday header, weeks, footer.
type Grid struct {
	Cursor Cursor
	Rows   [][]Cell
}

// Build lays out the month at c.
func Build(c Cursor) Grid {
	rows := make([][]Cell, 0, 9)

	rows = append(rows, []Cell{
		{Label: LabelPrev, Action: Prev(c)},
		{Label: c.Title(), Action: Ignore()},
		{Label: LabelNext, Action: Next(c)},
	})

	header := make([]Cell, 0, 7)
	for _, d := range weekdayHeader {
		header = append(header, Cell{Label: d, Action: Ignore()})
	}
	rows = append(rows, header)

	first := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	lead := (int(first.Weekday()) + 6) % 7

	week := make([]Cell, 0, 7)
	for i := 0; i < lead; i++ {
		week = append(week, Cell{Label: blank, Action: Ignore()})
	}
	for day := 1; day <= days; day++ {
		date := time.Date(c.Year, c.Month, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		week = append(week, Cell{Label: strconv.Itoa(day), Action: Select(date)})
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]Cell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Cell{Label: blank, Action: Ignore()})
		}
		rows = append(rows, week)
	}

	rows = append(rows, []Cell{
		{Label: LabelNoDate, Action: NoDate()},
		{Label: LabelCancel, Action: Cancel()},
	})

	return Grid{Cursor: c, Rows: rows}
}
