package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the calendar action carried by a button.
type Kind string

const (
	KindSelect Kind = "select"
	KindPrev   Kind = "prev"
	KindNext   Kind = "next"
	KindNoDate Kind = "nodate"
	KindCancel Kind = "cancel"
	KindIgnore Kind = "ignore"
)

// TokenPrefix marks callback data that belongs to the calendar picker.
const TokenPrefix = "cal:"

// Action is a decoded calendar button press. Year and Month are set for
// prev/next (the month currently displayed); Date is set for select.
type Action struct {
	Kind  Kind
	Year  int
	Month time.Month
	Date  string
}

func Select(date string) Action { return Action{Kind: KindSelect, Date: date} }

func Prev(c Cursor) Action { return Action{Kind: KindPrev, Year: c.Year, Month: c.Month} }

func Next(c Cursor) Action { return Action{Kind: KindNext, Year: c.Year, Month: c.Month} }

func NoDate() Action { return Action{Kind: KindNoDate} }

func Cancel() Action { return Action{Kind: KindCancel} }

func Ignore() Action { return Action{Kind: KindIgnore} }

// Token encodes the action as callback data.
func (a Action) Token() string {
	switch a.Kind {
	case KindSelect:
		return TokenPrefix + string(KindSelect) + ":" + a.Date
	case KindPrev, KindNext:
		return fmt.Sprintf("%s%s:%d:%d", TokenPrefix, a.Kind, a.Year, int(a.Month))
	default:
		return TokenPrefix + string(a.Kind)
	}
}

// ParseToken decodes callback data produced by Token.
func ParseToken(data string) (Action, error) {
	if !strings.HasPrefix(data, TokenPrefix) {
		return Action{}, fmt.Errorf("not a calendar token: %q", data)
	}
	parts := strings.Split(strings.TrimPrefix(data, TokenPrefix), ":")
	kind := Kind(parts[0])
	switch kind {
	case KindIgnore, KindNoDate, KindCancel:
		if len(parts) != 1 {
			return Action{}, fmt.Errorf("unexpected payload in %q", data)
		}
		return Action{Kind: kind}, nil
	case KindSelect:
		if len(parts) != 2 {
			return Action{}, fmt.Errorf("malformed select token %q", data)
		}
		if _, err := time.Parse("2006-01-02", parts[1]); err != nil {
			return Action{}, fmt.Errorf("malformed select date %q: %w", parts[1], err)
		}
		return Select(parts[1]), nil
	case KindPrev, KindNext:
		if len(parts) != 3 {
			return Action{}, fmt.Errorf("malformed navigation token %q", data)
		}
		year, err := strconv.Atoi(parts[1])
		if err != nil {
			return Action{}, fmt.Errorf("malformed year in %q: %w", data, err)
		}
		month, err := strconv.Atoi(parts[2])
		if err != nil || month < 1 || month > 12 {
			return Action{}, fmt.Errorf("malformed month in %q", data)
		}
		return Action{Kind: kind, Year: year, Month: time.Month(month)}, nil
	default:
		return Action{}, fmt.Errorf("unknown calendar action %q", parts[0])
	}
}
