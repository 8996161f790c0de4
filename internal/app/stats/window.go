package stats

import (
	"strings"
	"time"

	"github.com/dkeye/voicewatch/internal/domain"
)

// Window is a calendar date range used for aggregates.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today", "day", "daily":
		return WindowToday, nil
	case "week", "weekly", "this_week":
		return WindowWeek, nil
	case "month", "monthly", "this_month":
		return WindowMonth, nil
	}
	return "", domain.ErrUnknownWindow
}

// Bounds returns [from, to) as local midnights around now.
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	tomorrow := startOfDay(now).AddDate(0, 0, 1)
	switch w {
	case WindowWeek:
		return startOfWeek(now), tomorrow
	case WindowMonth:
		return startOfMonth(now), tomorrow
	default:
		return startOfDay(now), tomorrow
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek is the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// scopeApplies decides from the session start date, not its end, whether
// a closed session competes for scope's record.
func scopeApplies(scope domain.RecordScope, start, now time.Time) bool {
	start = start.In(now.Location())
	switch scope {
	case domain.ScopeToday:
		return startOfDay(start).Equal(startOfDay(now))
	case domain.ScopeWeek:
		return !startOfDay(start).Before(startOfWeek(now))
	case domain.ScopeMonth:
		return start.Year() == now.Year() && start.Month() == now.Month()
	case domain.ScopeAllTime:
		return true
	}
	return false
}
