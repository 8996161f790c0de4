package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type RecordScope string

const (
	ScopeToday   RecordScope = "today"
	ScopeWeek    RecordScope = "week"
	ScopeMonth   RecordScope = "month"
	ScopeAllTime RecordScope = "all_time"
)

// RecordScopes lists every scope in evaluation order.
var RecordScopes = []RecordScope{ScopeToday, ScopeWeek, ScopeMonth, ScopeAllTime}

// ParseScope accepts the scope names and their storage keys.
func ParseScope(s string) (RecordScope, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, scope := range RecordScopes {
		if s == string(scope) || s == scope.Key() {
			return scope, nil
		}
	}
	switch s {
	case "daily", "day":
		return ScopeToday, nil
	case "weekly", "this_week":
		return ScopeWeek, nil
	case "monthly", "this_month":
		return ScopeMonth, nil
	case "ever", "alltime", "all-time":
		return ScopeAllTime, nil
	}
	return "", ErrUnknownScope
}

// Key is the fixed row key of the scope in the records table.
func (s RecordScope) Key() string {
	switch s {
	case ScopeToday:
		return "longest_session_today"
	case ScopeWeek:
		return "longest_session_week"
	case ScopeMonth:
		return "longest_session_month"
	case ScopeAllTime:
		return "longest_session_ever"
	}
	return ""
}

// Record is the longest session seen in a scope. It is overwritten, never historized.
type Record struct {
	Scope    RecordScope   `json:"-"`
	Holder   *string       `json:"member"`
	Duration time.Duration `json:"-"`
	Date     *time.Time    `json:"date"`
}

// Seconds is the duration as exposed over the wire.
func (r Record) Seconds() float64 { return r.Duration.Seconds() }

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Member   *string    `json:"member"`
		Duration float64    `json:"duration"`
		Date     *time.Time `json:"date"`
	}{r.Holder, r.Seconds(), r.Date})
}
