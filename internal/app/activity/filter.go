package activity

import "github.com/dkeye/voicewatch/internal/domain"

// FilterKind keeps entries of the given kind, preserving order.
// An empty kind keeps everything.
func FilterKind(entries []domain.LogEntry, kind domain.EventKind) []domain.LogEntry {
	if kind == "" {
		return entries
	}
	out := make([]domain.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Tail keeps the last n entries; n <= 0 keeps everything.
func Tail(entries []domain.LogEntry, n int) []domain.LogEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}
