// Package activity keeps the bounded, ordered record of emitted events.
package activity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dkeye/voicewatch/internal/domain"
)

const DefaultCapacity = 200

// Log is a fixed-capacity FIFO of activity entries plus a live
// member -> room index fed by membership events.
type Log struct {
	mu      sync.Mutex
	buf     []domain.LogEntry
	head    int // index of the oldest entry
	size    int
	members map[string]domain.RoomName
	newID   func() string
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		buf:     make([]domain.LogEntry, capacity),
		members: make(map[string]domain.RoomName),
		newID:   uuid.NewString,
	}
}

func (l *Log) Capacity() int { return len(l.buf) }

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Append stores ev, evicting the oldest entry when the log is full.
func (l *Log) Append(ev domain.ActivityEvent) domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := domain.LogEntry{
		ID:            l.newID(),
		ActivityEvent: ev,
		TimeStr:       ev.At.Format("15:04:05"),
	}
	if l.size == len(l.buf) {
		l.buf[l.head] = entry
		l.head = (l.head + 1) % len(l.buf)
	} else {
		l.buf[(l.head+l.size)%len(l.buf)] = entry
		l.size++
	}

	switch ev.Kind {
	case domain.EventJoin, domain.EventMove:
		l.members[ev.Member] = ev.CurrentRoom()
	case domain.EventLeave:
		delete(l.members, ev.Member)
	}
	return entry
}

// Recent returns up to limit most recent entries, oldest first.
func (l *Log) Recent(limit int) []domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 {
		return []domain.LogEntry{}
	}
	if limit > l.size {
		limit = l.size
	}
	return l.copyLocked(l.size-limit, limit)
}

// All returns the whole buffer, oldest first.
func (l *Log) All() []domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked(0, l.size)
}

// Clear empties the buffer. The member index reflects who is in voice
// right now and is left untouched.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.buf {
		l.buf[i] = domain.LogEntry{}
	}
	l.head, l.size = 0, 0
}

// CurrentMembers returns a copy of the member -> room index.
func (l *Log) CurrentMembers() map[string]domain.RoomName {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]domain.RoomName, len(l.members))
	for m, r := range l.members {
		out[m] = r
	}
	return out
}

// SeedMembers replaces the member -> room index, used when sessions were
// recovered at startup and no join events were logged for them.
func (l *Log) SeedMembers(members map[string]domain.RoomName) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.members = make(map[string]domain.RoomName, len(members))
	for m, r := range members {
		l.members[m] = r
	}
}

// copyLocked copies n entries starting at logical offset from.
func (l *Log) copyLocked(from, n int) []domain.LogEntry {
	out := make([]domain.LogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = l.buf[(l.head+from+i)%len(l.buf)]
	}
	return out
}
