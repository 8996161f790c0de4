package activity_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/domain"
)

var t0 = time.Date(2026, 10, 16, 9, 30, 5, 0, time.UTC)

func members(entries []domain.LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Member)
	}
	return out
}

func TestLog_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(3)
	for i := 0; i < 4; i++ {
		l.Append(domain.NewJoin(fmt.Sprintf("m%d", i), "A", t0))
	}

	require.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"m1", "m2", "m3"}, members(l.All()))

	for i := 4; i < 9; i++ {
		l.Append(domain.NewJoin(fmt.Sprintf("m%d", i), "A", t0))
	}
	assert.Equal(t, []string{"m6", "m7", "m8"}, members(l.All()))
}

func TestLog_Recent(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(10)
	assert.Empty(t, l.Recent(5))

	for i := 0; i < 6; i++ {
		l.Append(domain.NewJoin(fmt.Sprintf("m%d", i), "A", t0))
	}
	assert.Equal(t, []string{"m3", "m4", "m5"}, members(l.Recent(3)))
	assert.Len(t, l.Recent(100), 6)
	assert.Empty(t, l.Recent(0))
}

func TestLog_AppendReturnsStoredEntry(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(2)
	e := l.Append(domain.NewMove("Alice", "A", "B", t0))

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "09:30:05", e.TimeStr)
	assert.Equal(t, domain.EventMove, e.Kind)
	assert.Equal(t, []domain.LogEntry{e}, l.All())
}

func TestLog_DefaultCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, activity.DefaultCapacity, activity.NewLog(0).Capacity())
}

func TestLog_MemberIndex(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(10)
	l.Append(domain.NewJoin("Alice", "A", t0))
	l.Append(domain.NewJoin("Bob", "A", t0))
	l.Append(domain.NewMove("Alice", "A", "B", t0))
	l.Append(domain.NewStateEvent(domain.EventMute, "Bob", "C", t0))
	l.Append(domain.NewLeave("Bob", "A", t0))

	assert.Equal(t, map[string]domain.RoomName{"Alice": "B"}, l.CurrentMembers())
}

func TestLog_SeedMembers(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(10)
	l.Append(domain.NewJoin("Zed", "C", t0))
	l.SeedMembers(map[string]domain.RoomName{"Alice": "A", "Dave": "A"})
	assert.Equal(t, map[string]domain.RoomName{"Alice": "A", "Dave": "A"}, l.CurrentMembers())
	assert.Equal(t, 1, l.Len())

	l.Append(domain.NewLeave("Dave", "A", t0))
	assert.Equal(t, map[string]domain.RoomName{"Alice": "A"}, l.CurrentMembers())
}

func TestLog_Clear(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(2)
	l.Append(domain.NewJoin("Alice", "A", t0))
	l.Append(domain.NewJoin("Bob", "A", t0))
	l.Append(domain.NewJoin("Carol", "A", t0))
	l.Clear()

	assert.Empty(t, l.All())
	assert.Equal(t, 0, l.Len())
	assert.Len(t, l.CurrentMembers(), 3)

	l.Append(domain.NewLeave("Alice", "A", t0))
	assert.Equal(t, []string{"Alice"}, members(l.All()))
}

func TestLog_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Append(domain.NewJoin(fmt.Sprintf("g%d-%d", i, j), "A", t0))
				_ = l.Recent(5)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, l.Len())
}

func TestFilterKindAndTail(t *testing.T) {
	t.Parallel()

	l := activity.NewLog(10)
	l.Append(domain.NewJoin("Alice", "A", t0))
	l.Append(domain.NewStateEvent(domain.EventMute, "Alice", "A", t0))
	l.Append(domain.NewJoin("Bob", "A", t0))
	l.Append(domain.NewJoin("Carol", "A", t0))

	joins := activity.FilterKind(l.All(), domain.EventJoin)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, members(joins))
	assert.Equal(t, []string{"Bob", "Carol"}, members(activity.Tail(joins, 2)))
	assert.Len(t, activity.FilterKind(l.All(), ""), 4)
	assert.Len(t, activity.Tail(joins, 0), 3)
}
