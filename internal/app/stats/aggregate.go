package stats

import (
	"context"
	"sort"

	"github.com/dkeye/voicewatch/internal/domain"
)

type accumulator struct {
	total float64
	count int
	rooms map[domain.RoomName]struct{}
}

func (a *accumulator) add(seconds float64, rooms []domain.RoomName) {
	a.total += seconds
	a.count++
	for _, r := range rooms {
		a.rooms[r] = struct{}{}
	}
}

func (a *accumulator) stats() domain.MemberStats {
	out := domain.MemberStats{
		TotalTime:    a.total,
		SessionCount: a.count,
		RoomsVisited: make([]domain.RoomName, 0, len(a.rooms)),
	}
	if a.count > 0 {
		out.AverageSession = a.total / float64(a.count)
	}
	for r := range a.rooms {
		out.RoomsVisited = append(out.RoomsVisited, r)
	}
	sort.Slice(out.RoomsVisited, func(i, j int) bool { return out.RoomsVisited[i] < out.RoomsVisited[j] })
	return out
}

// aggregateLocked sums closed sessions of the window from the store, then
// adds the elapsed time of open sessions. member == "" selects everyone.
func (t *Tracker) aggregateLocked(ctx context.Context, w Window, member string) (map[string]*accumulator, error) {
	now := t.clock.Now()
	from, to := w.Bounds(now)

	closed, err := t.store.ClosedSessions(ctx, from, to, member)
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*accumulator)
	get := func(name string) *accumulator {
		a, ok := acc[name]
		if !ok {
			a = &accumulator{rooms: make(map[domain.RoomName]struct{})}
			acc[name] = a
		}
		return a
	}
	for _, s := range closed {
		get(s.Member).add(s.Duration.Seconds(), s.Rooms)
	}
	for name, sess := range t.active {
		if member != "" && name != member {
			continue
		}
		get(name).add(now.Sub(sess.start).Seconds(), sess.rooms)
	}
	return acc, nil
}

// MemberStats aggregates one member's window. A member without data gets
// zero stats, not an error.
func (t *Tracker) MemberStats(ctx context.Context, w Window, member string) (domain.MemberStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, err := t.aggregateLocked(ctx, w, member)
	if err != nil {
		return domain.MemberStats{}, err
	}
	if a, ok := acc[member]; ok {
		return a.stats(), nil
	}
	return domain.MemberStats{RoomsVisited: []domain.RoomName{}}, nil
}

// AllStats aggregates the window for every member with closed or open sessions.
func (t *Tracker) AllStats(ctx context.Context, w Window) (map[string]domain.MemberStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, err := t.aggregateLocked(ctx, w, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.MemberStats, len(acc))
	for name, a := range acc {
		out[name] = a.stats()
	}
	return out, nil
}

func (t *Tracker) DailyStats(ctx context.Context) (map[string]domain.MemberStats, error) {
	return t.AllStats(ctx, WindowToday)
}

func (t *Tracker) WeeklyStats(ctx context.Context) (map[string]domain.MemberStats, error) {
	return t.AllStats(ctx, WindowWeek)
}

// TopUsers ranks today's members by total time, open sessions included.
// Equal totals are ordered by name.
func (t *Tracker) TopUsers(ctx context.Context, limit int) ([]domain.TopUser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, err := t.aggregateLocked(ctx, WindowToday, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.TopUser, 0, len(acc))
	for name, a := range acc {
		out = append(out, domain.TopUser{Member: name, TotalTime: a.total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalTime != out[j].TotalTime {
			return out[i].TotalTime > out[j].TotalTime
		}
		return out[i].Member < out[j].Member
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
