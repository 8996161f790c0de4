// Package stats tracks voice sessions per member and keeps usage records.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/core"
	"github.com/dkeye/voicewatch/internal/domain"
)

type activeSession struct {
	id    uint
	start time.Time
	rooms []domain.RoomName
}

func (a *activeSession) current() domain.RoomName {
	if len(a.rooms) == 0 {
		return ""
	}
	return a.rooms[len(a.rooms)-1]
}

// Tracker owns the active-session table and writes every open and close
// through to the store. One mutex serializes all operations, including the
// store calls they make.
type Tracker struct {
	mu     sync.Mutex
	store  core.SessionStore
	clock  quartz.Clock
	active map[string]*activeSession
}

func NewTracker(store core.SessionStore, clock quartz.Clock) *Tracker {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Tracker{
		store:  store,
		clock:  clock,
		active: make(map[string]*activeSession),
	}
}

// Recover rebuilds the active-session table from rows left open by a
// previous process. Moves made before the crash were never persisted, so
// each resumed session continues from its persisted room list.
func (t *Tracker) Recover(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	open, err := t.store.OpenSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("recover sessions: %w", err)
	}

	var errs []error
	for _, s := range open {
		if stale, ok := t.active[s.Member]; ok {
			errs = append(errs, t.supersedeLocked(ctx, s.Member, stale, s.Start))
		}
		rooms := make([]domain.RoomName, len(s.Rooms))
		copy(rooms, s.Rooms)
		t.active[s.Member] = &activeSession{id: s.ID, start: s.Start, rooms: rooms}
	}
	if n := len(t.active); n > 0 {
		log.Info().Str("module", "app.stats").Int("sessions", n).Msg("recovered active sessions")
	}
	return len(t.active), errors.Join(errs...)
}

// Apply routes a membership event to the matching operation. Flag events
// are ignored.
func (t *Tracker) Apply(ctx context.Context, ev domain.ActivityEvent) error {
	switch ev.Kind {
	case domain.EventJoin:
		return t.MemberJoined(ctx, ev.Member, ev.Room)
	case domain.EventMove:
		t.MemberMoved(ev.Member, ev.From, ev.To)
	case domain.EventLeave:
		return t.MemberLeft(ctx, ev.Member)
	}
	return nil
}

// MemberJoined opens and persists a session. A session already open for
// name is closed first; it does not compete for records.
func (t *Tracker) MemberJoined(ctx context.Context, name string, room domain.RoomName) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	var errs []error
	if stale, ok := t.active[name]; ok {
		errs = append(errs, t.supersedeLocked(ctx, name, stale, now))
	}

	sess := &activeSession{start: now, rooms: []domain.RoomName{room}}
	t.active[name] = sess

	id, err := t.store.OpenSession(ctx, name, room, now)
	if err != nil {
		errs = append(errs, err)
	} else {
		sess.id = id
	}
	log.Debug().Str("module", "app.stats").Str("member", name).Str("room", string(room)).Msg("session opened")
	return errors.Join(errs...)
}

// MemberMoved extends the room list in memory only; the list reaches the
// store when the session closes.
func (t *Tracker) MemberMoved(name string, from, to domain.RoomName) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.active[name]
	if !ok {
		return
	}
	sess.rooms = append(sess.rooms, to)
	log.Debug().Str("module", "app.stats").Str("member", name).Str("from", string(from)).Str("to", string(to)).Msg("session moved")
}

// MemberLeft closes the member's session and checks it against the records.
func (t *Tracker) MemberLeft(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.active[name]
	if !ok {
		return nil
	}
	delete(t.active, name)

	now := t.clock.Now()
	closed := closedSession(name, sess, now)
	if err := t.store.CloseSession(ctx, closed); err != nil {
		return err
	}
	log.Debug().Str("module", "app.stats").Str("member", name).Dur("duration", closed.Duration).Msg("session closed")
	return t.evaluateRecordsLocked(ctx, name, sess.start, closed.Duration, now)
}

func (t *Tracker) supersedeLocked(ctx context.Context, name string, stale *activeSession, end time.Time) error {
	log.Warn().Str("module", "app.stats").Str("member", name).Time("start", stale.start).Msg("superseding session still open")
	delete(t.active, name)
	return t.store.CloseSession(ctx, closedSession(name, stale, end))
}

func closedSession(name string, sess *activeSession, end time.Time) domain.Session {
	rooms := make([]domain.RoomName, len(sess.rooms))
	copy(rooms, sess.rooms)
	return domain.Session{
		ID:       sess.id,
		Member:   name,
		Start:    sess.start,
		End:      &end,
		Duration: end.Sub(sess.start),
		Rooms:    rooms,
	}
}

// evaluateRecordsLocked runs one read-modify-write per applicable scope.
func (t *Tracker) evaluateRecordsLocked(ctx context.Context, name string, start time.Time, d time.Duration, now time.Time) error {
	var errs []error
	for _, scope := range domain.RecordScopes {
		if !scopeApplies(scope, start, now) {
			continue
		}
		rec, err := t.store.Record(ctx, scope)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if d <= rec.Duration {
			continue
		}
		holder, date := name, start
		if err := t.store.PutRecord(ctx, domain.Record{Scope: scope, Holder: &holder, Duration: d, Date: &date}); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info().Str("module", "app.stats").Str("scope", string(scope)).Str("member", name).Dur("duration", d).Msg("new record")
	}
	return errors.Join(errs...)
}

// CurrentSessions lists open sessions with their live duration, by member name.
func (t *Tracker) CurrentSessions() []domain.LiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	out := make([]domain.LiveSession, 0, len(t.active))
	for name, sess := range t.active {
		rooms := make([]domain.RoomName, len(sess.rooms))
		copy(rooms, sess.rooms)
		out = append(out, domain.LiveSession{
			Member:   name,
			Room:     sess.current(),
			Rooms:    rooms,
			Start:    sess.start,
			Duration: now.Sub(sess.start).Seconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Member < out[j].Member })
	return out
}

func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *Tracker) Records(ctx context.Context) ([]domain.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Records(ctx)
}

// ResetRecord clears one scope. Closed sessions are not touched.
func (t *Tracker) ResetRecord(ctx context.Context, scope domain.RecordScope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.ResetRecord(ctx, scope); err != nil {
		return err
	}
	log.Info().Str("module", "app.stats").Str("scope", string(scope)).Msg("record reset")
	return nil
}

func (t *Tracker) ResetDailyStats(ctx context.Context) error {
	return t.ResetRecord(ctx, domain.ScopeToday)
}

func (t *Tracker) ResetWeeklyStats(ctx context.Context) error {
	return t.ResetRecord(ctx, domain.ScopeWeek)
}

func (t *Tracker) ResetMonthlyStats(ctx context.Context) error {
	return t.ResetRecord(ctx, domain.ScopeMonth)
}
