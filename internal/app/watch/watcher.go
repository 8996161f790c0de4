// Package watch drives the presence pipeline: fetch a snapshot, diff it
// against the previous one, then feed the activity log, the session
// tracker and the subscribers.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/app/health"
	"github.com/dkeye/voicewatch/internal/app/presence"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/core"
	"github.com/dkeye/voicewatch/internal/domain"
)

const DefaultInterval = 10 * time.Second

type Watcher struct {
	Source    core.SnapshotSource
	Log       *activity.Log
	Tracker   *stats.Tracker
	Health    *health.Monitor
	Publisher core.Publisher
	Clock     quartz.Clock
	// Rooms restricts the watched rooms; empty watches all of them.
	Rooms    []domain.RoomName
	Interval time.Duration

	mu     sync.Mutex
	prev   domain.Snapshot
	seeded bool

	snapMu  sync.RWMutex
	current domain.Snapshot
}

var realClock = quartz.NewReal()

func (w *Watcher) clock() quartz.Clock {
	if w.Clock == nil {
		return realClock
	}
	return w.Clock
}

// Seed makes the tracker's open sessions the previous snapshot, so the
// first diff continues recovered sessions instead of reopening them.
func (w *Watcher) Seed() {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := make(domain.Snapshot)
	index := make(map[string]domain.RoomName)
	for _, s := range w.Tracker.CurrentSessions() {
		snap[s.Room] = append(snap[s.Room], domain.MemberPresence{Name: s.Member})
		index[s.Member] = s.Room
	}
	w.Log.SeedMembers(index)
	w.prev = snap
	w.seeded = true
	log.Info().Str("module", "app.watch").Int("members", snap.MemberCount()).Msg("seeded from open sessions")
}

// Poll runs one diff pass. A fetch failure leaves the previous snapshot in
// place. Storage failures are joined into the returned error after every
// event has been processed.
func (w *Watcher) Poll(ctx context.Context) ([]domain.ActivityEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.Source.Snapshot(ctx)
	if err != nil {
		if w.Health != nil {
			w.Health.SnapshotFailed(err)
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	if w.Health != nil {
		w.Health.Heartbeat()
	}
	if err := snap.Validate(); err != nil {
		log.Warn().Err(err).Str("module", "app.watch").Msg("malformed snapshot")
	}
	snap = snap.Filter(w.Rooms).Clone()

	events := presence.Diff(w.prev, snap, w.clock().Now())
	if w.seeded {
		// the seed carries no flags, so its flag transitions are not real
		events = membershipOnly(events)
		w.seeded = false
	}

	var errs []error
	for _, ev := range events {
		entry := w.Log.Append(ev)
		if ev.Kind.Membership() {
			if err := w.Tracker.Apply(ctx, ev); err != nil {
				log.Error().Err(err).Str("module", "app.watch").Str("member", ev.Member).Str("type", string(ev.Kind)).Msg("session update failed")
				if w.Health != nil {
					w.Health.StorageFailed(err)
				}
				errs = append(errs, fmt.Errorf("%s %s: %w", ev.Kind, ev.Member, err))
			}
		}
		if w.Publisher != nil {
			w.Publisher.PublishActivity(entry)
		}
	}

	w.prev = snap
	w.snapMu.Lock()
	w.current = snap
	w.snapMu.Unlock()

	if w.Health != nil {
		w.Health.SnapshotApplied(len(snap), events)
		w.Health.ActiveSessions(w.Tracker.ActiveCount())
	}
	if w.Publisher != nil {
		w.Publisher.PublishSnapshot(snap.Clone())
	}
	if len(events) > 0 {
		log.Debug().Str("module", "app.watch").Int("events", len(events)).Msg("snapshot applied")
	}
	return events, errors.Join(errs...)
}

// Current returns a copy of the last applied snapshot.
func (w *Watcher) Current() domain.Snapshot {
	w.snapMu.RLock()
	defer w.snapMu.RUnlock()
	if w.current == nil {
		return domain.Snapshot{}
	}
	return w.current.Clone()
}

// Run seeds, polls once, then polls on every tick and on every source
// notification until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.Seed()
	w.poll(ctx)

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	tkr := w.clock().TickerFunc(ctx, interval, func() error {
		w.poll(ctx)
		return nil
	}, "watch", "poll")

	var updates <-chan struct{}
	if ns, ok := w.Source.(core.NotifyingSource); ok {
		updates = ns.Updates()
	}
	log.Info().Str("module", "app.watch").Dur("interval", interval).Bool("push", updates != nil).Msg("watcher started")

	for {
		select {
		case <-ctx.Done():
			err := tkr.Wait()
			log.Info().Str("module", "app.watch").Msg("watcher stopped")
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-updates:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	if _, err := w.Poll(ctx); err != nil {
		log.Error().Err(err).Str("module", "app.watch").Msg("poll failed")
	}
}

func membershipOnly(events []domain.ActivityEvent) []domain.ActivityEvent {
	out := events[:0]
	for _, ev := range events {
		if ev.Kind.Membership() {
			out = append(out, ev)
		}
	}
	return out
}
