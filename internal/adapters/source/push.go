package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/dkeye/voicewatch/internal/domain"
)

var (
	ErrNoSnapshot = errors.New("no snapshot pushed yet")
	ErrStale      = errors.New("pushed snapshot is stale")
)

// Push holds the last snapshot posted by an external bot. A snapshot older
// than maxAge is reported as stale so the watcher keeps its previous state.
type Push struct {
	mu      sync.RWMutex
	clock   quartz.Clock
	maxAge  time.Duration
	snap    domain.Snapshot
	at      time.Time
	updates chan struct{}
}

func NewPush(clock quartz.Clock, maxAge time.Duration) *Push {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Push{
		clock:   clock,
		maxAge:  maxAge,
		updates: make(chan struct{}, 1),
	}
}

// Set stores snap and wakes the watcher. Pending wakeups coalesce.
func (p *Push) Set(snap domain.Snapshot) {
	if snap == nil {
		snap = domain.Snapshot{}
	}
	p.mu.Lock()
	p.snap = snap.Clone()
	p.at = p.clock.Now()
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *Push) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snap == nil {
		return nil, ErrNoSnapshot
	}
	if p.maxAge > 0 && p.clock.Since(p.at) > p.maxAge {
		return nil, ErrStale
	}
	return p.snap.Clone(), nil
}

func (p *Push) Updates() <-chan struct{} { return p.updates }
