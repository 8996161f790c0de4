package app

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/core"
)

type subscriberEntry struct {
	Conn   core.Subscriber
	Cancel context.CancelFunc
}

// Registry holds live push subscribers by client token.
type Registry struct {
	mu   sync.RWMutex
	subs map[core.SessionID]*subscriberEntry
}

func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[core.SessionID]*subscriberEntry),
	}
}

// Bind registers conn under sid and returns the connection it replaced, if
// any. The caller closes the replaced one.
func (r *Registry) Bind(sid core.SessionID, conn core.Subscriber, cancel context.CancelFunc) (core.Subscriber, context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var prevConn core.Subscriber
	var prevCancel context.CancelFunc
	if prev, ok := r.subs[sid]; ok {
		prevConn, prevCancel = prev.Conn, prev.Cancel
	}
	r.subs[sid] = &subscriberEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound subscriber")
	return prevConn, prevCancel
}

func (r *Registry) Get(sid core.SessionID) (core.Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.subs[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Unbind removes sid only while it still maps to conn, so a stale pump
// cannot drop its replacement.
func (r *Registry) Unbind(sid core.SessionID, conn core.Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.subs[sid]
	if !ok || e.Conn != conn {
		return false
	}
	delete(r.subs, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind subscriber")
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

type regSnap struct {
	SID  core.SessionID
	Conn core.Subscriber
}

// Subscribers returns a copy ordered by sid.
func (r *Registry) Subscribers() []regSnap {
	r.mu.RLock()
	out := make([]regSnap, 0, len(r.subs))
	for sid, e := range r.subs {
		out = append(out, regSnap{SID: sid, Conn: e.Conn})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SID < out[j].SID })
	return out
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.subs[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled subscriber")
	return true
}
