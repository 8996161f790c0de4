// Package source provides snapshot sources for the watcher: a generated
// demo guild and a push endpoint fed by an external bot.
package source

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/domain"
)

// Demo perturbs the fixture on every call after the first. The same seed
// gives the same sequence of snapshots.
type Demo struct {
	mu    sync.Mutex
	rng   *rand.Rand
	state domain.Snapshot
	away  map[string]domain.MemberPresence
	calls int
}

func NewDemo(seed uint64) *Demo {
	return &Demo{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		state: Fixture(),
		away:  make(map[string]domain.MemberPresence),
	}
}

func (d *Demo) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.calls > 0 {
		d.step()
	}
	d.calls++
	return d.state.Clone(), nil
}

func (d *Demo) step() {
	switch n := d.rng.IntN(10); {
	case n < 5:
		d.toggle()
	case n < 7:
		d.move()
	case n < 8:
		d.leave()
	default:
		d.rejoin()
	}
}

type slot struct {
	room  domain.RoomName
	index int
}

func (d *Demo) slots() []slot {
	var out []slot
	for _, room := range d.state.RoomNames() {
		for i := range d.state[room] {
			out = append(out, slot{room, i})
		}
	}
	return out
}

func (d *Demo) pick() (slot, bool) {
	slots := d.slots()
	if len(slots) == 0 {
		return slot{}, false
	}
	return slots[d.rng.IntN(len(slots))], true
}

func (d *Demo) toggle() {
	s, ok := d.pick()
	if !ok {
		return
	}
	m := &d.state[s.room][s.index]
	switch d.rng.IntN(6) {
	case 0:
		m.Muted = !m.Muted
	case 1:
		m.Deafened = !m.Deafened
	case 2:
		m.ServerMuted = !m.ServerMuted
	case 3:
		m.ServerDeafened = !m.ServerDeafened
	case 4:
		m.Streaming = !m.Streaming
	default:
		m.Webcam = !m.Webcam
	}
}

func (d *Demo) remove(s slot) domain.MemberPresence {
	members := d.state[s.room]
	m := members[s.index]
	d.state[s.room] = append(members[:s.index:s.index], members[s.index+1:]...)
	return m
}

func (d *Demo) move() {
	s, ok := d.pick()
	if !ok {
		return
	}
	rooms := d.state.RoomNames()
	to := rooms[d.rng.IntN(len(rooms))]
	if to == s.room {
		return
	}
	m := d.remove(s)
	d.state[to] = append(d.state[to], m)
	log.Debug().Str("module", "adapters.source").Str("member", m.Name).Str("to", string(to)).Msg("demo move")
}

func (d *Demo) leave() {
	s, ok := d.pick()
	if !ok {
		return
	}
	m := d.remove(s)
	d.away[m.Name] = m
}

func (d *Demo) rejoin() {
	if len(d.away) == 0 {
		d.toggle()
		return
	}
	names := make([]string, 0, len(d.away))
	for name := range d.away {
		names = append(names, name)
	}
	sort.Strings(names)
	name := names[d.rng.IntN(len(names))]
	rooms := d.state.RoomNames()
	to := rooms[d.rng.IntN(len(rooms))]
	d.state[to] = append(d.state[to], d.away[name])
	delete(d.away, name)
}
