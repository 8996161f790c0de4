// Package presence turns two room snapshots into discrete activity events.
package presence

import (
	"sort"
	"time"

	"github.com/dkeye/voicewatch/internal/domain"
)

// flagRule maps one boolean presence flag to its edge-triggered event pair.
type flagRule struct {
	name string
	get  func(domain.MemberPresence) bool
	on   domain.EventKind
	off  domain.EventKind
}

var flagTable = []flagRule{
	{"self_mute", func(m domain.MemberPresence) bool { return m.Muted }, domain.EventMute, domain.EventUnmute},
	{"self_deafen", func(m domain.MemberPresence) bool { return m.Deafened }, domain.EventDeafen, domain.EventUndeafen},
	{"server_mute", func(m domain.MemberPresence) bool { return m.ServerMuted }, domain.EventServerMute, domain.EventServerUnmute},
	{"server_deafen", func(m domain.MemberPresence) bool { return m.ServerDeafened }, domain.EventServerDeafen, domain.EventServerUndeafen},
	{"stream", func(m domain.MemberPresence) bool { return m.Streaming }, domain.EventStreamStart, domain.EventStreamStop},
	{"webcam", func(m domain.MemberPresence) bool { return m.Webcam }, domain.EventWebcamOn, domain.EventWebcamOff},
}

// view is the set form of a snapshot plus a member -> rooms reverse index.
type view struct {
	rooms map[domain.RoomName]map[string]domain.MemberPresence
	where map[string][]domain.RoomName
}

func newView(s domain.Snapshot) view {
	v := view{
		rooms: make(map[domain.RoomName]map[string]domain.MemberPresence, len(s)),
		where: make(map[string][]domain.RoomName),
	}
	for _, room := range s.RoomNames() {
		set := make(map[string]domain.MemberPresence, len(s[room]))
		for _, m := range s[room] {
			if _, dup := set[m.Name]; !dup {
				v.where[m.Name] = append(v.where[m.Name], room)
			}
			set[m.Name] = m
		}
		v.rooms[room] = set
	}
	return v
}

// elsewhere returns the first room other than room holding name.
// Rooms are indexed in ascending name order, so with a malformed snapshot
// (member in several rooms) the lowest room name wins.
func (v view) elsewhere(name string, room domain.RoomName) (domain.RoomName, bool) {
	for _, r := range v.where[name] {
		if r != room {
			return r, true
		}
	}
	return "", false
}

// Diff compares prev and cur and returns the resulting events, all stamped
// with at. Membership events (join, move, leave) come first, then flag
// events. Rooms and members are visited in ascending name order, so the
// output is repeatable for a given pair of snapshots.
func Diff(prev, cur domain.Snapshot, at time.Time) []domain.ActivityEvent {
	pv, cv := newView(prev), newView(cur)

	var membership, state []domain.ActivityEvent
	moved := make(map[string]bool)
	for _, room := range unionRooms(prev, cur) {
		before, now := pv.rooms[room], cv.rooms[room]

		for _, name := range sortedNames(now) {
			if _, stayed := before[name]; stayed || moved[name] {
				continue
			}
			moved[name] = true
			if from, ok := pv.elsewhere(name, room); ok {
				membership = append(membership, domain.NewMove(name, from, room, at))
			} else {
				membership = append(membership, domain.NewJoin(name, room, at))
			}
		}

		for _, name := range sortedNames(before) {
			if _, stayed := now[name]; stayed || moved[name] {
				continue
			}
			// Still present somewhere: the move is reported from the destination.
			if _, ok := cv.elsewhere(name, room); ok {
				continue
			}
			moved[name] = true
			membership = append(membership, domain.NewLeave(name, room, at))
		}

		for _, name := range sortedNames(now) {
			old, stayed := before[name]
			if !stayed {
				continue
			}
			state = append(state, flagEvents(old, now[name], room, at)...)
		}
	}
	return append(membership, state...)
}

// flagEvents emits one event per flag that flipped between old and cur.
func flagEvents(old, cur domain.MemberPresence, room domain.RoomName, at time.Time) []domain.ActivityEvent {
	var out []domain.ActivityEvent
	for _, rule := range flagTable {
		was, is := rule.get(old), rule.get(cur)
		if was == is {
			continue
		}
		kind := rule.off
		if is {
			kind = rule.on
		}
		out = append(out, domain.NewStateEvent(kind, cur.Name, room, at))
	}
	return out
}

func unionRooms(a, b domain.Snapshot) []domain.RoomName {
	seen := make(map[domain.RoomName]struct{}, len(a)+len(b))
	for r := range a {
		seen[r] = struct{}{}
	}
	for r := range b {
		seen[r] = struct{}{}
	}
	out := make([]domain.RoomName, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedNames(set map[string]domain.MemberPresence) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
