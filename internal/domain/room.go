// Package domain contains entities without logic, just meta-data
package domain

import (
	"fmt"
	"sort"
)

type RoomName string

// Snapshot is a point-in-time view of who sits in which room.
// Member order inside a room carries no meaning.
type Snapshot map[RoomName][]MemberPresence

// RoomNames returns the snapshot's rooms in ascending order.
func (s Snapshot) RoomNames() []RoomName {
	out := make([]RoomName, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MemberCount counts members over all rooms.
func (s Snapshot) MemberCount() int {
	n := 0
	for _, members := range s {
		n += len(members)
	}
	return n
}

// Find returns the first room (in RoomNames order) holding name.
func (s Snapshot) Find(name string) (RoomName, MemberPresence, bool) {
	for _, room := range s.RoomNames() {
		for _, m := range s[room] {
			if m.Name == name {
				return room, m, true
			}
		}
	}
	return "", MemberPresence{}, false
}

// Filter keeps only the listed rooms. An empty list keeps everything.
func (s Snapshot) Filter(rooms []RoomName) Snapshot {
	if len(rooms) == 0 {
		return s
	}
	out := make(Snapshot, len(rooms))
	for _, r := range rooms {
		if members, ok := s[r]; ok {
			out[r] = members
		}
	}
	return out
}

// Clone deep-copies the snapshot so callers can keep it as the next "previous".
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for room, members := range s {
		cp := make([]MemberPresence, len(members))
		copy(cp, members)
		out[room] = cp
	}
	return out
}

// Validate reports an unnamed member or a member listed in two places.
// Callers treat it as a diagnostic: diffing a malformed snapshot still works.
func (s Snapshot) Validate() error {
	seen := make(map[string]RoomName)
	for _, room := range s.RoomNames() {
		for _, m := range s[room] {
			if m.Name == "" {
				return fmt.Errorf("%w: unnamed member in %q", ErrInvalidSnapshot, room)
			}
			if first, dup := seen[m.Name]; dup {
				return fmt.Errorf("%w: %q listed in %q and %q", ErrInvalidSnapshot, m.Name, first, room)
			}
			seen[m.Name] = room
		}
	}
	return nil
}
