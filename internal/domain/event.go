package domain

import "time"

type EventKind string

const (
	EventJoin           EventKind = "join"
	EventLeave          EventKind = "leave"
	EventMove           EventKind = "move"
	EventMute           EventKind = "mute"
	EventUnmute         EventKind = "unmute"
	EventDeafen         EventKind = "deafen"
	EventUndeafen       EventKind = "undeafen"
	EventServerMute     EventKind = "server_mute"
	EventServerUnmute   EventKind = "server_unmute"
	EventServerDeafen   EventKind = "server_deafen"
	EventServerUndeafen EventKind = "server_undeafen"
	EventStreamStart    EventKind = "stream_start"
	EventStreamStop     EventKind = "stream_stop"
	EventWebcamOn       EventKind = "webcam_on"
	EventWebcamOff      EventKind = "webcam_off"
)

var eventKinds = map[EventKind]struct{}{
	EventJoin: {}, EventLeave: {}, EventMove: {},
	EventMute: {}, EventUnmute: {}, EventDeafen: {}, EventUndeafen: {},
	EventServerMute: {}, EventServerUnmute: {}, EventServerDeafen: {}, EventServerUndeafen: {},
	EventStreamStart: {}, EventStreamStop: {}, EventWebcamOn: {}, EventWebcamOff: {},
}

func (k EventKind) Valid() bool {
	_, ok := eventKinds[k]
	return ok
}

// Membership reports whether the kind changes room membership.
func (k EventKind) Membership() bool {
	return k == EventJoin || k == EventLeave || k == EventMove
}

// ActivityEvent is immutable once built.
// Move fills From and To; every other kind fills Room only.
type ActivityEvent struct {
	Kind   EventKind `json:"type"`
	Member string    `json:"member"`
	Room   RoomName  `json:"channel,omitempty"`
	From   RoomName  `json:"from_channel,omitempty"`
	To     RoomName  `json:"to_channel,omitempty"`
	At     time.Time `json:"timestamp"`
}

func NewJoin(member string, room RoomName, at time.Time) ActivityEvent {
	return ActivityEvent{Kind: EventJoin, Member: member, Room: room, At: at}
}

func NewLeave(member string, room RoomName, at time.Time) ActivityEvent {
	return ActivityEvent{Kind: EventLeave, Member: member, Room: room, At: at}
}

func NewMove(member string, from, to RoomName, at time.Time) ActivityEvent {
	return ActivityEvent{Kind: EventMove, Member: member, From: from, To: to, At: at}
}

func NewStateEvent(kind EventKind, member string, room RoomName, at time.Time) ActivityEvent {
	return ActivityEvent{Kind: kind, Member: member, Room: room, At: at}
}

// CurrentRoom is the room the member occupies after the event.
func (e ActivityEvent) CurrentRoom() RoomName {
	if e.Kind == EventMove {
		return e.To
	}
	return e.Room
}

// LogEntry is an ActivityEvent as stored in the activity log.
type LogEntry struct {
	ID string `json:"id"`
	ActivityEvent
	TimeStr string `json:"time_str"`
}
