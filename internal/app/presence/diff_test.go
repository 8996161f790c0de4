package presence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voicewatch/internal/app/presence"
	"github.com/dkeye/voicewatch/internal/domain"
)

var at = time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

func member(name string) domain.MemberPresence {
	return domain.MemberPresence{Name: name, Status: domain.StatusOnline}
}

func kinds(events []domain.ActivityEvent) []domain.EventKind {
	out := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestDiff_SameSnapshotIsQuiet(t *testing.T) {
	t.Parallel()

	snap := domain.Snapshot{
		"General": {member("Alice"), {Name: "Bob", Muted: true, Webcam: true}},
		"Gaming":  {member("Carol")},
		"Empty":   {},
	}
	assert.Empty(t, presence.Diff(snap, snap, at))
	assert.Empty(t, presence.Diff(nil, nil, at))
	assert.Empty(t, presence.Diff(domain.Snapshot{}, domain.Snapshot{}, at))
}

func TestDiff_Repeatable(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {member("Alice"), member("Bob")}, "B": {member("Carol")}}
	cur := domain.Snapshot{"A": {{Name: "Bob", Muted: true}}, "B": {member("Carol"), member("Alice")}, "C": {member("Dave")}}

	first := presence.Diff(prev, cur, at)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, presence.Diff(prev, cur, at))
	}
}

func TestDiff_Move(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {member("Alice")}, "B": {}}
	cur := domain.Snapshot{"A": {}, "B": {member("Alice")}}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 1)
	assert.Equal(t, domain.NewMove("Alice", "A", "B", at), events[0])
}

func TestDiff_MoveIntoNewRoom(t *testing.T) {
	t.Parallel()

	// The source room disappears from the current snapshot entirely.
	prev := domain.Snapshot{"Z": {member("Alice")}}
	cur := domain.Snapshot{"A": {member("Alice")}}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventMove, events[0].Kind)
	assert.Equal(t, domain.RoomName("Z"), events[0].From)
	assert.Equal(t, domain.RoomName("A"), events[0].To)
}

func TestDiff_JoinAndLeave(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {member("Alice")}}
	cur := domain.Snapshot{"A": {member("Bob")}}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 2)
	assert.Equal(t, domain.NewJoin("Bob", "A", at), events[0])
	assert.Equal(t, domain.NewLeave("Alice", "A", at), events[1])
}

func TestDiff_NamesAreCaseSensitive(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {member("alice")}}
	cur := domain.Snapshot{"A": {member("Alice")}}

	assert.Equal(t, []domain.EventKind{domain.EventJoin, domain.EventLeave}, kinds(presence.Diff(prev, cur, at)))
}

func TestDiff_FlagsAreIndependent(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {member("Alice")}}
	cur := domain.Snapshot{"A": {{Name: "Alice", Muted: true, Streaming: true}}}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 2)
	assert.ElementsMatch(t, []domain.EventKind{domain.EventMute, domain.EventStreamStart}, kinds(events))
	for _, e := range events {
		assert.Equal(t, "Alice", e.Member)
		assert.Equal(t, domain.RoomName("A"), e.Room)
	}
}

func TestDiff_AllSixFlags(t *testing.T) {
	t.Parallel()

	off := domain.MemberPresence{Name: "Alice"}
	on := domain.MemberPresence{
		Name: "Alice", Muted: true, Deafened: true, ServerMuted: true,
		ServerDeafened: true, Streaming: true, Webcam: true,
	}

	up := presence.Diff(domain.Snapshot{"A": {off}}, domain.Snapshot{"A": {on}}, at)
	assert.Equal(t, []domain.EventKind{
		domain.EventMute, domain.EventDeafen, domain.EventServerMute,
		domain.EventServerDeafen, domain.EventStreamStart, domain.EventWebcamOn,
	}, kinds(up))

	down := presence.Diff(domain.Snapshot{"A": {on}}, domain.Snapshot{"A": {off}}, at)
	assert.Equal(t, []domain.EventKind{
		domain.EventUnmute, domain.EventUndeafen, domain.EventServerUnmute,
		domain.EventServerUndeafen, domain.EventStreamStop, domain.EventWebcamOff,
	}, kinds(down))
}

func TestDiff_StatusChangeIsNotAnEvent(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {{Name: "Alice", Status: domain.StatusOnline}}}
	cur := domain.Snapshot{"A": {{Name: "Alice", Status: domain.StatusIdle}}}
	assert.Empty(t, presence.Diff(prev, cur, at))
}

func TestDiff_MoveCarriesNoFlagEvents(t *testing.T) {
	t.Parallel()

	// Flag changes across a move are not reported: the member is not retained
	// in any single room.
	prev := domain.Snapshot{"A": {member("Alice")}}
	cur := domain.Snapshot{"B": {{Name: "Alice", Muted: true}}}
	assert.Equal(t, []domain.EventKind{domain.EventMove}, kinds(presence.Diff(prev, cur, at)))
}

func TestDiff_MembershipBeforeState(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{
		"A": {member("Alice"), member("Bob")},
		"B": {member("Carol")},
	}
	cur := domain.Snapshot{
		"A": {{Name: "Alice", Deafened: true}},
		"B": {{Name: "Carol", Webcam: true}},
		"C": {member("Bob"), member("Dave")},
	}

	events := presence.Diff(prev, cur, at)
	assert.Equal(t, []domain.EventKind{
		domain.EventMove, domain.EventJoin, domain.EventDeafen, domain.EventWebcamOn,
	}, kinds(events))
	assert.Equal(t, domain.NewMove("Bob", "A", "C", at), events[0])
	assert.Equal(t, domain.NewJoin("Dave", "C", at), events[1])
}

func TestDiff_DuplicatePreviousRoomPicksLowestName(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{
		"Lounge": {member("Alice")},
		"Attic":  {member("Alice")},
	}
	cur := domain.Snapshot{"Zoo": {member("Alice")}}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 1)
	assert.Equal(t, domain.NewMove("Alice", "Attic", "Zoo", at), events[0])
}

func TestDiff_DuplicateLeaveReportedOnce(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{"A": {member("Alice")}, "B": {member("Alice")}}
	cur := domain.Snapshot{}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 1)
	assert.Equal(t, domain.NewLeave("Alice", "A", at), events[0])
}

func TestDiff_OneMembershipEventPerMember(t *testing.T) {
	t.Parallel()

	prev := domain.Snapshot{}
	cur := domain.Snapshot{"A": {member("Alice")}, "B": {member("Alice")}}

	events := presence.Diff(prev, cur, at)
	require.Len(t, events, 1)
	assert.Equal(t, domain.NewJoin("Alice", "A", at), events[0])
}
