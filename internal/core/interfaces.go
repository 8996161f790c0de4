package core

import (
	"context"
	"time"

	"github.com/dkeye/voicewatch/internal/domain"
)

// SnapshotSource supplies full room snapshots. Owned by an adapter.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// NotifyingSource is a SnapshotSource that can also signal that a fresh
// snapshot is available, so the watcher does not wait for the next tick.
type NotifyingSource interface {
	SnapshotSource
	Updates() <-chan struct{}
}

// SessionStore is the durable side of the session tracker.
// Every call blocks until the write or read has completed.
type SessionStore interface {
	OpenSession(ctx context.Context, member string, room domain.RoomName, start time.Time) (uint, error)
	// CloseSession finalizes s. A zero s.ID inserts a closed row instead.
	CloseSession(ctx context.Context, s domain.Session) error
	OpenSessions(ctx context.Context) ([]domain.Session, error)
	// ClosedSessions returns closed sessions whose start date lies in
	// [from, to); an empty member selects everyone.
	ClosedSessions(ctx context.Context, from, to time.Time, member string) ([]domain.Session, error)

	Records(ctx context.Context) ([]domain.Record, error)
	Record(ctx context.Context, scope domain.RecordScope) (domain.Record, error)
	PutRecord(ctx context.Context, rec domain.Record) error
	ResetRecord(ctx context.Context, scope domain.RecordScope) error
}

// Publisher pushes computed state to subscribers. Delivery is best effort.
type Publisher interface {
	PublishActivity(entry domain.LogEntry)
	PublishSnapshot(snap domain.Snapshot)
}
