package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dkeye/voicewatch/internal/domain"
)

// OpenSession inserts an active session row and returns its id.
func (s *Store) OpenSession(ctx context.Context, member string, room domain.RoomName, start time.Time) (uint, error) {
	row := sessionRow{
		MemberName: member,
		StartTime:  start,
		StartDate:  start.Format(dateLayout),
		Rooms:      roomStrings([]domain.RoomName{room}),
		IsActive:   true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("store: open session for %q: %w", member, err)
	}
	return row.ID, nil
}

// CloseSession writes end time, duration and the final room list. A session
// that was never persisted (zero id) is inserted as a closed row.
func (s *Store) CloseSession(ctx context.Context, sess domain.Session) error {
	if sess.End == nil {
		return fmt.Errorf("store: close session for %q: missing end time", sess.Member)
	}
	duration := sess.Duration.Seconds()

	if sess.ID == 0 {
		row := sessionRow{
			MemberName: sess.Member,
			StartTime:  sess.Start,
			StartDate:  sess.Start.Format(dateLayout),
			EndTime:    sess.End,
			Duration:   &duration,
			Rooms:      roomStrings(sess.Rooms),
			IsActive:   false,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("store: insert closed session for %q: %w", sess.Member, err)
		}
		return nil
	}

	res := s.db.WithContext(ctx).
		Model(&sessionRow{}).
		Where("id = ?", sess.ID).
		Updates(map[string]any{
			"end_time":  *sess.End,
			"duration":  duration,
			"rooms":     roomStrings(sess.Rooms),
			"is_active": false,
		})
	if res.Error != nil {
		return fmt.Errorf("store: close session %d: %w", sess.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: close session %d: %w", sess.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// OpenSessions lists rows left active in insertion order. After a crash
// these are the sessions to resume.
func (s *Store) OpenSessions(ctx context.Context) ([]domain.Session, error) {
	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND end_time IS NULL", true).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: open sessions: %w", err)
	}
	return toSessions(rows), nil
}

func (s *Store) ClosedSessions(ctx context.Context, from, to time.Time, member string) ([]domain.Session, error) {
	q := s.db.WithContext(ctx).
		Where("is_active = ? AND start_date >= ? AND start_date < ?", false, from.Format(dateLayout), to.Format(dateLayout))
	if member != "" {
		q = q.Where("member_name = ?", member)
	}

	var rows []sessionRow
	if err := q.Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: closed sessions: %w", err)
	}
	return toSessions(rows), nil
}

func toSessions(rows []sessionRow) []domain.Session {
	out := make([]domain.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
