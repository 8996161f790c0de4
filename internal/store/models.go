package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/dkeye/voicewatch/internal/domain"
)

type sessionRow struct {
	ID         uint `gorm:"primaryKey"`
	MemberName string
	StartTime  time.Time
	StartDate  string
	EndTime    *time.Time
	Duration   *float64
	Rooms      datatypes.JSONSlice[string]
	IsActive   bool
	CreatedAt  time.Time
}

func (sessionRow) TableName() string { return "sessions" }

func (r sessionRow) toDomain() domain.Session {
	s := domain.Session{
		ID:     r.ID,
		Member: r.MemberName,
		Start:  r.StartTime,
		End:    r.EndTime,
		Rooms:  make([]domain.RoomName, 0, len(r.Rooms)),
		Active: r.IsActive,
	}
	if r.Duration != nil {
		s.Duration = secondsToDuration(*r.Duration)
	}
	for _, room := range r.Rooms {
		s.Rooms = append(s.Rooms, domain.RoomName(room))
	}
	return s
}

type recordRow struct {
	Scope      string `gorm:"primaryKey"`
	MemberName *string
	Duration   float64
	Date       *time.Time
	UpdatedAt  time.Time
}

func (recordRow) TableName() string { return "records" }

func (r recordRow) toDomain() (domain.Record, bool) {
	scope, ok := scopeFromKey(r.Scope)
	if !ok {
		return domain.Record{}, false
	}
	return domain.Record{
		Scope:    scope,
		Holder:   r.MemberName,
		Duration: secondsToDuration(r.Duration),
		Date:     r.Date,
	}, true
}

func scopeFromKey(key string) (domain.RecordScope, bool) {
	for _, scope := range domain.RecordScopes {
		if scope.Key() == key {
			return scope, true
		}
	}
	return "", false
}

func roomStrings(rooms []domain.RoomName) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(rooms))
	for _, r := range rooms {
		out = append(out, string(r))
	}
	return out
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
