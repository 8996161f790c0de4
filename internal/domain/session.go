package domain

import "time"

// Session is one continuous presence span from join to leave.
// ID is the storage row id; zero means the row was never persisted.
type Session struct {
	ID       uint          `json:"id,omitempty"`
	Member   string        `json:"member"`
	Start    time.Time     `json:"start_time"`
	End      *time.Time    `json:"end_time,omitempty"`
	Duration time.Duration `json:"-"`
	Rooms    []RoomName    `json:"channels"`
	Active   bool          `json:"is_active"`
}

// CurrentRoom is the last room in the visit list.
func (s Session) CurrentRoom() RoomName {
	if len(s.Rooms) == 0 {
		return ""
	}
	return s.Rooms[len(s.Rooms)-1]
}

// LiveSession is the query view of an open session.
type LiveSession struct {
	Member   string     `json:"member"`
	Room     RoomName   `json:"channel"`
	Rooms    []RoomName `json:"channels"`
	Start    time.Time  `json:"join_time"`
	Duration float64    `json:"duration"`
}

// MemberStats aggregates sessions inside a date window. Times are seconds.
type MemberStats struct {
	TotalTime      float64    `json:"total_time"`
	SessionCount   int        `json:"session_count"`
	AverageSession float64    `json:"average_session"`
	RoomsVisited   []RoomName `json:"channels_visited"`
}

// TopUser is one row of the daily ranking.
type TopUser struct {
	Member    string  `json:"member"`
	TotalTime float64 `json:"total_time"`
}
