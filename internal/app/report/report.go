// Package report shapes tracker and snapshot state into the payloads
// served over HTTP and pushed over websockets.
package report

import (
	"context"
	"fmt"

	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/domain"
)

type RoomView struct {
	Members []domain.MemberPresence `json:"members"`
	Count   int                     `json:"count"`
}

// VoiceData is the wire form of a snapshot.
func VoiceData(snap domain.Snapshot) map[domain.RoomName]RoomView {
	out := make(map[domain.RoomName]RoomView, len(snap))
	for room, members := range snap {
		if members == nil {
			members = []domain.MemberPresence{}
		}
		out[room] = RoomView{Members: members, Count: len(members)}
	}
	return out
}

type StatsUpdate struct {
	AllStats        map[string]domain.MemberStats `json:"all_stats"`
	TopUsers        []domain.TopUser              `json:"top_users"`
	Records         map[string]domain.Record      `json:"records"`
	CurrentSessions []domain.LiveSession          `json:"current_sessions"`
	Period          stats.Window                  `json:"period"`
}

// Stats gathers the full statistics payload for one window.
func Stats(ctx context.Context, t *stats.Tracker, w stats.Window, topLimit int) (StatsUpdate, error) {
	all, err := t.AllStats(ctx, w)
	if err != nil {
		return StatsUpdate{}, fmt.Errorf("stats: %w", err)
	}
	top, err := t.TopUsers(ctx, topLimit)
	if err != nil {
		return StatsUpdate{}, fmt.Errorf("top users: %w", err)
	}
	recs, err := t.Records(ctx)
	if err != nil {
		return StatsUpdate{}, fmt.Errorf("records: %w", err)
	}
	return StatsUpdate{
		AllStats:        all,
		TopUsers:        top,
		Records:         RecordsByKey(recs),
		CurrentSessions: t.CurrentSessions(),
		Period:          w,
	}, nil
}

func RecordsByKey(recs []domain.Record) map[string]domain.Record {
	out := make(map[string]domain.Record, len(recs))
	for _, r := range recs {
		out[r.Scope.Key()] = r
	}
	return out
}

type StatusBreakdown map[domain.OnlineStatus]int

type VoiceStats struct {
	TotalChannels   int             `json:"total_channels"`
	TotalMembers    int             `json:"total_members"`
	Streaming       int             `json:"streaming"`
	WebcamActive    int             `json:"webcam_active"`
	Muted           int             `json:"muted"`
	Deafened        int             `json:"deafened"`
	StatusBreakdown StatusBreakdown `json:"status_breakdown"`
}

// Summarize counts flags across a snapshot. Server and self mute count once.
func Summarize(snap domain.Snapshot) VoiceStats {
	out := VoiceStats{
		TotalChannels: len(snap),
		StatusBreakdown: StatusBreakdown{
			domain.StatusOnline: 0, domain.StatusIdle: 0, domain.StatusDND: 0, domain.StatusOffline: 0,
		},
	}
	for _, members := range snap {
		out.TotalMembers += len(members)
		for _, m := range members {
			if m.Streaming {
				out.Streaming++
			}
			if m.Webcam {
				out.WebcamActive++
			}
			if m.Muted || m.ServerMuted {
				out.Muted++
			}
			if m.Deafened || m.ServerDeafened {
				out.Deafened++
			}
			status := m.Status
			if status == "" {
				status = domain.StatusOffline
			}
			if _, ok := out.StatusBreakdown[status]; ok {
				out.StatusBreakdown[status]++
			}
		}
	}
	return out
}

type MemberProfile struct {
	domain.MemberPresence
	Channel domain.RoomName     `json:"channel"`
	Session *domain.LiveSession `json:"session"`
	Today   domain.MemberStats  `json:"today"`
}

// Profile describes a member currently present in snap.
func Profile(ctx context.Context, t *stats.Tracker, snap domain.Snapshot, name string) (MemberProfile, error) {
	room, m, ok := snap.Find(name)
	if !ok {
		return MemberProfile{}, domain.ErrMemberNotFound
	}
	today, err := t.MemberStats(ctx, stats.WindowToday, name)
	if err != nil {
		return MemberProfile{}, err
	}
	p := MemberProfile{MemberPresence: m, Channel: room, Today: today}
	for _, s := range t.CurrentSessions() {
		if s.Member == name {
			p.Session = &s
			break
		}
	}
	return p, nil
}
