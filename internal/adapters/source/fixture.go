package source

import "github.com/dkeye/voicewatch/internal/domain"

func avatar(n string) string { return "https://i.pravatar.cc/150?img=" + n }

// Fixture is the demo guild: three rooms and six members.
func Fixture() domain.Snapshot {
	return domain.Snapshot{
		"🎧 Salon Principal": {
			{Name: "Alice", Avatar: avatar("1"), Status: domain.StatusOnline, Webcam: true},
			{Name: "Bob", Avatar: avatar("2"), Status: domain.StatusOnline, Streaming: true, Muted: true},
			{Name: "Charlie", Avatar: avatar("3"), Status: domain.StatusIdle, Deafened: true},
		},
		"🎮 Gaming": {
			{Name: "Dave", Avatar: avatar("4"), Status: domain.StatusDND, Webcam: true, Streaming: true, Muted: true, Deafened: true},
			{Name: "Eve", Avatar: avatar("5"), Status: domain.StatusOnline, ServerMuted: true},
		},
		"🎶 Musique": {
			{Name: "Frank", Avatar: avatar("6"), Status: domain.StatusOnline, Webcam: true},
		},
	}
}
