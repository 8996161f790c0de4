package domain

// OnlineStatus mirrors the platform presence string.
type OnlineStatus string

const (
	StatusOnline  OnlineStatus = "online"
	StatusIdle    OnlineStatus = "idle"
	StatusDND     OnlineStatus = "dnd"
	StatusOffline OnlineStatus = "offline"
)

// MemberPresence represents one member's state inside a voice room.
// Name is the identity; it is case-sensitive.
type MemberPresence struct {
	Name           string       `json:"name"`
	Avatar         string       `json:"avatar,omitempty"`
	Status         OnlineStatus `json:"status"`
	Muted          bool         `json:"muted"`
	Deafened       bool         `json:"deafened"`
	ServerMuted    bool         `json:"server_muted"`
	ServerDeafened bool         `json:"server_deafened"`
	Streaming      bool         `json:"stream"`
	Webcam         bool         `json:"webcam"`
}
