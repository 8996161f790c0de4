// Package ws pushes activity, presence, stats and health to browser
// subscribers over websockets.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/app"
	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/app/health"
	"github.com/dkeye/voicewatch/internal/app/report"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/core"
	"github.com/dkeye/voicewatch/internal/domain"
)

const (
	TypeVoiceUpdate  = "voice_update"
	TypeActivityLog  = "activity_log"
	TypeHealthStatus = "health_status"
	TypeStatsUpdate  = "stats_update"
	TypeLogsHistory  = "logs_history"
	TypePong         = "pong"
	TypeError        = "error"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Hub struct {
	Registry *app.Registry
	Policy   app.Policy
	Log      *activity.Log
	Tracker  *stats.Tracker
	Health   *health.Monitor
	Limiter  *RateLimiter
	Clock    quartz.Clock
	// Snapshot returns the last applied presence snapshot.
	Snapshot func() domain.Snapshot

	SendBuffer     int
	RecentDefault  int
	TopLimit       int
	StatsInterval  time.Duration
	HealthInterval time.Duration
}

var _ core.Publisher = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func encode(msgType string, data any) (core.Frame, error) {
	return json.Marshal(envelope{Type: msgType, Data: data})
}

func (h *Hub) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}

func (h *Hub) PublishActivity(entry domain.LogEntry) {
	h.Broadcast(TypeActivityLog, entry)
}

func (h *Hub) PublishSnapshot(snap domain.Snapshot) {
	h.Broadcast(TypeVoiceUpdate, report.VoiceData(snap))
}

// Broadcast sends one message to every subscriber. A full buffer is
// resolved by the policy.
func (h *Hub) Broadcast(msgType string, data any) {
	frame, err := encode(msgType, data)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("type", msgType).Msg("broadcast marshal")
		return
	}
	for _, sub := range h.Registry.Subscribers() {
		err := sub.Conn.TrySend(frame)
		if !errors.Is(err, ErrBackpressure) {
			continue
		}
		h.onBackpressure(sub.SID, sub.Conn)
	}
}

func (h *Hub) onBackpressure(sid core.SessionID, conn core.Subscriber) {
	action := app.Disconnect
	if h.Policy != nil {
		action = h.Policy.OnBackPressure(sid)
	}
	switch action {
	case app.Disconnect:
		log.Warn().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("slow subscriber disconnected")
		h.Registry.Cancel(sid)
		conn.Close()
	case app.DropMessage, app.NoAction:
		log.Debug().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("message dropped for slow subscriber")
	}
}

func (h *Hub) HandleWS(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	if sid == "" {
		sid = core.SessionID(uuid.NewString())
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("new WS connection")

	buffer := h.SendBuffer
	if buffer <= 0 {
		buffer = 32
	}
	conn := newConn(ws, buffer)
	ctx, cancel := context.WithCancel(ctx)
	if prevConn, prevCancel := h.Registry.Bind(sid, conn, cancel); prevConn != nil {
		// same browser opened a second socket; the newest wins
		if prevCancel != nil {
			prevCancel()
		}
		prevConn.Close()
	}
	if h.Health != nil {
		h.Health.ClientConnected()
	}

	h.sendJSON(conn, TypeVoiceUpdate, report.VoiceData(h.currentSnapshot()))
	if h.Health != nil {
		h.sendJSON(conn, TypeHealthStatus, h.Health.Status())
	}

	go h.writePump(ctx, conn)
	go h.readPump(ctx, cancel, sid, conn)
}

func (h *Hub) currentSnapshot() domain.Snapshot {
	if h.Snapshot == nil {
		return domain.Snapshot{}
	}
	return h.Snapshot()
}

func (h *Hub) sendJSON(c *Conn, msgType string, data any) {
	b, err := encode(msgType, data)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
