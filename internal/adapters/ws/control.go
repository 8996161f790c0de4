package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/app/report"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/core"
	"github.com/dkeye/voicewatch/internal/domain"
)

func (h *Hub) sendError(c *Conn, msg string) {
	h.sendJSON(c, TypeError, struct {
		Message string `json:"message"`
	}{msg})
}

func (h *Hub) handlePing(c *Conn) {
	h.sendJSON(c, TypePong, struct {
		Timestamp time.Time `json:"timestamp"`
	}{h.now()})
}

func (h *Hub) handleGetLogs(c *Conn, raw json.RawMessage) {
	var req struct {
		Limit int `json:"limit"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &req)
	}
	if req.Limit <= 0 {
		req.Limit = h.RecentDefault
	}
	h.sendJSON(c, TypeLogsHistory, struct {
		Logs []domain.LogEntry `json:"logs"`
	}{h.Log.Recent(req.Limit)})
}

func (h *Hub) handleGetStats(ctx context.Context, sid core.SessionID, c *Conn, raw json.RawMessage) {
	if h.Limiter != nil && !h.Limiter.Allow(sid) {
		h.sendError(c, "rate limited")
		return
	}
	var req struct {
		Period string `json:"period"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &req)
	}
	window, err := stats.ParseWindow(req.Period)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	up, err := report.Stats(ctx, h.Tracker, window, h.TopLimit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("get_stats")
		h.sendError(c, "stats unavailable")
		return
	}
	h.sendJSON(c, TypeStatsUpdate, up)
}
