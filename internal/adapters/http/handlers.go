package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/app/report"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/config"
	"github.com/dkeye/voicewatch/internal/domain"
)

type handlers struct {
	Deps
	cfg *config.Config
}

func fail(c *gin.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(code, gin.H{"success": false, "error": err.Error()})
}

func (h *handlers) snapshot() domain.Snapshot {
	if h.Snapshot == nil {
		return domain.Snapshot{}
	}
	return h.Snapshot()
}

func (h *handlers) voiceData(c *gin.Context) {
	snap := h.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report.VoiceData(snap),
		"metadata": gin.H{
			"total_channels": len(snap),
			"total_members":  snap.MemberCount(),
			"timestamp":      h.Health.Status().Timestamp,
		},
	})
}

type channelView struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
	Members     []string        `json:"members"`
}

func (h *handlers) channels(c *gin.Context) {
	snap := h.snapshot()
	out := make([]channelView, 0, len(snap))
	for _, room := range snap.RoomNames() {
		names := make([]string, 0, len(snap[room]))
		for _, m := range snap[room] {
			names = append(names, m.Name)
		}
		out = append(out, channelView{Name: room, MemberCount: len(names), Members: names})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "channels": out, "total": len(out)})
}

type memberView struct {
	domain.MemberPresence
	Channel domain.RoomName `json:"channel"`
}

func (h *handlers) members(c *gin.Context) {
	filter := c.Query("channel")
	snap := h.snapshot()
	out := make([]memberView, 0, snap.MemberCount())
	for _, room := range snap.RoomNames() {
		if filter != "" && string(room) != filter {
			continue
		}
		for _, m := range snap[room] {
			out = append(out, memberView{MemberPresence: m, Channel: room})
		}
	}
	var f any
	if filter != "" {
		f = filter
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "members": out, "total": len(out), "filter": f})
}

func (h *handlers) member(c *gin.Context) {
	name := c.Param("name")
	p, err := report.Profile(c.Request.Context(), h.Tracker, h.snapshot(), name)
	switch {
	case errors.Is(err, domain.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error(), "member_name": name})
	case err != nil:
		fail(c, http.StatusInternalServerError, err)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "member": p})
	}
}

func (h *handlers) voiceStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": report.Summarize(h.snapshot())})
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Health.Status())
}

func (h *handlers) health(c *gin.Context) {
	st := h.Health.Status()
	code := http.StatusOK
	if !st.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, st)
}

// queryLimit reads a positive limit; absent means 0.
func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return n, nil
}

func (h *handlers) logs(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	kind := domain.EventKind(c.Query("type"))
	if kind != "" && !kind.Valid() {
		fail(c, http.StatusBadRequest, errors.New("unknown event type "+string(kind)))
		return
	}

	entries := activity.Tail(activity.FilterKind(h.Log.All(), kind), limit)
	filters := gin.H{"type": nil, "limit": nil}
	if kind != "" {
		filters["type"] = kind
	}
	if limit > 0 {
		filters["limit"] = limit
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": entries, "total": len(entries), "filters": filters})
}

func (h *handlers) clearLogs(c *gin.Context) {
	h.Log.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) stats(c *gin.Context) {
	window, err := stats.ParseWindow(c.Query("period"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	if name := c.Query("member"); name != "" {
		st, err := h.Tracker.MemberStats(ctx, window, name)
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "period": window, "member": name, "stats": st})
		return
	}
	all, err := h.Tracker.AllStats(ctx, window)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "period": window, "stats": all})
}

func (h *handlers) topUsers(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if limit == 0 {
		limit = h.cfg.TopUsersLimit
	}
	top, err := h.Tracker.TopUsers(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "top_users": top})
}

func (h *handlers) records(c *gin.Context) {
	recs, err := h.Tracker.Records(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": report.RecordsByKey(recs)})
}

func (h *handlers) sessions(c *gin.Context) {
	live := h.Tracker.CurrentSessions()
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"sessions":        live,
		"total":           len(live),
		"current_members": h.Log.CurrentMembers(),
	})
}

func (h *handlers) resetRecord(c *gin.Context) {
	scope, err := domain.ParseScope(c.Param("scope"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if err := h.Tracker.ResetRecord(c.Request.Context(), scope); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scope": scope})
}

func (h *handlers) pushSnapshot(c *gin.Context) {
	if h.Push == nil {
		fail(c, http.StatusNotFound, errors.New("push source is disabled"))
		return
	}
	var snap domain.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	h.Push.Set(snap)
	c.JSON(http.StatusAccepted, gin.H{"success": true, "channels": len(snap), "members": snap.MemberCount()})
}
