package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/dkeye/voicewatch/internal/adapters/http"
	"github.com/dkeye/voicewatch/internal/adapters/source"
	"github.com/dkeye/voicewatch/internal/app/activity"
	"github.com/dkeye/voicewatch/internal/app/health"
	"github.com/dkeye/voicewatch/internal/app/stats"
	"github.com/dkeye/voicewatch/internal/config"
	"github.com/dkeye/voicewatch/internal/domain"
	"github.com/dkeye/voicewatch/internal/store"
)

type env struct {
	r       *gin.Engine
	deps    router.Deps
	clock   *quartz.Mock
	tracker *stats.Tracker
}

func newEnv(t *testing.T, push bool) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "voicewatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local))
	reg := prometheus.NewRegistry()
	metrics, err := health.NewMetrics(reg)
	require.NoError(t, err)

	tracker := stats.NewTracker(st, clock)
	deps := router.Deps{
		Log:      activity.NewLog(20),
		Tracker:  tracker,
		Health:   health.NewMonitor(clock, 30*time.Second, metrics),
		Snapshot: source.Fixture,
		Gatherer: reg,
	}
	if push {
		deps.Push = source.NewPush(clock, time.Minute)
	}
	cfg := &config.Config{Mode: "test", Secret: "secret", StaticPath: t.TempDir(), TopUsersLimit: 10}
	return &env{
		r:       router.SetupRouter(context.Background(), cfg, deps),
		deps:    deps,
		clock:   clock,
		tracker: tracker,
	}
}

func (e *env) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.r.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter_VoiceData(t *testing.T) {
	e := newEnv(t, false)

	rec, body := e.do(t, http.MethodGet, "/api/bot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	meta := body["metadata"].(map[string]any)
	assert.EqualValues(t, 3, meta["total_channels"])
	assert.EqualValues(t, 6, meta["total_members"])
	assert.NotEmpty(t, rec.Result().Cookies())

	_, body = e.do(t, http.MethodGet, "/api/bot/channels", "")
	channels := body["channels"].([]any)
	require.Len(t, channels, 3)
	assert.Equal(t, "🎧 Salon Principal", channels[0].(map[string]any)["name"])

	_, body = e.do(t, http.MethodGet, "/api/bot/members?channel="+url.QueryEscape("🎮 Gaming"), "")
	assert.EqualValues(t, 2, body["total"])
	assert.Equal(t, "🎮 Gaming", body["filter"])

	_, body = e.do(t, http.MethodGet, "/api/bot/stats", "")
	s := body["stats"].(map[string]any)
	assert.EqualValues(t, 6, s["total_members"])
	assert.EqualValues(t, 2, s["streaming"])
}

func TestRouter_Member(t *testing.T) {
	e := newEnv(t, false)

	rec, body := e.do(t, http.MethodGet, "/api/bot/member/Alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := body["member"].(map[string]any)
	assert.Equal(t, "🎧 Salon Principal", m["channel"])

	rec, body = e.do(t, http.MethodGet, "/api/bot/member/Zed", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Zed", body["member_name"])
}

func TestRouter_Health(t *testing.T) {
	e := newEnv(t, false)

	rec, body := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, health.StatusDegraded, body["status"])

	e.deps.Health.Heartbeat()
	rec, _ = e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = e.do(t, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	web := body["web"].(map[string]any)
	assert.EqualValues(t, 3, web["total_requests"])
}

func TestRouter_Logs(t *testing.T) {
	e := newEnv(t, false)
	now := e.clock.Now()
	e.deps.Log.Append(domain.NewJoin("Alice", "General", now))
	e.deps.Log.Append(domain.NewStateEvent(domain.EventMute, "Alice", "General", now))
	e.deps.Log.Append(domain.NewJoin("Bob", "General", now))

	_, body := e.do(t, http.MethodGet, "/api/logs", "")
	assert.EqualValues(t, 3, body["total"])

	_, body = e.do(t, http.MethodGet, "/api/logs?type=join&limit=1", "")
	logs := body["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "Bob", logs[0].(map[string]any)["member"])
	filters := body["filters"].(map[string]any)
	assert.Equal(t, "join", filters["type"])

	rec, _ := e.do(t, http.MethodGet, "/api/logs?type=dance", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = e.do(t, http.MethodGet, "/api/logs?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodDelete, "/api/logs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, e.deps.Log.Len())
}

func TestRouter_Stats(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	require.NoError(t, e.tracker.MemberJoined(ctx, "Alice", "General"))
	e.clock.Advance(time.Hour).MustWait(ctx)
	require.NoError(t, e.tracker.MemberLeft(ctx, "Alice"))
	require.NoError(t, e.tracker.MemberJoined(ctx, "Bob", "General"))

	rec, body := e.do(t, http.MethodGet, "/api/stats?period=today&member=Alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := body["stats"].(map[string]any)
	assert.EqualValues(t, 3600, st["total_time"])

	_, body = e.do(t, http.MethodGet, "/api/stats?period=week", "")
	assert.Len(t, body["stats"].(map[string]any), 2)

	rec, _ = e.do(t, http.MethodGet, "/api/stats?period=decade", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body = e.do(t, http.MethodGet, "/api/stats/top?limit=1", "")
	top := body["top_users"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "Alice", top[0].(map[string]any)["member"])

	e.deps.Log.Append(domain.NewJoin("Bob", "General", e.clock.Now()))
	_, body = e.do(t, http.MethodGet, "/api/stats/sessions", "")
	assert.EqualValues(t, 1, body["total"])
	assert.Equal(t, map[string]any{"Bob": "General"}, body["current_members"])

	_, body = e.do(t, http.MethodGet, "/api/stats/records", "")
	recs := body["records"].(map[string]any)
	today := recs["longest_session_today"].(map[string]any)
	assert.Equal(t, "Alice", today["member"])
	assert.EqualValues(t, 3600, today["duration"])

	rec, _ = e.do(t, http.MethodPost, "/api/stats/records/decade/reset", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = e.do(t, http.MethodPost, "/api/stats/records/daily/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	_, body = e.do(t, http.MethodGet, "/api/stats/records", "")
	today = body["records"].(map[string]any)["longest_session_today"].(map[string]any)
	assert.Nil(t, today["member"])
}

func TestRouter_PushSnapshot(t *testing.T) {
	e := newEnv(t, true)

	rec, body := e.do(t, http.MethodPost, "/api/snapshot", `{"General":[{"name":"Alice","muted":true}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.EqualValues(t, 1, body["members"])

	snap, err := e.deps.Push.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap["General"][0].Muted)

	rec, _ = e.do(t, http.MethodPost, "/api/snapshot", `{"General":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	disabled := newEnv(t, false)
	rec, _ = disabled.do(t, http.MethodPost, "/api/snapshot", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	e := newEnv(t, false)
	e.do(t, http.MethodGet, "/api/bot", "")

	rec, _ := e.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voicewatch_http_requests_total 2")
}
