package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voicewatch/internal/app/health"
	"github.com/dkeye/voicewatch/internal/domain"
)

func newMonitor(t *testing.T) (*health.Monitor, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	metrics, err := health.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return health.NewMonitor(clock, 30*time.Second, metrics), clock
}

func TestMonitor_DegradedWithoutHeartbeat(t *testing.T) {
	t.Parallel()
	m, _ := newMonitor(t)

	st := m.Status()
	assert.Equal(t, health.StatusDegraded, st.Status)
	assert.False(t, st.Source.Alive)
	assert.Nil(t, st.Source.LastHeartbeat)
}

func TestMonitor_HeartbeatExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, clock := newMonitor(t)

	m.Heartbeat()
	clock.Advance(29 * time.Second).MustWait(ctx)
	st := m.Status()
	assert.True(t, st.Healthy())
	assert.True(t, st.Source.Connected)
	assert.InDelta(t, 29.0, st.UptimeSeconds, 1e-6)

	clock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, health.StatusDegraded, m.Status().Status)
}

func TestMonitor_Errors(t *testing.T) {
	t.Parallel()
	m, _ := newMonitor(t)

	m.RecordError(nil)
	m.SnapshotFailed(errors.New("gateway closed"))
	m.StorageFailed(errors.New("disk full"))

	st := m.Status()
	assert.Equal(t, 2, st.Source.ErrorCount)
	require.NotNil(t, st.Source.LastError)
	assert.Equal(t, "disk full", st.Source.LastError.Message)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Metrics().StorageErrors))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Metrics().Snapshots.WithLabelValues(health.SnapshotFailed)))
}

func TestMonitor_SnapshotAndClients(t *testing.T) {
	t.Parallel()
	m, clock := newMonitor(t)

	m.SnapshotApplied(3, []domain.ActivityEvent{
		domain.NewJoin("Alice", "General", clock.Now()),
		domain.NewJoin("Bob", "General", clock.Now()),
		domain.NewStateEvent(domain.EventMute, "Bob", "General", clock.Now()),
	})
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.ClientDisconnected()
	m.ClientDisconnected()
	m.Request()
	m.ActiveSessions(2)

	st := m.Status()
	assert.Equal(t, 3, st.Source.RoomCount)
	require.NotNil(t, st.Source.LastUpdate)
	assert.Zero(t, st.Web.ConnectedClients)
	assert.EqualValues(t, 1, st.Web.TotalRequests)

	metrics := m.Metrics()
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.Events.WithLabelValues(string(domain.EventJoin))))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Events.WithLabelValues(string(domain.EventMute))))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Snapshots.WithLabelValues(health.SnapshotOK)))
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.ActiveSessions))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.Clients))
}

func TestNewMetrics_DoubleRegister(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	_, err := health.NewMetrics(reg)
	require.NoError(t, err)
	_, err = health.NewMetrics(reg)
	assert.Error(t, err)
}
