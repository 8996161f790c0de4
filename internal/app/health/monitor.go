// Package health tracks liveness of the snapshot source and the surfaces
// serving it.
package health

import (
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/dkeye/voicewatch/internal/domain"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

type LastError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type SourceStatus struct {
	Alive         bool       `json:"alive"`
	Connected     bool       `json:"connected"`
	LastHeartbeat *time.Time `json:"last_heartbeat"`
	LastUpdate    *time.Time `json:"last_update"`
	RoomCount     int        `json:"room_count"`
	ErrorCount    int        `json:"error_count"`
	LastError     *LastError `json:"last_error"`
}

type WebStatus struct {
	ConnectedClients int        `json:"connected_clients"`
	TotalRequests    int64      `json:"total_requests"`
	LastRequest      *time.Time `json:"last_request"`
}

type Status struct {
	Status        string       `json:"status"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	Source        SourceStatus `json:"bot"`
	Web           WebStatus    `json:"web"`
	Timestamp     time.Time    `json:"timestamp"`
}

func (s Status) Healthy() bool { return s.Status == StatusHealthy }

// Monitor is safe for concurrent use. The source is alive while its last
// heartbeat is younger than the timeout.
type Monitor struct {
	mu      sync.Mutex
	clock   quartz.Clock
	timeout time.Duration
	started time.Time
	metrics *Metrics

	source SourceStatus
	web    WebStatus
}

func NewMonitor(clock quartz.Clock, timeout time.Duration, metrics *Metrics) *Monitor {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if metrics == nil {
		metrics, _ = NewMetrics(nil)
	}
	return &Monitor{
		clock:   clock,
		timeout: timeout,
		started: clock.Now(),
		metrics: metrics,
	}
}

func (m *Monitor) Metrics() *Metrics { return m.metrics }

func (m *Monitor) Heartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.source.LastHeartbeat = &now
	m.source.Connected = true
}

// SnapshotApplied records a successful diff pass over roomCount rooms.
func (m *Monitor) SnapshotApplied(roomCount int, events []domain.ActivityEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.source.LastUpdate = &now
	m.source.RoomCount = roomCount
	m.metrics.Snapshots.WithLabelValues(SnapshotOK).Inc()
	m.metrics.observeEvents(events)
}

func (m *Monitor) SnapshotFailed(err error) {
	m.metrics.Snapshots.WithLabelValues(SnapshotFailed).Inc()
	m.RecordError(err)
}

func (m *Monitor) StorageFailed(err error) {
	m.metrics.StorageErrors.Inc()
	m.RecordError(err)
}

func (m *Monitor) RecordError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source.ErrorCount++
	m.source.LastError = &LastError{Message: err.Error(), Timestamp: m.clock.Now()}
}

func (m *Monitor) Request() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.web.LastRequest = &now
	m.web.TotalRequests++
	m.metrics.Requests.Inc()
}

func (m *Monitor) ClientConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.web.ConnectedClients++
	m.metrics.Clients.Set(float64(m.web.ConnectedClients))
}

func (m *Monitor) ClientDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.web.ConnectedClients > 0 {
		m.web.ConnectedClients--
	}
	m.metrics.Clients.Set(float64(m.web.ConnectedClients))
}

func (m *Monitor) ActiveSessions(n int) {
	m.metrics.ActiveSessions.Set(float64(n))
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	src := m.source
	src.Alive = src.LastHeartbeat != nil && now.Sub(*src.LastHeartbeat) < m.timeout

	st := Status{
		Status:        StatusDegraded,
		UptimeSeconds: now.Sub(m.started).Seconds(),
		Source:        src,
		Web:           m.web,
		Timestamp:     now,
	}
	if src.Alive {
		st.Status = StatusHealthy
	}
	return st
}
