package health

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/voicewatch/internal/domain"
)

const (
	SnapshotOK     = "ok"
	SnapshotFailed = "failed"
)

// Metrics holds the prometheus collectors of the watcher and its surfaces.
type Metrics struct {
	Events         *prometheus.CounterVec
	Snapshots      *prometheus.CounterVec
	StorageErrors  prometheus.Counter
	Requests       prometheus.Counter
	ActiveSessions prometheus.Gauge
	Clients        prometheus.Gauge
}

// NewMetrics builds the collectors and registers them on reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "activity_events_total",
			Help:      "Activity events produced by the presence diff, by kind.",
		}, []string{"kind"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "snapshots_total",
			Help:      "Snapshot fetch attempts, by result.",
		}, []string{"result"}),
		StorageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "storage_errors_total",
			Help:      "Session or record writes that failed.",
		}),
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicewatch",
			Name:      "http_requests_total",
			Help:      "Requests served by the query surface.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicewatch",
			Name:      "active_sessions",
			Help:      "Members with an open voice session.",
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicewatch",
			Name:      "ws_clients",
			Help:      "Connected websocket subscribers.",
		}),
	}

	if reg != nil {
		var errs []error
		for _, c := range []prometheus.Collector{
			m.Events, m.Snapshots, m.StorageErrors, m.Requests, m.ActiveSessions, m.Clients,
		} {
			errs = append(errs, reg.Register(c))
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeEvents(events []domain.ActivityEvent) {
	for _, ev := range events {
		m.Events.WithLabelValues(string(ev.Kind)).Inc()
	}
}
