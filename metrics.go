package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// appMetrics instruments the session workflow. A nil *appMetrics records
// nothing.
type appMetrics struct {
	sessions   prometheus.Gauge
	started    prometheus.Counter
	failures   *prometheus.CounterVec
	teardowns  prometheus.Counter
	duplicates prometheus.Counter
}

func newAppMetrics(reg prometheus.Registerer, namespace string) *appMetrics {
	factory := promauto.With(reg)
	return &appMetrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live call sessions.",
		}),
		started: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Call sessions created for incoming channels.",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Session workflows aborted, by failed step.",
		}, []string{"step"}),
		teardowns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_torn_down_total",
			Help:      "Call sessions removed after the incoming channel left.",
		}),
		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_starts_total",
			Help:      "StasisStart events for channels that already had a session.",
		}),
	}
}

func (m *appMetrics) setSessions(n int) {
	if m != nil {
		m.sessions.Set(float64(n))
	}
}

func (m *appMetrics) sessionStarted() {
	if m != nil {
		m.started.Inc()
	}
}

func (m *appMetrics) workflowFailed(step string) {
	if m != nil {
		m.failures.WithLabelValues(step).Inc()
	}
}

func (m *appMetrics) sessionTornDown() {
	if m != nil {
		m.teardowns.Inc()
	}
}

func (m *appMetrics) duplicateStart() {
	if m != nil {
		m.duplicates.Inc()
	}
}
