package ari

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the dispatcher and router. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	responses        *prometheus.CounterVec
	unknownResponses prometheus.Counter
	malformedFrames  prometheus.Counter
	events           *prometheus.CounterVec
	handlerPanics    prometheus.Counter
	pending          prometheus.Gauge
}

// NewMetrics registers the client collectors with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	const subsystem = "ari"
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "REST requests written to the transport.",
		}, []string{"method", "wait"}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "responses_total",
			Help:      "REST responses matched to a pending request, by status class.",
		}, []string{"class"}),
		unknownResponses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unknown_responses_total",
			Help:      "REST responses with no pending request.",
		}),
		malformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "malformed_frames_total",
			Help:      "Inbound frames dropped because they could not be decoded.",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Events received, by type.",
		}, []string{"type"}),
		handlerPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handler_panics_total",
			Help:      "Event handler panics recovered by the router.",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending_requests",
			Help:      "Requests awaiting a response.",
		}),
	}
}

func (m *Metrics) requestSent(method Method, wait bool) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(method), strconv.FormatBool(wait)).Inc()
}

func (m *Metrics) responseResolved(status int) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
}

func (m *Metrics) unknownResponse() {
	if m == nil {
		return
	}
	m.unknownResponses.Inc()
}

func (m *Metrics) malformedFrame() {
	if m == nil {
		return
	}
	m.malformedFrames.Inc()
}

func (m *Metrics) eventReceived(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

func (m *Metrics) handlerPanic() {
	if m == nil {
		return
	}
	m.handlerPanics.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
