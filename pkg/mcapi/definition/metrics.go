package definition

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of Prometheus collectors the runtime exposes,
// grounded on the pattern used throughout rockstar-0000-aistore's
// cmn/stats packages of wiring a small counter/gauge set directly
// alongside the data-path code it observes. One Metrics instance is
// created per Node so repeated Initialize/Finalize cycles in tests
// don't collide on a shared global registry.
//
// Only EndpointsOpen and RequestsInUse are updated by the runtime (by
// the endpoint table and the request pool). MessagesSent,
// MessagesRecv, SendTimeouts, RecvTimeouts and TransmitErrors are
// registered but nothing in the runtime increments them; they stay at
// zero unless a caller increments them itself.
type Metrics struct {
	registry *prometheus.Registry

	EndpointsOpen  prometheus.Gauge
	RequestsInUse  prometheus.Gauge
	MessagesSent   prometheus.Counter
	MessagesRecv   prometheus.Counter
	SendTimeouts   prometheus.Counter
	RecvTimeouts   prometheus.Counter
	TransmitErrors prometheus.Counter
}

// NewMetrics builds a fresh, independently registered Metrics set.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		EndpointsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoints_open",
			Help:      "Number of endpoints currently created on this node.",
		}),
		RequestsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_use",
			Help:      "Number of request-pool slots currently reserved.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total successful queue sends.",
		}),
		MessagesRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total successful queue receives.",
		}),
		SendTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_timeouts_total",
			Help:      "Total sends that returned Timeout.",
		}),
		RecvTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_timeouts_total",
			Help:      "Total receives that returned Timeout.",
		}),
		TransmitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transmit_errors_total",
			Help:      "Total sends or receives that returned ErrTransmission.",
		}),
	}
	registry.MustRegister(
		m.EndpointsOpen,
		m.RequestsInUse,
		m.MessagesSent,
		m.MessagesRecv,
		m.SendTimeouts,
		m.RecvTimeouts,
		m.TransmitErrors,
	)
	return m
}

// Registry exposes the underlying prometheus.Registry so a caller can
// wire it into an HTTP handler if it wants to; the core runtime never
// does this itself (no HTTP server is part of the core, per spec §6).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
