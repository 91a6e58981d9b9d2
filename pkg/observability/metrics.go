package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the synchronization core.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	MessagesRelayed   *prometheus.CounterVec
	SlowClientsClosed prometheus.Counter
	MutationsApplied  *prometheus.CounterVec
	PersistFailures   prometheus.Counter
	VisibleNodes      prometheus.Gauge
}

// NewMetrics registers the core collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexusboard",
			Name:      "active_sessions",
			Help:      "Number of connected WebSocket sessions.",
		}),
		MessagesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexusboard",
			Name:      "messages_relayed_total",
			Help:      "Messages fanned out to peer sessions, by envelope type.",
		}, []string{"type"}),
		SlowClientsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nexusboard",
			Name:      "slow_clients_closed_total",
			Help:      "Sessions closed because their send buffer saturated.",
		}),
		MutationsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexusboard",
			Name:      "mutations_applied_total",
			Help:      "Graph mutations applied to the state store, by outcome.",
		}, []string{"outcome"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nexusboard",
			Name:      "persist_failures_total",
			Help:      "Mutation writes that failed against the document store.",
		}),
		VisibleNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexusboard",
			Name:      "visible_nodes",
			Help:      "Nodes inside the most recently evaluated viewport.",
		}),
	}
}

// NewNopMetrics returns metrics backed by a throwaway registry, for tests.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
