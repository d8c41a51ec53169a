package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the orchestrator's own operational counters. This is
// instrumentation of the control plane, distinct from the metrics backend
// the SLO evaluator queries.
type Metrics struct {
	registry *prometheus.Registry

	RunsStarted        prometheus.Counter
	RunsByOutcome      *prometheus.CounterVec
	ViolationsRecorded *prometheus.CounterVec
	AbortsIssued       prometheus.Counter
	ActiveRuns         prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaos_control_plane",
			Name:      "runs_started_total",
			Help:      "Number of chaos runs scheduled for execution.",
		}),
		RunsByOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaos_control_plane",
			Name:      "runs_finished_total",
			Help:      "Number of chaos runs reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
		ViolationsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaos_control_plane",
			Name:      "violations_recorded_total",
			Help:      "Number of SLO and blast-radius violations recorded, by type.",
		}, []string{"type"}),
		AbortsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaos_control_plane",
			Name:      "aborts_issued_total",
			Help:      "Number of abort signals issued to running experiments.",
		}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chaos_control_plane",
			Name:      "active_runs",
			Help:      "Number of runs currently in a non-terminal state.",
		}),
	}

	m.registry.MustRegister(
		m.RunsStarted,
		m.RunsByOutcome,
		m.ViolationsRecorded,
		m.AbortsIssued,
		m.ActiveRuns,
	)
	return m
}

// Handler serves the collector registry over HTTP
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
