// Package metrics exposes gateway and node execution counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ollamanodes/ollama"
)

const namespace = "ollama_nodes"

// Outcome labels for gateway calls.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// Metrics owns a private registry so several instances can coexist in tests.
// It satisfies both provider.Observer and nodes.Observer.
type Metrics struct {
	registry *prometheus.Registry

	gatewayCalls    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	nodeRuns        *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Calls made to Ollama daemons, by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Duration of calls made to Ollama daemons.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"op"},
		),
		nodeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_runs_total",
				Help:      "Node executions, by node and status.",
			},
			[]string{"node", "status"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_run_duration_seconds",
				Help:      "Duration of node executions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node"},
		),
	}

	m.registry.MustRegister(
		m.gatewayCalls,
		m.gatewayDuration,
		m.nodeRuns,
		m.nodeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGatewayCall records one daemon round trip.
func (m *Metrics) ObserveGatewayCall(op, endpoint string, err error, elapsed time.Duration) {
	m.gatewayCalls.WithLabelValues(op, Outcome(err)).Inc()
	m.gatewayDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveNodeRun records one node execution.
func (m *Metrics) ObserveNodeRun(node, status string, elapsed time.Duration) {
	m.nodeRuns.WithLabelValues(node, status).Inc()
	m.nodeDuration.WithLabelValues(node).Observe(elapsed.Seconds())
}

// WatchCache publishes the size of every cached model list at scrape time.
func (m *Metrics) WatchCache(c CacheReader) error {
	return m.registry.Register(newCacheCollector(c))
}

// Registry exposes the underlying registry for custom gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome classifies a gateway error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ollama.ErrRemoteRejected):
		return OutcomeRejected
	case errors.Is(err, ollama.ErrRemoteUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
