// ABOUTME: Prometheus instrumentation for the tool-calling endpoint
// ABOUTME: Nil-safe recording so the server runs identically with metrics disabled

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for the RPC surface. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	authFailures  prometheus.Counter
	rateLimited   prometheus.Counter
	toolCalls     *prometheus.CounterVec
}

// New creates and registers the agentgate collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgate",
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgate",
			Name:      "auth_failures_total",
			Help:      "Authentication rejections.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentgate",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgate",
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
	}

	reg.MustRegister(m.requestsTotal, m.authFailures, m.rateLimited, m.toolCalls)
	return m
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one JSON-RPC request with its outcome ("ok" or "error").
func (m *Metrics) RecordRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordAuthFailure counts one rejected authentication attempt.
func (m *Metrics) RecordAuthFailure() {
	if m == nil {
		return
	}
	m.authFailures.Inc()
}

// RecordRateLimited counts one rate-limited request.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// RecordToolCall counts one tool invocation with its outcome.
func (m *Metrics) RecordToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}
