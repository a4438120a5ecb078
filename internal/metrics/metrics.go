// Package metrics holds the Prometheus collectors for the landing backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultBuckets provides a common set of histogram buckets in seconds.
var DefaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Outcome labels.
const (
	OutcomeCreated       = "created"
	OutcomeExisting      = "existing"
	OutcomeSent          = "sent"
	OutcomeRejected      = "rejected"
	OutcomeFailed        = "failed"
	OutcomeNotConfigured = "not_configured"
)

// Metrics is the set of collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	leadSignups        *prometheus.CounterVec
	estimates          *prometheus.CounterVec
	bestEffortFailures *prometheus.CounterVec
	providerDuration   *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		leadSignups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landing_lead_signups_total",
			Help: "Lead signup submissions by outcome.",
		}, []string{"outcome"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landing_estimates_total",
			Help: "Estimate email submissions by outcome.",
		}, []string{"outcome"}),
		bestEffortFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landing_best_effort_failures_total",
			Help: "Swallowed failures of optional follow-up calls.",
		}, []string{"call"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landing_provider_request_duration_seconds",
			Help:    "Latency of email provider API calls.",
			Buckets: DefaultBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.leadSignups,
		m.estimates,
		m.bestEffortFailures,
		m.providerDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// LeadSignup counts a signup request by outcome.
func (m *Metrics) LeadSignup(outcome string) {
	if m == nil {
		return
	}
	m.leadSignups.WithLabelValues(outcome).Inc()
}

// Estimate counts an estimate request by outcome.
func (m *Metrics) Estimate(outcome string) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(outcome).Inc()
}

// BestEffortFailure counts a failed follow-up call (audience or webhook).
func (m *Metrics) BestEffortFailure(call string) {
	if m == nil {
		return
	}
	m.bestEffortFailures.WithLabelValues(call).Inc()
}

// ObserveProvider satisfies email.Observer.
func (m *Metrics) ObserveProvider(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerDuration.WithLabelValues(op).Observe(d.Seconds())
}
