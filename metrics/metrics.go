// Package metrics provides Prometheus metrics for the MedSafe wizard service.
// It exports HTTP request metrics and wizard-level metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//   - wizard_transitions_total: Counter with transition and outcome labels
//   - wizard_active_sessions: Gauge of live wizard sessions
//   - catalog_entries: Gauge of drug names available as suggestions
//
// All metrics are registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transition outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeAlert    = "alert"
	OutcomeInvalid  = "invalid"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client IPs currently tracked)",
		},
	)

	WizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Wizard transitions by name and outcome",
		},
		[]string{"transition", "outcome"},
	)

	WizardActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_active_sessions",
			Help: "Wizard sessions held in memory",
		},
	)

	CatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Drug names available as suggestions",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(WizardTransitions)
	prometheus.MustRegister(WizardActiveSessions)
	prometheus.MustRegister(CatalogEntries)
}

// RecordTransition counts one wizard transition attempt
func RecordTransition(transition, outcome string) {
	WizardTransitions.WithLabelValues(transition, outcome).Inc()
}
