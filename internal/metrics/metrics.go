// Package metrics provides Prometheus metrics for the sparkline
// server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes.
const (
	OutcomeRendered = "rendered"
	OutcomeEmpty    = "empty"
	OutcomeInvalid  = "invalid"
	OutcomeUpstream = "upstream_error"
	OutcomeFailed   = "failed"
)

var (
	// RequestsTotal counts sparkline requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkline",
			Name:      "requests_total",
			Help:      "Total number of sparkline requests",
		},
		[]string{"outcome"},
	)

	// RenderDuration measures chart building plus PNG encoding.
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sparkline",
			Name:      "render_duration_seconds",
			Help:      "Duration of chart building and PNG encoding in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	// UpstreamDuration measures breakdown fetches.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sparkline",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of upstream breakdown fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)
)

// RecordRequest records the outcome of one request.
func RecordRequest(outcome string) {
	RequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordRender records how long rendering took.
func RecordRender(seconds float64) {
	RenderDuration.Observe(seconds)
}

// RecordUpstream records a fetch from the named source.
func RecordUpstream(source string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamDuration.WithLabelValues(source, status).Observe(seconds)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
