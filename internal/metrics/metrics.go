// Package metrics holds the Prometheus collectors shared by the HTTP layer,
// the services and the change-feed broadcaster.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_order_operations_total",
			Help: "Total number of order, table and register operations",
		},
		[]string{"operation", "status"},
	)

	feedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_feed_events_total",
			Help: "Change-feed events by outcome (published, failed, dropped)",
		},
		[]string{"event", "status"},
	)

	jobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_jobs_processed_total",
			Help: "Background jobs by queue and outcome",
		},
		[]string{"queue", "status"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pos_circuit_breaker_state",
			Help: "Circuit breaker state per dependency (0 closed, 1 open, 2 half-open)",
		},
		[]string{"breaker"},
	)
)

// RecordOperation counts a domain operation.
func RecordOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	orderOperations.WithLabelValues(operation, status).Inc()
}

// RecordFeedEvent counts a change-feed outcome for event.
func RecordFeedEvent(event, status string) {
	feedEvents.WithLabelValues(event, status).Inc()
}

// RecordJob counts a processed job.
func RecordJob(queue, status string) {
	jobsProcessed.WithLabelValues(queue, status).Inc()
}

// SetBreakerState exports the state of the named circuit breaker.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
