package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RequestsTotal
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// Status labels for EventsTotal
const (
	EventPublished = "published"
	EventFailed    = "failed"
	EventDropped   = "dropped"
)

var (
	// Metrics variables - these will be initialized by InitMetrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	TimeoutsTotal    prometheus.Counter
	RateLimitedTotal prometheus.Counter

	BreakerTransitionsTotal *prometheus.CounterVec
	EventsTotal             *prometheus.CounterVec
)

// InitMetrics initializes metrics with a specific registry
func InitMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		return fmt.Errorf("registry cannot be nil")
	}

	factory := promauto.With(reg)

	RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hello_pipeline_requests_total",
			Help: "Total number of requests handled by the pipeline",
		},
		[]string{"method", "outcome"},
	)

	RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hello_pipeline_request_duration_seconds",
			Help:    "Duration of pipeline calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	RequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "hello_pipeline_requests_in_flight",
			Help: "Number of calls started but not yet resolved",
		},
	)

	TimeoutsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "hello_pipeline_timeouts_total",
			Help: "Total number of calls that exceeded their timeout",
		},
	)

	RateLimitedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "hello_pipeline_rate_limited_total",
			Help: "Total number of times a caller had to wait for or was denied a rate limit token",
		},
	)

	BreakerTransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hello_pipeline_breaker_transitions_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"from", "to"},
	)

	EventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hello_pipeline_events_total",
			Help: "Total number of request events by delivery status",
		},
		[]string{"status"},
	)

	return nil
}

// Helper functions for recording metrics. They are no-ops until InitMetrics
// has been called.

// RecordRequest records the outcome and duration of a resolved call
func RecordRequest(method, outcome string, seconds float64) {
	if RequestsTotal == nil {
		return
	}
	RequestsTotal.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(method).Observe(seconds)
	if outcome == OutcomeTimeout {
		TimeoutsTotal.Inc()
	}
}

// RecordRateLimited records a caller held back by the rate limiter
func RecordRateLimited() {
	if RateLimitedTotal == nil {
		return
	}
	RateLimitedTotal.Inc()
}

// RecordBreakerTransition records a circuit breaker state change
func RecordBreakerTransition(from, to string) {
	if BreakerTransitionsTotal == nil {
		return
	}
	BreakerTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordEvent records what happened to one request event
func RecordEvent(status string) {
	if EventsTotal == nil {
		return
	}
	EventsTotal.WithLabelValues(status).Inc()
}

func incInFlight() {
	if RequestsInFlight != nil {
		RequestsInFlight.Inc()
	}
}

func decInFlight() {
	if RequestsInFlight != nil {
		RequestsInFlight.Dec()
	}
}
