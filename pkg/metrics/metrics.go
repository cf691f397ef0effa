package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// MQ consume latency (milliseconds)
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Forecast computation latency (seconds)
	ForecastDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_duration_seconds",
			Help:    "Progress forecast computation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"outcome"}, // outcome: success, failed, cache_hit
	)

	// Milestone schedules generated
	ScheduleGenerationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_generation_count",
			Help: "Total number of milestone schedules generated",
		},
		[]string{"category"}, // category: personal, professional
	)

	// Smart adjustments applied to milestones
	AdjustmentAppliedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adjustment_applied_count",
			Help: "Total number of smart adjustments applied to milestones",
		},
		[]string{"type"}, // type: reschedule, simplify, extend, weekend_shift
	)

	// Stress assessments by recommendation tier
	StressAssessmentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stress_assessment_count",
			Help: "Total number of stress assessments by recommendation tier",
		},
		[]string{"recommendation"},
	)
)

// RecordHTTPRequestDuration records an HTTP request latency sample.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordMQConsumeLatency records an MQ consumption latency sample.
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordForecastDuration records a forecast computation sample.
func RecordForecastDuration(outcome string, duration time.Duration) {
	ForecastDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncrementScheduleGeneration increments the schedule generation counter.
func IncrementScheduleGeneration(category string) {
	ScheduleGenerationCount.WithLabelValues(category).Inc()
}

// IncrementAdjustmentApplied increments the adjustment counter.
func IncrementAdjustmentApplied(adjustmentType string) {
	AdjustmentAppliedCount.WithLabelValues(adjustmentType).Inc()
}

// IncrementStressAssessment increments the stress assessment counter.
func IncrementStressAssessment(recommendation string) {
	StressAssessmentCount.WithLabelValues(recommendation).Inc()
}
