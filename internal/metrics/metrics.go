// Package metrics provides Prometheus metrics for monitoring collection runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_attempts_total",
			Help: "Total number of request attempts against BV-BRC",
		},
		[]string{"track"},
	)
	AttemptFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_attempt_failures_total",
			Help: "Total number of failed attempts by failure kind",
		},
		[]string{"track", "kind"},
	)
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_batches_total",
			Help: "Total number of batches submitted",
		},
		[]string{"track"},
	)
	BatchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_batches_failed_total",
			Help: "Total number of batches lost after exhausting retries",
		},
		[]string{"track"},
	)
	FeaturesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_features_collected_total",
			Help: "Total number of feature records collected",
		},
		[]string{"track"},
	)
	RateLimitEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_rate_limit_events_total",
			Help: "Total number of rate-limited attempts",
		},
		[]string{"track"},
	)
	BackoffSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bvharvest_backoff_seconds_total",
			Help: "Total seconds slept in retry backoff",
		},
		[]string{"track"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bvharvest_request_duration_seconds",
			Help:    "Batch request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"track", "outcome"},
	)
	TracksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bvharvest_tracks_active",
			Help: "Number of currently running tracks",
		},
	)
)

func RecordAttemptSuccess(track string, duration time.Duration) {
	AttemptsTotal.WithLabelValues(track).Inc()
	RequestDuration.WithLabelValues(track, "success").Observe(duration.Seconds())
}

func RecordAttemptFailure(track, kind string, duration time.Duration) {
	AttemptsTotal.WithLabelValues(track).Inc()
	AttemptFailures.WithLabelValues(track, kind).Inc()
	RequestDuration.WithLabelValues(track, "failure").Observe(duration.Seconds())
	if kind == "rate_limited" {
		RateLimitEvents.WithLabelValues(track).Inc()
	}
}

func RecordBatch(track string) {
	BatchesTotal.WithLabelValues(track).Inc()
}

func RecordBatchFailed(track string) {
	BatchesFailed.WithLabelValues(track).Inc()
}

func RecordFeatures(track string, count int) {
	FeaturesCollected.WithLabelValues(track).Add(float64(count))
}

func RecordBackoff(track string, d time.Duration) {
	BackoffSeconds.WithLabelValues(track).Add(d.Seconds())
}

func TrackStarted() {
	TracksActive.Inc()
}

func TrackFinished() {
	TracksActive.Dec()
}
