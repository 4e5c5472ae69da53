// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestSeconds is a histogram of HTTP request latencies by route and status
	HTTPRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latency (seconds) by route and status code.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "code"},
	)

	// PipelineStageSeconds tracks the duration of each inpainting stage
	PipelineStageSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inpaint_stage_duration_seconds",
			Help:    "Histogram of per-stage durations (seconds) of the inpainting pipeline.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	// InferenceLatencySeconds is a histogram for engine-only latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of inference latency (seconds) excluding codec and resize overhead.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// InFlightInvocations is a gauge of pipeline invocations currently running
	InFlightInvocations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inpaint_in_flight_invocations",
			Help: "Number of pipeline invocations currently in flight.",
		},
	)

	// CacheHits counts result cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inpaint_cache_hits_total",
			Help: "Total number of inpainting result cache hits.",
		},
	)

	// CacheMisses counts result cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inpaint_cache_misses_total",
			Help: "Total number of inpainting result cache misses.",
		},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordHTTPLatency records the latency of an HTTP request
func RecordHTTPLatency(route, code string, seconds float64) {
	HTTPRequestSeconds.WithLabelValues(route, code).Observe(seconds)
}

// RecordStage records the duration of one pipeline stage
func RecordStage(stage string, seconds float64) {
	PipelineStageSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordInferenceLatency records the latency of an engine call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// SetInFlight sets the number of invocations currently running
func SetInFlight(n int64) {
	InFlightInvocations.Set(float64(n))
}

// RecordCacheHit increments the cache hit counter
func RecordCacheHit() {
	CacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
