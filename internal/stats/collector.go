// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Coordinator metrics.
	MetricRequests        = "nakdan_requests_total"
	MetricFailedRequests  = "nakdan_failed_requests_total"
	MetricRejectedRequest = "nakdan_rejected_requests_total"
	MetricResponseSeconds = "nakdan_response_seconds"

	// Cache metrics.
	MetricCacheHits      = "nakdan_cache_hits_total"
	MetricCacheMisses    = "nakdan_cache_misses_total"
	MetricCacheEvictions = "nakdan_cache_evictions_total"
	MetricCacheSize      = "nakdan_cache_size"

	// Remote service metrics.
	MetricServiceCalls   = "nakdan_service_calls_total"
	MetricServiceRetries = "nakdan_service_retries_total"
	MetricServiceSeconds = "nakdan_service_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
