// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hebrew-tools/nakdan/internal/stats"
)

// help holds descriptions for the metrics emitted by this module.
var help = map[string]string{
	stats.MetricRequests:        "Annotation requests accepted by the coordinator.",
	stats.MetricFailedRequests:  "Annotation requests that failed at the remote service.",
	stats.MetricRejectedRequest: "Annotation requests rejected by validation.",
	stats.MetricResponseSeconds: "Time to answer an annotation request, including cache hits.",
	stats.MetricCacheHits:       "Requests served from the result cache.",
	stats.MetricCacheMisses:     "Requests that required a remote call.",
	stats.MetricCacheEvictions:  "Cache entries evicted for capacity or expiry.",
	stats.MetricCacheSize:       "Entries currently held in the result cache.",
	stats.MetricServiceCalls:    "HTTP calls made to the nikud service.",
	stats.MetricServiceRetries:  "Retried HTTP calls to the nikud service.",
	stats.MetricServiceSeconds:  "Latency of individual HTTP calls to the nikud service.",
}

// latencyBuckets spans sub-millisecond cache hits up to the client timeout.
var latencyBuckets = []float64{0.0005, 0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30}

// Collector implements stats.Collector using Prometheus metrics.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: describe(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: describe(name)})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		buckets := prometheus.DefBuckets
		if strings.HasSuffix(name, "_seconds") {
			buckets = latencyBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    describe(name),
			Buckets: buckets,
		})
	})
	histogram.Observe(value)
}

// getOrCreate returns the metric registered under name, creating and
// registering it on first use. A metric already present in the registry
// (for example from a previous collector) is reused.
func getOrCreate[M prometheus.Collector](c *Collector, metrics map[string]M, name string, create func() M) M {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := metrics[name]; ok {
		return m
	}

	m := create()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise the metric still works, it is just not exported.
	}
	metrics[name] = m
	return m
}

func describe(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}
