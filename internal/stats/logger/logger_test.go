package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hebrew-tools/nakdan/internal/stats"
)

func TestCollector_IncCounter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricRequests, 2)
	c.IncCounter(stats.MetricRequests, 3)

	if got := c.Total(stats.MetricRequests); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}

	entries := logs.FilterMessage("counter").All()
	if len(entries) != 2 {
		t.Fatalf("logged %d counter entries, want 2", len(entries))
	}
	if got := entries[1].ContextMap()["total"]; got != int64(5) {
		t.Errorf("total field = %v, want 5", got)
	}
}

func TestCollector_GaugeAndHistogram(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(zap.New(core))

	c.SetGauge(stats.MetricCacheSize, 42)
	c.ObserveHistogram(stats.MetricResponseSeconds, 0.25)

	if n := logs.FilterMessage("gauge").Len(); n != 1 {
		t.Errorf("gauge entries = %d, want 1", n)
	}
	if n := logs.FilterMessage("histogram").Len(); n != 1 {
		t.Errorf("histogram entries = %d, want 1", n)
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter("x", 1)
	if c.Total("x") != 1 {
		t.Error("nil logger collector should still count")
	}
}
