package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func repeatTexts(unique, rounds int) []string {
	var texts []string
	for r := 0; r < rounds; r++ {
		for i := 0; i < unique; i++ {
			texts = append(texts, fmt.Sprintf("משפט %d", i))
		}
	}
	return texts
}

func TestSimulator_Run(t *testing.T) {
	sim := NewSimulator(
		Config{Name: "small", CacheSize: 10},
		Config{Name: "large", CacheSize: 100},
	)

	// 50 unique texts cycled 4 times: the small cache thrashes, the large
	// one misses only on first sight.
	results, err := sim.Run(context.Background(), Workload{
		Texts:       repeatTexts(50, 4),
		MissLatency: 300 * time.Millisecond,
		Seed:        1,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	large := results["large"]
	if large.TotalRequests != 200 {
		t.Errorf("large TotalRequests = %d, want 200", large.TotalRequests)
	}
	if large.Misses != 50 || large.Hits != 150 {
		t.Errorf("large hits/misses = %d/%d, want 150/50", large.Hits, large.Misses)
	}
	if large.UniqueTexts != 50 {
		t.Errorf("large UniqueTexts = %d, want 50", large.UniqueTexts)
	}

	small := results["small"]
	if small.Hits != 0 {
		t.Errorf("small Hits = %d, want 0 for a cyclic scan larger than the cache", small.Hits)
	}
	if small.FinalCache.TotalEntries != 10 {
		t.Errorf("small final size = %d, want 10", small.FinalCache.TotalEntries)
	}
	if len(small.WindowHitRates) != 2 {
		t.Errorf("WindowHitRates length = %d, want 2", len(small.WindowHitRates))
	}

	for i, l := range large.LatenciesMS {
		if i < 50 && l != 300 {
			t.Fatalf("latency[%d] = %v, want 300 for a miss", i, l)
		}
		if i >= 50 && l != 0 {
			t.Fatalf("latency[%d] = %v, want 0 for a hit", i, l)
		}
	}
}

func TestSimulator_Run_TTL(t *testing.T) {
	sim := NewSimulator(Config{Name: "ttl", CacheSize: 100, TTL: time.Minute})

	// A request every 40s means every repeat of a single text is older
	// than one minute after two steps.
	results, err := sim.Run(context.Background(), Workload{
		Texts:    []string{"א", "ב", "א", "ב", "א"},
		Interval: 40 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := results["ttl"].Hits; got != 0 {
		t.Errorf("Hits = %d, want 0 with entries expiring between repeats", got)
	}
}

func TestSimulator_Run_Jitter(t *testing.T) {
	w := Workload{
		Texts:       repeatTexts(20, 1),
		MissLatency: 100 * time.Millisecond,
		Jitter:      0.5,
		Seed:        42,
	}
	sim := NewSimulator(Config{Name: "a", CacheSize: 10})

	r1, err := sim.Run(context.Background(), w)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r2, err := sim.Run(context.Background(), w)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i, l := range r1["a"].LatenciesMS {
		if l < 50 || l > 150 {
			t.Errorf("latency[%d] = %v, want within [50, 150]", i, l)
		}
		if l != r2["a"].LatenciesMS[i] {
			t.Fatalf("latency[%d] differs between runs with the same seed", i)
		}
	}
}

func TestSimulator_Run_InvalidConfig(t *testing.T) {
	sim := NewSimulator(Config{Name: "tiny", CacheSize: 5})
	if _, err := sim.Run(context.Background(), Workload{Texts: []string{"א"}}); err == nil {
		t.Error("Run() error = nil, want error for cache size below minimum")
	}
}

func TestSimulator_Run_InvalidGenre(t *testing.T) {
	sim := NewSimulator(Config{Name: "a", CacheSize: 10})
	if _, err := sim.Run(context.Background(), Workload{Texts: []string{"א"}, Genre: "opera"}); err == nil {
		t.Error("Run() error = nil, want error for unknown genre")
	}
}

func TestAggregateResult_HitRate(t *testing.T) {
	tests := []struct {
		name string
		r    AggregateResult
		want float64
	}{
		{"empty", AggregateResult{}, 0},
		{"half", AggregateResult{TotalRequests: 10, Hits: 5}, 50},
		{"all", AggregateResult{TotalRequests: 4, Hits: 4}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeMetrics(t *testing.T) {
	result := &AggregateResult{
		TotalRequests: 10,
		Hits:          6,
		UniqueTexts:   2,
		TextHits:      map[string]int{"א": 9, "ב": 1},
		LatenciesMS:   []float64{100, 100, 100, 100, 0, 0, 0, 0, 0, 0},
	}

	m := ComputeMetrics(result)
	if m.HitRate != 60 {
		t.Errorf("HitRate = %v, want 60", m.HitRate)
	}
	if m.MeanLatencyMS != 40 {
		t.Errorf("MeanLatencyMS = %v, want 40", m.MeanLatencyMS)
	}
	if m.P50LatencyMS != 0 {
		t.Errorf("P50LatencyMS = %v, want 0", m.P50LatencyMS)
	}
	if m.P99LatencyMS != 100 {
		t.Errorf("P99LatencyMS = %v, want 100", m.P99LatencyMS)
	}
	if m.TopTextPct != 90 {
		t.Errorf("TopTextPct = %v, want 90", m.TopTextPct)
	}
	if m.TextConcentration <= 0 {
		t.Errorf("TextConcentration = %v, want > 0 for a skewed workload", m.TextConcentration)
	}
}

func TestGini_Uniform(t *testing.T) {
	if got := gini([]float64{5, 5, 5, 5}); got != 0 {
		t.Errorf("gini(uniform) = %v, want 0", got)
	}
}

func TestCompare(t *testing.T) {
	m1 := &Metrics{HitRate: 80, MeanLatencyMS: 50}
	m2 := &Metrics{HitRate: 40, MeanLatencyMS: 100}

	c := Compare(m1, m2, "large", "small")
	if c.HitRateDiff != 40 {
		t.Errorf("HitRateDiff = %v, want 40", c.HitRateDiff)
	}
	if c.LatencyDiffPct != -50 {
		t.Errorf("LatencyDiffPct = %v, want -50", c.LatencyDiffPct)
	}
}
