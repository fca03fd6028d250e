package simulation

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics contains computed metrics from simulation results.
type Metrics struct {
	// Core metrics.
	TotalRequests int
	Hits          int
	UniqueTexts   int
	HitRate       float64

	// Latency distribution, in milliseconds.
	MeanLatencyMS float64
	P50LatencyMS  float64
	P90LatencyMS  float64
	P99LatencyMS  float64

	// Workload shape.
	TextConcentration float64 // Gini coefficient of text popularity.
	TopTextPct        float64 // Percentage of requests for the top 10% of texts.
}

// ComputeMetrics computes detailed metrics from aggregate results.
func ComputeMetrics(result *AggregateResult) *Metrics {
	m := &Metrics{
		TotalRequests: result.TotalRequests,
		Hits:          result.Hits,
		UniqueTexts:   result.UniqueTexts,
		HitRate:       result.HitRate(),
	}

	if len(result.LatenciesMS) > 0 {
		sorted := make([]float64, len(result.LatenciesMS))
		copy(sorted, result.LatenciesMS)
		sort.Float64s(sorted)

		m.MeanLatencyMS = stat.Mean(sorted, nil)
		m.P50LatencyMS = stat.Quantile(0.50, stat.Empirical, sorted, nil)
		m.P90LatencyMS = stat.Quantile(0.90, stat.Empirical, sorted, nil)
		m.P99LatencyMS = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	}

	if len(result.TextHits) > 0 {
		counts := make([]float64, 0, len(result.TextHits))
		for _, n := range result.TextHits {
			counts = append(counts, float64(n))
		}
		sort.Float64s(counts)
		m.TextConcentration = gini(counts)
		m.TopTextPct = topPct(counts, result.TotalRequests, 0.1)
	}

	return m
}

// gini returns the Gini coefficient of ascending counts.
func gini(sorted []float64) float64 {
	n := float64(len(sorted))
	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted)/(n*sum) - (n+1)/n
}

// topPct returns the share of total taken by the largest fraction of
// ascending counts.
func topPct(sorted []float64, total int, fraction float64) float64 {
	if total == 0 {
		return 0
	}
	top := max(int(float64(len(sorted))*fraction), 1)

	var hits float64
	for _, v := range sorted[len(sorted)-top:] {
		hits += v
	}
	return hits / float64(total) * 100
}

// MetricsComparison holds differences between two configurations.
type MetricsComparison struct {
	Config1 string
	Config2 string

	HitRateDiff     float64 // Positive means Config1 hits more often.
	MeanLatencyDiff float64
	LatencyDiffPct  float64
}

// Compare compares two metrics and returns the differences.
func Compare(m1, m2 *Metrics, name1, name2 string) *MetricsComparison {
	return &MetricsComparison{
		Config1:         name1,
		Config2:         name2,
		HitRateDiff:     m1.HitRate - m2.HitRate,
		MeanLatencyDiff: m1.MeanLatencyMS - m2.MeanLatencyMS,
		LatencyDiffPct:  safeDiffPct(m1.MeanLatencyMS, m2.MeanLatencyMS),
	}
}

func safeDiffPct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
