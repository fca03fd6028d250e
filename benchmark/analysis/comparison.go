package analysis

import (
	"fmt"
	"sort"

	"github.com/hebrew-tools/nakdan/benchmark/simulation"
)

// Tie is reported as the winner when neither configuration is faster.
const Tie = "tie"

// ConfigComparison is a statistical comparison of per-request latency
// between two cache configurations.
type ConfigComparison struct {
	Config1         string
	Config2         string
	Stats1          *DescriptiveStats
	Stats2          *DescriptiveStats
	MannWhitney     *MannWhitneyResult
	EffectSize      *EffectSize
	BootstrapCI     *BootstrapResult
	Winner          string // Configuration with lower mean latency, or Tie.
	WinnerConfident bool   // Difference is statistically significant.
}

// CompareConfigs compares the latency samples of two simulation results.
func CompareConfigs(
	result1, result2 *simulation.AggregateResult,
	bootstrapIterations int,
	confidence float64,
) *ConfigComparison {
	s1, s2 := result1.LatenciesMS, result2.LatenciesMS

	c := &ConfigComparison{
		Config1:     result1.ConfigName,
		Config2:     result2.ConfigName,
		Stats1:      Describe(s1),
		Stats2:      Describe(s2),
		MannWhitney: MannWhitneyU(s1, s2),
		EffectSize:  ComputeEffectSize(s1, s2),
		BootstrapCI: BootstrapConfidenceInterval(s1, s2, bootstrapIterations, confidence, 1),
	}

	switch {
	case c.Stats1.Mean < c.Stats2.Mean:
		c.Winner = c.Config1
	case c.Stats2.Mean < c.Stats1.Mean:
		c.Winner = c.Config2
	default:
		c.Winner = Tie
	}
	c.WinnerConfident = c.Winner != Tie && c.MannWhitney.Significant
	return c
}

// Summary returns a human-readable summary of the comparison.
func (c *ConfigComparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}

	return fmt.Sprintf(
		"%s vs %s:\n"+
			"  %s: mean=%.1fms, p95=%.1fms\n"+
			"  %s: mean=%.1fms, p95=%.1fms\n"+
			"  Difference: %.1fms/request (%.1f%%), %.0f%% CI [%.1f, %.1f]\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Result: %s, %s",
		c.Config1, c.Config2,
		c.Config1, c.Stats1.Mean, c.Stats1.P95,
		c.Config2, c.Stats2.Mean, c.Stats2.P95,
		c.Stats1.Mean-c.Stats2.Mean, safePctDiff(c.Stats1.Mean, c.Stats2.Mean),
		c.BootstrapCI.Confidence*100, c.BootstrapCI.LowerBound, c.BootstrapCI.UpperBound,
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Winner, sig,
	)
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

// MultiComparison compares several configurations against a baseline.
type MultiComparison struct {
	Baseline    string
	Comparisons []*ConfigComparison
}

// CompareAll compares every configuration against baseline, in name
// order. It returns nil when baseline is missing.
func CompareAll(
	results map[string]*simulation.AggregateResult,
	baseline string,
	bootstrapIterations int,
	confidence float64,
) *MultiComparison {
	base, ok := results[baseline]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		if name != baseline {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	multi := &MultiComparison{Baseline: baseline}
	for _, name := range names {
		multi.Comparisons = append(multi.Comparisons, CompareConfigs(base, results[name], bootstrapIterations, confidence))
	}
	return multi
}
