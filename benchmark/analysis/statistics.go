// Package analysis provides statistical comparison of benchmark runs.
package analysis

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// significance is the p-value threshold for a significant difference.
const significance = 0.05

// MannWhitneyResult contains the result of a Mann-Whitney U test.
type MannWhitneyResult struct {
	U           float64 // Smaller of the two U statistics.
	Z           float64 // Normal approximation, tie corrected.
	PValue      float64 // Two-tailed.
	Significant bool
}

// MannWhitneyU tests whether two samples come from different
// distributions. Latency samples contain many zero ties (cache hits), so
// the variance uses the tie correction.
func MannWhitneyU(sample1, sample2 []float64) *MannWhitneyResult {
	n1 := float64(len(sample1))
	n2 := float64(len(sample2))
	if n1 == 0 || n2 == 0 {
		return &MannWhitneyResult{PValue: 1}
	}

	type obs struct {
		v     float64
		first bool
	}
	all := make([]obs, 0, len(sample1)+len(sample2))
	for _, v := range sample1 {
		all = append(all, obs{v, true})
	}
	for _, v := range sample2 {
		all = append(all, obs{v, false})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].v < all[j].v })

	var r1, ties float64
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if all[k].first {
				r1 += rank
			}
		}
		t := float64(j - i)
		ties += t*t*t - t
		i = j
	}

	u1 := r1 - n1*(n1+1)/2
	u := math.Min(u1, n1*n2-u1)

	n := n1 + n2
	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 / 12 * ((n + 1) - ties/(n*(n-1))))

	res := &MannWhitneyResult{U: u, PValue: 1}
	if sigma > 0 {
		res.Z = (u - mu) / sigma
		res.PValue = 2 * normalCDF(-math.Abs(res.Z))
	}
	res.Significant = res.PValue < significance
	return res
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// EffectSize contains effect size metrics.
type EffectSize struct {
	CohensD        float64
	Interpretation string // negligible, small, medium or large.
}

// ComputeEffectSize computes Cohen's d with a pooled standard deviation.
func ComputeEffectSize(sample1, sample2 []float64) *EffectSize {
	if len(sample1) < 2 || len(sample2) < 2 {
		return &EffectSize{Interpretation: "undefined"}
	}

	mean1, std1 := stat.MeanStdDev(sample1, nil)
	mean2, std2 := stat.MeanStdDev(sample2, nil)

	n1 := float64(len(sample1))
	n2 := float64(len(sample2))
	pooled := math.Sqrt(((n1-1)*std1*std1 + (n2-1)*std2*std2) / (n1 + n2 - 2))

	var d float64
	if pooled > 0 {
		d = (mean1 - mean2) / pooled
	}
	return &EffectSize{
		CohensD:        d,
		Interpretation: interpretCohensD(math.Abs(d)),
	}
}

func interpretCohensD(d float64) string {
	switch {
	case d < 0.2:
		return "negligible"
	case d < 0.5:
		return "small"
	case d < 0.8:
		return "medium"
	default:
		return "large"
	}
}

// BootstrapResult is a percentile bootstrap interval for a mean difference.
type BootstrapResult struct {
	MeanDiff   float64
	LowerBound float64
	UpperBound float64
	Confidence float64 // e.g. 0.95.
}

// BootstrapConfidenceInterval resamples both samples with replacement and
// returns the percentile interval of the mean difference. The seed makes
// reports reproducible.
func BootstrapConfidenceInterval(sample1, sample2 []float64, iterations int, confidence float64, seed uint64) *BootstrapResult {
	res := &BootstrapResult{Confidence: confidence}
	if len(sample1) == 0 || len(sample2) == 0 || iterations <= 0 {
		return res
	}
	res.MeanDiff = stat.Mean(sample1, nil) - stat.Mean(sample2, nil)

	rng := rand.New(rand.NewPCG(seed, seed+1))
	diffs := make([]float64, iterations)
	for i := range diffs {
		diffs[i] = resampleMean(rng, sample1) - resampleMean(rng, sample2)
	}
	sort.Float64s(diffs)

	alpha := 1 - confidence
	res.LowerBound = stat.Quantile(alpha/2, stat.Empirical, diffs, nil)
	res.UpperBound = stat.Quantile(1-alpha/2, stat.Empirical, diffs, nil)
	return res
}

func resampleMean(rng *rand.Rand, sample []float64) float64 {
	var sum float64
	for range sample {
		sum += sample[rng.IntN(len(sample))]
	}
	return sum / float64(len(sample))
}

// DescriptiveStats contains basic descriptive statistics.
type DescriptiveStats struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	P25    float64
	P75    float64
	P95    float64
}

// Describe computes descriptive statistics for a sample.
func Describe(sample []float64) *DescriptiveStats {
	if len(sample) == 0 {
		return &DescriptiveStats{}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	q := func(p float64) float64 { return stat.Quantile(p, stat.Empirical, sorted, nil) }
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return &DescriptiveStats{
		N:      len(sorted),
		Mean:   mean,
		Median: q(0.5),
		StdDev: std,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    q(0.25),
		P75:    q(0.75),
		P95:    q(0.95),
	}
}
