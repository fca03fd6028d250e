package analysis

import (
	"math"
	"testing"
)

func TestMannWhitneyU(t *testing.T) {
	tests := []struct {
		name       string
		sample1    []float64
		sample2    []float64
		wantSignif bool
	}{
		{
			name:       "identical samples",
			sample1:    []float64{1, 2, 3, 4, 5},
			sample2:    []float64{1, 2, 3, 4, 5},
			wantSignif: false,
		},
		{
			name:       "clearly different samples",
			sample1:    []float64{1, 2, 3, 4, 5},
			sample2:    []float64{10, 11, 12, 13, 14},
			wantSignif: true,
		},
		{
			name:       "highly overlapping samples",
			sample1:    []float64{3, 4, 5, 6, 7},
			sample2:    []float64{4, 5, 6, 7, 8},
			wantSignif: false,
		},
		{
			name:       "all hits on both sides",
			sample1:    []float64{0, 0, 0, 0},
			sample2:    []float64{0, 0, 0, 0},
			wantSignif: false,
		},
		{
			name:       "mostly hits against mostly misses",
			sample1:    []float64{0, 0, 0, 0, 0, 0, 0, 0, 300, 300},
			sample2:    []float64{300, 300, 300, 300, 300, 300, 300, 300, 0, 0},
			wantSignif: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MannWhitneyU(tt.sample1, tt.sample2)
			if result.Significant != tt.wantSignif {
				t.Errorf("Significant = %v, want %v (p=%f)", result.Significant, tt.wantSignif, result.PValue)
			}
		})
	}
}

func TestMannWhitneyU_Empty(t *testing.T) {
	result := MannWhitneyU(nil, []float64{1, 2, 3})
	if result.U != 0 || result.PValue != 1 {
		t.Errorf("got U=%f p=%f, want U=0 p=1 for empty sample", result.U, result.PValue)
	}
}

func TestEffectSize(t *testing.T) {
	tests := []struct {
		name       string
		sample1    []float64
		sample2    []float64
		wantInterp string
	}{
		{
			name:       "large effect",
			sample1:    []float64{1, 2, 3, 4, 5},
			sample2:    []float64{10, 11, 12, 13, 14},
			wantInterp: "large",
		},
		{
			name:       "negligible effect",
			sample1:    []float64{5, 5, 5, 5, 5},
			sample2:    []float64{5.1, 5, 4.9, 5, 5},
			wantInterp: "negligible",
		},
		{
			name:       "too few observations",
			sample1:    []float64{1},
			sample2:    []float64{2, 3},
			wantInterp: "undefined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeEffectSize(tt.sample1, tt.sample2)
			if result.Interpretation != tt.wantInterp {
				t.Errorf("Interpretation = %s, want %s (d=%f)", result.Interpretation, tt.wantInterp, result.CohensD)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	stats := Describe([]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1})

	if stats.N != 10 {
		t.Errorf("N = %d, want 10", stats.N)
	}
	if stats.Mean != 5.5 {
		t.Errorf("Mean = %f, want 5.5", stats.Mean)
	}
	if stats.Min != 1 || stats.Max != 10 {
		t.Errorf("Min/Max = %f/%f, want 1/10", stats.Min, stats.Max)
	}
	if stats.Median != 5 {
		t.Errorf("Median = %f, want 5", stats.Median)
	}
	if stats.P95 != 10 {
		t.Errorf("P95 = %f, want 10", stats.P95)
	}
}

func TestDescribe_Single(t *testing.T) {
	stats := Describe([]float64{42})
	if stats.StdDev != 0 || stats.Median != 42 {
		t.Errorf("got std=%f median=%f, want 0 and 42", stats.StdDev, stats.Median)
	}
}

func TestDescribe_Empty(t *testing.T) {
	if stats := Describe(nil); stats.N != 0 {
		t.Errorf("N = %d, want 0", stats.N)
	}
}

func TestBootstrapConfidenceInterval(t *testing.T) {
	sample1 := []float64{1, 2, 3, 4, 5}
	sample2 := []float64{6, 7, 8, 9, 10}

	result := BootstrapConfidenceInterval(sample1, sample2, 1000, 0.95, 7)

	if math.Abs(result.MeanDiff-(-5)) > 1e-9 {
		t.Errorf("MeanDiff = %f, want -5", result.MeanDiff)
	}
	if result.LowerBound > result.MeanDiff || result.UpperBound < result.MeanDiff {
		t.Errorf("CI [%f, %f] does not contain mean diff %f", result.LowerBound, result.UpperBound, result.MeanDiff)
	}
	if result.LowerBound == result.UpperBound {
		t.Error("CI has zero width, want resampling to spread the estimates")
	}
	if result.UpperBound >= 0 {
		t.Errorf("UpperBound = %f, want < 0 for disjoint samples", result.UpperBound)
	}

	again := BootstrapConfidenceInterval(sample1, sample2, 1000, 0.95, 7)
	if *again != *result {
		t.Error("same seed produced a different interval")
	}
}
