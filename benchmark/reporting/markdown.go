// Package reporting renders benchmark results.
package reporting

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hebrew-tools/nakdan/benchmark/analysis"
	"github.com/hebrew-tools/nakdan/benchmark/simulation"
)

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w   io.Writer
	now func() time.Time
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w, now: time.Now}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", r.now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(w simulation.Workload) {
	unique := make(map[string]struct{}, len(w.Texts))
	for _, t := range w.Texts {
		unique[t] = struct{}{}
	}

	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Requests replayed:** %d\n", len(w.Texts))
	fmt.Fprintf(r.w, "- **Unique texts:** %d\n", len(unique))
	fmt.Fprintf(r.w, "- **Simulated miss latency:** %s (jitter ±%.0f%%)\n", w.MissLatency, w.Jitter*100)
	fmt.Fprintln(r.w, "- **Metric:** Latency per request, hits cost 0ms (lower is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes one row per configuration, smallest cache first.
func (r *MarkdownReport) WriteSummaryTable(results map[string]*simulation.AggregateResult) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Config | Cache Size | Hit Rate | Mean Latency | P90 | P99 | Final Entries |")
	fmt.Fprintln(r.w, "|--------|------------|----------|--------------|-----|-----|---------------|")

	for _, res := range SortedResults(results) {
		m := simulation.ComputeMetrics(res)
		fmt.Fprintf(r.w, "| %s | %d | %.1f%% | %.1fms | %.0fms | %.0fms | %d |\n",
			res.ConfigName, res.CacheSize, m.HitRate, m.MeanLatencyMS,
			m.P90LatencyMS, m.P99LatencyMS, res.FinalCache.TotalEntries)
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(comp *analysis.ConfigComparison) {
	fmt.Fprintf(r.w, "## %s vs %s\n\n", comp.Config1, comp.Config2)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+comp.Config1+" | "+comp.Config2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(comp.Config1)+2)+"|"+strings.Repeat("-", len(comp.Config2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %.2f | %.2f |\n", comp.Stats1.Mean, comp.Stats2.Mean)
	fmt.Fprintf(r.w, "| Median | %.2f | %.2f |\n", comp.Stats1.Median, comp.Stats2.Median)
	fmt.Fprintf(r.w, "| Std Dev | %.2f | %.2f |\n", comp.Stats1.StdDev, comp.Stats2.StdDev)
	fmt.Fprintf(r.w, "| P95 | %.0f | %.0f |\n", comp.Stats1.P95, comp.Stats2.P95)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		comp.MannWhitney.U, comp.MannWhitney.Z, comp.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		comp.EffectSize.CohensD, comp.EffectSize.Interpretation)
	fmt.Fprintf(r.w, "- **%.0f%% CI for mean difference:** [%.2f, %.2f]\n",
		comp.BootstrapCI.Confidence*100, comp.BootstrapCI.LowerBound, comp.BootstrapCI.UpperBound)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if comp.WinnerConfident {
		fmt.Fprintf(r.w, "**%s** is significantly faster than %s ",
			comp.Winner, otherConfig(comp.Winner, comp.Config1, comp.Config2))
		fmt.Fprintf(r.w, "(p < 0.05, effect size: %s).\n", comp.EffectSize.Interpretation)
	} else {
		fmt.Fprintln(r.w, "No statistically significant difference detected between configurations (p >= 0.05).")
	}
	fmt.Fprintln(r.w)
}

func otherConfig(winner, c1, c2 string) string {
	if winner == c1 {
		return c2
	}
	return c1
}

// WriteHitRateChart writes an ASCII chart of hit rate per request window,
// which shows how quickly a cache warms up.
func (r *MarkdownReport) WriteHitRateChart(res *simulation.AggregateResult) {
	fmt.Fprintf(r.w, "### %s Hit Rate Over Time\n\n", res.ConfigName)
	fmt.Fprintln(r.w, "```")

	const width = 40
	for i, rate := range res.WindowHitRates {
		bar := strings.Repeat("█", int(rate*width/100))
		fmt.Fprintf(r.w, "%5d │ %s %.0f%%\n", i+1, bar, rate)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by nakdan-bench*")
}

// SortedResults orders results by cache size, then name.
func SortedResults(results map[string]*simulation.AggregateResult) []*simulation.AggregateResult {
	out := make([]*simulation.AggregateResult, 0, len(results))
	for _, res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CacheSize != out[j].CacheSize {
			return out[i].CacheSize < out[j].CacheSize
		}
		return out[i].ConfigName < out[j].ConfigName
	})
	return out
}
