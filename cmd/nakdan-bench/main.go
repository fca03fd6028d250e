// Package main provides the nakdan-bench CLI tool for comparing cache
// configurations on a recorded text workload.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hebrew-tools/nakdan/benchmark/analysis"
	"github.com/hebrew-tools/nakdan/benchmark/reporting"
	"github.com/hebrew-tools/nakdan/benchmark/simulation"
	"github.com/hebrew-tools/nakdan/internal/source"
	"github.com/hebrew-tools/nakdan/internal/source/filesource"
)

var (
	inputFile    string
	cacheSizes   []int
	genre        string
	missLatency  time.Duration
	jitter       float64
	ttl          time.Duration
	interval     time.Duration
	seed         uint64
	outputFormat string
	outputFile   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "nakdan-bench",
	Short: "Benchmark cache configurations for nakdan",
	Long: `nakdan-bench replays a recorded request stream, one text per line,
through coordinators with different cache sizes.

The remote service is simulated, so hits cost nothing and misses cost
the configured latency. The first size is the baseline for comparisons.

Examples:
  # Compare the default sizes
  nakdan-bench run --input requests.txt

  # Compare specific sizes with expiry
  nakdan-bench run --input requests.txt.zst --sizes 10,500 --ttl 10m --interval 2s

  # Output as markdown report
  nakdan-bench run --input requests.txt --format markdown --output report.md`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark simulation",
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", "file with one request text per line (supports .zst and .gz)")
	runCmd.Flags().IntSliceVarP(&cacheSizes, "sizes", "s", []int{10, 100, 1000}, "cache sizes to compare")
	runCmd.Flags().StringVarP(&genre, "genre", "g", "", "genre for every request (default modern)")
	runCmd.Flags().DurationVar(&missLatency, "miss-latency", 300*time.Millisecond, "simulated latency of a remote call")
	runCmd.Flags().Float64Var(&jitter, "jitter", 0.2, "miss latency jitter as a fraction")
	runCmd.Flags().DurationVar(&ttl, "ttl", 0, "entry lifetime; 0 disables expiry")
	runCmd.Flags().DurationVar(&interval, "interval", time.Second, "virtual time between requests")
	runCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for latency jitter")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	runCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readTexts loads every non-empty line of path.
func readTexts(ctx context.Context, path string) ([]string, error) {
	src, err := filesource.New(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var texts []string
	err = source.ReadLines(ctx, src, filepath.Base(path), source.DefaultCodecs(), func(line string) error {
		texts = append(texts, line)
		return nil
	})
	return texts, err
}

func configsForSizes(sizes []int, ttl time.Duration) []simulation.Config {
	configs := make([]simulation.Config, 0, len(sizes))
	for _, n := range sizes {
		configs = append(configs, simulation.Config{
			Name:      fmt.Sprintf("size-%d", n),
			CacheSize: n,
			TTL:       ttl,
		})
	}
	return configs
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if len(cacheSizes) == 0 {
		return errors.New("at least one cache size is required")
	}
	ctx := cmd.Context()

	if verbose {
		fmt.Fprintln(os.Stderr, "Reading requests...")
	}
	texts, err := readTexts(ctx, inputFile)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if len(texts) == 0 {
		return fmt.Errorf("no requests found in %s", inputFile)
	}

	workload := simulation.Workload{
		Texts:       texts,
		Genre:       genre,
		MissLatency: missLatency,
		Jitter:      jitter,
		Interval:    interval,
		Seed:        seed,
	}
	configs := configsForSizes(cacheSizes, ttl)

	if verbose {
		fmt.Fprintf(os.Stderr, "Replaying %d requests through %d configurations...\n", len(texts), len(configs))
	}
	results, err := simulation.NewSimulator(configs...).Run(ctx, workload)
	if err != nil {
		return err
	}

	var comparison *analysis.MultiComparison
	if len(configs) >= 2 {
		comparison = analysis.CompareAll(
			results,
			configs[0].Name,
			10000, // Bootstrap iterations.
			0.95,  // 95% confidence.
		)
	}

	var output io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	switch outputFormat {
	case "markdown":
		writeMarkdownReport(output, workload, results, comparison)
	case "text":
		writeTextReport(output, workload, results, comparison)
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
	return nil
}

func writeTextReport(w io.Writer, wl simulation.Workload, results map[string]*simulation.AggregateResult, comp *analysis.MultiComparison) {
	fmt.Fprintf(w, "Nakdan Cache Benchmark\n")
	fmt.Fprintf(w, "======================\n\n")
	fmt.Fprintf(w, "Requests: %d\n", len(wl.Texts))
	fmt.Fprintf(w, "Miss latency: %s\n\n", wl.MissLatency)

	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "--------\n\n")

	for _, res := range reporting.SortedResults(results) {
		m := simulation.ComputeMetrics(res)
		fmt.Fprintf(w, "%s:\n", res.ConfigName)
		fmt.Fprintf(w, "  Hit rate:       %.1f%%\n", m.HitRate)
		fmt.Fprintf(w, "  Mean latency:   %.1fms\n", m.MeanLatencyMS)
		fmt.Fprintf(w, "  P90 latency:    %.0fms\n", m.P90LatencyMS)
		fmt.Fprintf(w, "  Unique texts:   %d\n", m.UniqueTexts)
		fmt.Fprintf(w, "  Top 10%% share:  %.1f%%\n\n", m.TopTextPct)
	}

	if comp != nil {
		fmt.Fprintf(w, "Statistical Analysis:\n")
		fmt.Fprintf(w, "---------------------\n\n")
		for _, c := range comp.Comparisons {
			fmt.Fprintln(w, c.Summary())
			fmt.Fprintln(w)
		}
	}
}

func writeMarkdownReport(w io.Writer, wl simulation.Workload, results map[string]*simulation.AggregateResult, comp *analysis.MultiComparison) {
	report := reporting.NewMarkdownReport(w)
	report.WriteHeader("Nakdan Cache Benchmark")
	report.WriteMethodology(wl)
	report.WriteSummaryTable(results)

	if comp != nil {
		for _, c := range comp.Comparisons {
			report.WriteComparison(c)
		}
	}
	for _, res := range reporting.SortedResults(results) {
		report.WriteHitRateChart(res)
	}

	report.WriteFooter()
}
