package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan"
	"github.com/hebrew-tools/nakdan/internal/source"
	"github.com/hebrew-tools/nakdan/internal/source/filesource"
	"github.com/hebrew-tools/nakdan/internal/source/gcssource"
	"github.com/hebrew-tools/nakdan/internal/source/s3source"
)

var batchCmd = &cobra.Command{
	Use:   "batch [URI]",
	Short: "Add nikud to every line of a file or bucket prefix",
	Long: `Annotate each non-empty line of the input through one cached
coordinator, so repeated lines are only sent once.

URI may be a local path, gs://bucket/object or s3://bucket/object. A
trailing slash processes every object under the prefix. Files ending in
.zst or .gz are decompressed.

Examples:
  nakdan batch ./texts/day1.txt
  nakdan batch gs://my-bucket/texts/ --output annotated.txt
  nakdan batch s3://my-bucket/texts/day1.txt.gz --genre rabbinic`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var (
	batchGenre  string
	batchOutput string
	s3Region    string
	s3Endpoint  string
)

func init() {
	batchCmd.Flags().StringVarP(&batchGenre, "genre", "g", string(nakdan.DefaultGenre), "text genre")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write annotated lines to this file instead of stdout")
	batchCmd.Flags().StringVar(&s3Region, "s3-region", "", "AWS region for s3:// inputs")
	batchCmd.Flags().StringVar(&s3Endpoint, "s3-endpoint", "", "custom endpoint for S3-compatible services")
	rootCmd.AddCommand(batchCmd)
}

// location is a parsed batch input URI.
type location struct {
	scheme string // "file", "gs" or "s3"
	bucket string
	path   string
}

// isPrefix reports whether the location names a set of objects.
func (l location) isPrefix() bool {
	return l.path == "" || strings.HasSuffix(l.path, "/")
}

func parseLocation(uri string) (location, error) {
	for _, scheme := range []string{"gs", "s3"} {
		rest, ok := strings.CutPrefix(uri, scheme+"://")
		if !ok {
			continue
		}
		bucket, path, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return location{}, fmt.Errorf("missing bucket in %q", uri)
		}
		return location{scheme: scheme, bucket: bucket, path: path}, nil
	}
	if uri == "" {
		return location{}, errors.New("empty input path")
	}
	return location{scheme: "file", path: uri}, nil
}

// openSource returns a source for loc and the object names to process.
func openSource(ctx context.Context, loc location) (source.Source, []string, error) {
	if loc.scheme == "file" {
		info, err := os.Stat(loc.path)
		if err != nil {
			return nil, nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			src, err := filesource.New(filepath.Dir(loc.path))
			if err != nil {
				return nil, nil, err
			}
			return src, []string{filepath.Base(loc.path)}, nil
		}
		src, err := filesource.New(loc.path)
		if err != nil {
			return nil, nil, err
		}
		return listAll(ctx, src, "")
	}

	var (
		src source.Source
		err error
	)
	switch loc.scheme {
	case "gs":
		src, err = gcssource.New(ctx, loc.bucket)
	case "s3":
		var opts []s3source.Option
		if s3Region != "" {
			opts = append(opts, s3source.WithRegion(s3Region))
		}
		if s3Endpoint != "" {
			opts = append(opts, s3source.WithEndpoint(s3Endpoint))
		}
		src, err = s3source.New(ctx, loc.bucket, opts...)
	default:
		return nil, nil, fmt.Errorf("unsupported scheme %q", loc.scheme)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s source: %w", loc.scheme, err)
	}

	if loc.isPrefix() {
		return listAll(ctx, src, loc.path)
	}
	return src, []string{loc.path}, nil
}

func listAll(ctx context.Context, src source.Source, prefix string) (source.Source, []string, error) {
	names, err := src.List(ctx, prefix)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return src, names, nil
}

// batchSummary counts the outcome of a batch run.
type batchSummary struct {
	objects int
	lines   int
	cached  int
	failed  int
}

// annotateLines feeds every line of every object through coord and writes
// the results to w. Failed lines are written unchanged.
func annotateLines(ctx context.Context, coord *nakdan.Coordinator, src source.Source, names []string, genre string, w io.Writer, logger *zap.Logger) (batchSummary, error) {
	var sum batchSummary
	codecs := source.DefaultCodecs()

	for _, name := range names {
		sum.objects++
		err := source.ReadLines(ctx, src, name, codecs, func(line string) error {
			sum.lines++
			res, err := coord.GetNikud(ctx, line, genre)
			if errors.Is(err, nakdan.ErrValidation) {
				return err
			}
			out := res.NikudText
			if err != nil {
				sum.failed++
				out = line
				logger.Warn("line failed", zap.String("object", name), zap.Int("line", sum.lines), zap.Error(err))
			} else if res.Cached {
				sum.cached++
			}
			_, werr := fmt.Fprintln(w, out)
			return werr
		})
		if err != nil {
			return sum, fmt.Errorf("processing %s: %w", name, err)
		}
	}
	return sum, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	loc, err := parseLocation(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	src, names, err := openSource(ctx, loc)
	if err != nil {
		return err
	}
	defer src.Close()

	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No input objects found.")
		return nil
	}

	out := io.Writer(os.Stdout)
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)

	coord, err := newCoordinator(cfg, logger)
	if err != nil {
		return err
	}
	defer coord.Close()

	sum, err := annotateLines(ctx, coord, src, names, batchGenre, bw, logger)
	if flushErr := bw.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		return err
	}

	stats := coord.CacheStats()
	fmt.Fprintf(os.Stderr, "Objects:       %d\n", sum.objects)
	fmt.Fprintf(os.Stderr, "Lines:         %d\n", sum.lines)
	fmt.Fprintf(os.Stderr, "From cache:    %d\n", sum.cached)
	fmt.Fprintf(os.Stderr, "Failed:        %d\n", sum.failed)
	fmt.Fprintf(os.Stderr, "Cache entries: %d/%d\n", stats.TotalEntries, stats.MaxCacheSize)
	return nil
}
