// Package source defines read-only object sources for batch input.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hebrew-tools/nakdan/internal/codec"
	"github.com/hebrew-tools/nakdan/internal/codec/gzipcodec"
	"github.com/hebrew-tools/nakdan/internal/codec/noopcodec"
	"github.com/hebrew-tools/nakdan/internal/codec/zstdcodec"
)

// ErrNotFound is returned when an object does not exist in the source.
var ErrNotFound = errors.New("source: object not found")

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// Source defines the interface for input backends.
// Implementations handle path formats and storage details internally.
type Source interface {
	// Open returns the raw content of the named object. Compressed objects
	// are returned as stored.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the names of all objects under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the source.
	Close() error
}

// DefaultCodecs resolves .zst and .gz names; anything else is read as is.
func DefaultCodecs() *codec.Registry {
	return codec.NewRegistry(noopcodec.New(), zstdcodec.New(), gzipcodec.New())
}

// ReadLines opens name, decompresses it by extension, and calls fn for every
// line that is not blank. Iteration stops at the first error from fn.
func ReadLines(ctx context.Context, src Source, name string, codecs *codec.Registry, fn func(line string) error) error {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	r, err := codecs.ForName(name).Reader(rc)
	if err != nil {
		return fmt.Errorf("creating decompressor for %s: %w", name, err)
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

// NormalizePrefix returns prefix with exactly one trailing slash, or the
// empty string.
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return prefix
}
