// Package filesource implements a local filesystem source.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hebrew-tools/nakdan/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Source reads files under a root directory. Object names are
// slash-separated paths relative to the root.
type Source struct {
	root string
}

// New creates a source rooted at the given directory, which must exist.
func New(root string) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Source{root: root}, nil
}

// Open opens the named file.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// List walks the directory named by prefix and returns every regular file
// under it.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	dir := s.path(strings.TrimSuffix(prefix, "/"))

	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, source.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}

	sort.Strings(names)
	return names, nil
}

// Close releases any resources held by the source.
func (s *Source) Close() error {
	return nil
}

func (s *Source) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}
