// Package memsource provides an in-memory source for testing.
package memsource

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/hebrew-tools/nakdan/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Source is an in-memory source for testing.
type Source struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory source.
func New() *Source {
	return &Source{
		objects: make(map[string][]byte),
	}
}

// Set stores data under name. The data is copied.
func (s *Source) Set(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = bytes.Clone(data)
}

// Open returns a reader over the named object.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, source.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// List returns the sorted names under prefix.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for the memory source.
func (s *Source) Close() error {
	return nil
}
