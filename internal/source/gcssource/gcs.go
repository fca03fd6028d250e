// Package gcssource implements a Google Cloud Storage source.
package gcssource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/hebrew-tools/nakdan/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Source reads objects from a GCS bucket.
type Source struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = source.NormalizePrefix(prefix)
	}
}

// New creates a GCS source using application default credentials.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Source, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Source{
		client: client,
		bucket: client.Bucket(bucketName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open returns a reader over the named object.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	return reader, nil
}

// List returns the names of all objects under prefix, relative to the
// source prefix.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.key(prefix)})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		if attrs.Name == "" || attrs.Name[len(attrs.Name)-1] == '/' {
			continue
		}
		names = append(names, s.name(attrs.Name))
	}

	sort.Strings(names)
	return names, nil
}

// Close releases resources.
func (s *Source) Close() error {
	return s.client.Close()
}

// key returns the full object key for a name.
func (s *Source) key(name string) string {
	return s.prefix + name
}

// name strips the source prefix from an object key.
func (s *Source) name(key string) string {
	return key[len(s.prefix):]
}
