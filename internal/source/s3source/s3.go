// Package s3source implements an AWS S3 source.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hebrew-tools/nakdan/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// API is the subset of the S3 client used by Source.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Compile-time check that the SDK client satisfies API.
var _ API = (*s3.Client)(nil)

// Source reads objects from an S3 bucket.
type Source struct {
	client API
	bucket string
	prefix string
}

// Option configures a Source.
type Option func(*Source) error

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Source) error {
		s.prefix = source.NormalizePrefix(prefix)
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Source) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint for S3-compatible services like MinIO.
func WithEndpoint(endpoint string) Option {
	return func(s *Source) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// WithClient replaces the S3 client.
func WithClient(c API) Option {
	return func(s *Source) error {
		s.client = c
		return nil
	}
}

// New creates an S3 source using the default AWS credential chain.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Source, error) {
	s := &Source{bucket: bucketName}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
	}
	return s, nil
}

// Open returns a reader over the named object.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return out.Body, nil
}

// List returns the names of all objects under prefix, relative to the
// source prefix.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	})

	var names []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			names = append(names, strings.TrimPrefix(key, s.prefix))
		}
	}

	sort.Strings(names)
	return names, nil
}

// Close releases resources.
func (s *Source) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}
