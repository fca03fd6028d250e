// Package codec provides compression and decompression for HTTP bodies and
// batch input files.
package codec

import (
	"io"
	"strings"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
	// Encoding returns the HTTP content-coding token (e.g., "zstd", "gzip").
	// Returns "identity" for no compression.
	Encoding() string
}

// Registry resolves codecs by file extension or HTTP content coding.
type Registry struct {
	codecs   []Codec
	fallback Codec
}

// NewRegistry creates a registry. The fallback is returned when nothing
// matches and is usually a no-op codec.
func NewRegistry(fallback Codec, codecs ...Codec) *Registry {
	return &Registry{codecs: codecs, fallback: fallback}
}

// ForName returns the codec whose extension matches the suffix of name.
func (r *Registry) ForName(name string) Codec {
	for _, c := range r.codecs {
		if ext := c.Extension(); ext != "" && strings.HasSuffix(name, "."+ext) {
			return c
		}
	}
	return r.fallback
}

// ForEncoding returns the codec for a Content-Encoding header value.
// The second result is false for an unsupported coding.
func (r *Registry) ForEncoding(encoding string) (Codec, bool) {
	encoding = strings.ToLower(strings.TrimSpace(encoding))
	if encoding == "" || encoding == "identity" {
		return r.fallback, true
	}
	for _, c := range r.codecs {
		if c.Encoding() == encoding {
			return c, true
		}
	}
	return nil, false
}

// AcceptEncoding returns a value for the Accept-Encoding request header.
func (r *Registry) AcceptEncoding() string {
	tokens := make([]string, 0, len(r.codecs))
	for _, c := range r.codecs {
		tokens = append(tokens, c.Encoding())
	}
	return strings.Join(tokens, ", ")
}
