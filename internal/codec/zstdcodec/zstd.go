// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/hebrew-tools/nakdan/internal/codec"
)

var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression.
type Codec struct {
	level zstd.EncoderLevel
}

// New returns a zstd codec that compresses at the default level.
func New() *Codec {
	return &Codec{level: zstd.SpeedDefault}
}

// NewWithLevel returns a zstd codec that compresses at level.
func NewWithLevel(level zstd.EncoderLevel) *Codec {
	return &Codec{level: level}
}

// Reader wraps r to decompress zstd data. Inputs are read line by line, so
// a single decoder goroutine is enough.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
}

// Extension returns "zst".
func (c *Codec) Extension() string { return "zst" }

// Encoding returns "zstd".
func (c *Codec) Encoding() string { return "zstd" }
