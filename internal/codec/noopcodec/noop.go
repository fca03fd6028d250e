// Package noopcodec provides the identity codec for uncompressed data.
package noopcodec

import (
	"io"

	"github.com/hebrew-tools/nakdan/internal/codec"
)

var _ codec.Codec = Codec{}

// Codec passes data through unchanged.
type Codec struct{}

// New returns the identity codec.
func New() Codec { return Codec{} }

// Reader returns r, adding a no-op Close when r has none.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(r), nil
}

// Writer returns w with a Close that never closes the underlying writer.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

// Extension returns "" since uncompressed names carry no suffix.
func (Codec) Extension() string { return "" }

// Encoding returns the "identity" content coding.
func (Codec) Encoding() string { return "identity" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
