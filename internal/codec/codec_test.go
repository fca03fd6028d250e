package codec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/hebrew-tools/nakdan/internal/codec"
	"github.com/hebrew-tools/nakdan/internal/codec/gzipcodec"
	"github.com/hebrew-tools/nakdan/internal/codec/noopcodec"
	"github.com/hebrew-tools/nakdan/internal/codec/zstdcodec"
)

func newRegistry() *codec.Registry {
	return codec.NewRegistry(noopcodec.New(), zstdcodec.New(), gzipcodec.New())
}

func TestRegistry_ForName(t *testing.T) {
	r := newRegistry()

	tests := []struct {
		name string
		want string
	}{
		{"texts.txt.zst", "zstd"},
		{"texts.txt.gz", "gzip"},
		{"texts.txt", "identity"},
		{"archive.gzip", "identity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ForName(tt.name).Encoding(); got != tt.want {
				t.Errorf("ForName(%q).Encoding() = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestRegistry_ForEncoding(t *testing.T) {
	r := newRegistry()

	tests := []struct {
		encoding string
		want     string
		ok       bool
	}{
		{"", "identity", true},
		{"identity", "identity", true},
		{"gzip", "gzip", true},
		{" ZSTD ", "zstd", true},
		{"br", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			c, ok := r.ForEncoding(tt.encoding)
			if ok != tt.ok {
				t.Fatalf("ForEncoding(%q) ok = %v, want %v", tt.encoding, ok, tt.ok)
			}
			if ok && c.Encoding() != tt.want {
				t.Errorf("ForEncoding(%q) = %q, want %q", tt.encoding, c.Encoding(), tt.want)
			}
		})
	}
}

func TestRegistry_AcceptEncoding(t *testing.T) {
	if got := newRegistry().AcceptEncoding(); got != "zstd, gzip" {
		t.Errorf("AcceptEncoding() = %q, want %q", got, "zstd, gzip")
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("בְּרֵאשִׁית בָּרָא אֱלֹהִים\n"), 500)

	for _, c := range []codec.Codec{zstdcodec.New(), gzipcodec.New(), noopcodec.New()} {
		t.Run(c.Encoding(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := c.Writer(&buf)
			if err != nil {
				t.Fatalf("Writer() error = %v", err)
			}
			if _, err := w.Write(original); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			r, err := c.Reader(&buf)
			if err != nil {
				t.Fatalf("Reader() error = %v", err)
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(got, original) {
				t.Error("round trip mismatch")
			}
		})
	}
}
