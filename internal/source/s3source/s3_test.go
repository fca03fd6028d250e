package s3source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hebrew-tools/nakdan/internal/source"
)

// fakeS3 serves objects from a map and pages listings two keys at a time.
type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var matching []string
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			matching = append(matching, k)
		}
	}

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range matching {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := min(start+2, len(matching))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(matching))}
	for _, k := range matching[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(matching) {
		out.NextContinuationToken = aws.String(matching[end])
	}
	return out, nil
}

func newTestSource(t *testing.T, opts ...Option) *Source {
	t.Helper()
	fake := &fakeS3{
		objects: map[string]string{
			"corpus/a.txt":   "שלום\n",
			"corpus/b/c.txt": "עולם\n",
			"corpus/b/d.txt": "ספר\n",
			"corpus/dir/":    "",
			"other/e.txt":    "בית\n",
		},
		keys: []string{"corpus/a.txt", "corpus/b/c.txt", "corpus/b/d.txt", "corpus/dir/", "other/e.txt"},
	}
	s, err := New(context.Background(), "bucket", append([]Option{WithClient(fake)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Source{}
			if err := WithPrefix(tt.input)(s); err != nil {
				t.Fatalf("WithPrefix() error = %v", err)
			}
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestSource_Open(t *testing.T) {
	s := newTestSource(t, WithPrefix("corpus"))

	rc, err := s.Open(context.Background(), "a.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("reading object: %v", err)
	}
	if buf.String() != "שלום\n" {
		t.Errorf("content = %q", buf.String())
	}

	if _, err := s.Open(context.Background(), "missing.txt"); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSource_List(t *testing.T) {
	s := newTestSource(t, WithPrefix("corpus"))

	names, err := s.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"a.txt", "b/c.txt", "b/d.txt"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", names, want)
	}

	names, err = s.List(context.Background(), "b/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 2 {
		t.Errorf("List(b/) = %v, want 2 names", names)
	}
}

func TestSource_ReadLines(t *testing.T) {
	s := newTestSource(t)

	var lines []string
	err := source.ReadLines(context.Background(), s, "corpus/b/c.txt", source.DefaultCodecs(), func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	if len(lines) != 1 || lines[0] != "עולם" {
		t.Errorf("lines = %q", lines)
	}
}
