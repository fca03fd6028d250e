package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan"
	"github.com/hebrew-tools/nakdan/internal/client/memclient"
	"github.com/hebrew-tools/nakdan/internal/source/memsource"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri     string
		want    location
		prefix  bool
		wantErr bool
	}{
		{"texts/day1.txt", location{scheme: "file", path: "texts/day1.txt"}, false, false},
		{"gs://bucket/texts/day1.txt.zst", location{scheme: "gs", bucket: "bucket", path: "texts/day1.txt.zst"}, false, false},
		{"gs://bucket/texts/", location{scheme: "gs", bucket: "bucket", path: "texts/"}, true, false},
		{"s3://bucket", location{scheme: "s3", bucket: "bucket"}, true, false},
		{"s3:///key", location{}, false, true},
		{"", location{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := parseLocation(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseLocation(%q) error = nil", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLocation(%q) error = %v", tt.uri, err)
			}
			if got != tt.want {
				t.Errorf("parseLocation(%q) = %+v, want %+v", tt.uri, got, tt.want)
			}
			if got.isPrefix() != tt.prefix {
				t.Errorf("isPrefix() = %v, want %v", got.isPrefix(), tt.prefix)
			}
		})
	}
}

func TestAnnotateLines(t *testing.T) {
	mem := memclient.New()
	mem.SetResponse("שלום", "שָׁלוֹם")
	mem.SetResponse("עולם", "עוֹלָם")

	coord, err := nakdan.New(nakdan.WithClient(mem))
	if err != nil {
		t.Fatalf("nakdan.New() error = %v", err)
	}
	defer coord.Close()

	src := memsource.New()
	src.Set("a.txt", []byte("שלום\nעולם\n\nשלום\n"))
	src.Set("b.txt", []byte("עולם\n"))

	var out bytes.Buffer
	sum, err := annotateLines(context.Background(), coord, src, []string{"a.txt", "b.txt"}, "modern", &out, zap.NewNop())
	if err != nil {
		t.Fatalf("annotateLines() error = %v", err)
	}

	want := "שָׁלוֹם\nעוֹלָם\nשָׁלוֹם\nעוֹלָם\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if sum.objects != 2 || sum.lines != 4 || sum.cached != 2 || sum.failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if mem.Calls() != 2 {
		t.Errorf("service calls = %d, want 2", mem.Calls())
	}
}

func TestAnnotateLines_InvalidGenre(t *testing.T) {
	coord, err := nakdan.New(nakdan.WithClient(memclient.New()))
	if err != nil {
		t.Fatalf("nakdan.New() error = %v", err)
	}
	defer coord.Close()

	src := memsource.New()
	src.Set("a.txt", []byte("שלום\n"))

	_, err = annotateLines(context.Background(), coord, src, []string{"a.txt"}, "klingon", &bytes.Buffer{}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "genre") {
		t.Errorf("annotateLines() error = %v, want genre error", err)
	}
}
