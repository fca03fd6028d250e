package memclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hebrew-tools/nakdan/internal/client"
)

func TestClient_Responses(t *testing.T) {
	c := New()
	c.SetResponse("שלום", "שָׁלוֹם")
	ctx := context.Background()

	got, err := c.Annotate(ctx, "שלום", "modern")
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if got != "שָׁלוֹם" {
		t.Errorf("Annotate() = %q, want canned response", got)
	}

	got, err = c.Annotate(ctx, "בית", "modern")
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if got == "בית" {
		t.Error("generated annotation equals input")
	}

	if c.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", c.Calls())
	}
}

func TestClient_Error(t *testing.T) {
	c := New()
	c.SetError(errors.New("connection refused"))

	_, err := c.Annotate(context.Background(), "שלום", "modern")
	var se *client.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("Annotate() error = %v, want *client.ServiceError", err)
	}
	if se.Kind != client.KindNetwork {
		t.Errorf("Kind = %q, want network", se.Kind)
	}

	c.SetError(nil)
	if _, err := c.Annotate(context.Background(), "שלום", "modern"); err != nil {
		t.Errorf("Annotate() after clearing error = %v", err)
	}
}

func TestClient_LatencyHonorsContext(t *testing.T) {
	c := New()
	c.SetLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Annotate(ctx, "שלום", "modern")
	var se *client.ServiceError
	if !errors.As(err, &se) || se.Kind != client.KindTimeout {
		t.Errorf("Annotate() error = %v, want timeout", err)
	}
}
