// Package memclient provides an in-process annotator for tests, examples and
// benchmarks. It never touches the network.
package memclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hebrew-tools/nakdan/internal/client"
)

// Compile-time check that Client implements client.Annotator.
var _ client.Annotator = (*Client)(nil)

// Client returns canned or generated annotations.
type Client struct {
	mu        sync.RWMutex
	responses map[string]string
	err       error
	latency   time.Duration
	annotate  func(text, genre string) string

	calls atomic.Int64
}

// New creates a client. Unknown texts are echoed back with a pointing mark
// appended so results are distinguishable from their input.
func New() *Client {
	return &Client{
		responses: make(map[string]string),
		annotate: func(text, genre string) string {
			return text + "ָ"
		},
	}
}

// SetResponse sets the annotation returned for text, for any genre.
func (c *Client) SetResponse(text, annotated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[text] = annotated
}

// SetError makes every call fail with err until cleared with nil.
func (c *Client) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// SetLatency makes every call take at least d.
func (c *Client) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// Calls returns the number of Annotate invocations.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// Annotate implements client.Annotator. It honors ctx while simulating
// latency and reports cancellation as a ServiceError.
func (c *Client) Annotate(ctx context.Context, text, genre string) (string, error) {
	c.calls.Add(1)

	c.mu.RLock()
	latency, err := c.latency, c.err
	annotated, ok := c.responses[text]
	c.mu.RUnlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", client.AsServiceError(ctx.Err())
		case <-timer.C:
		}
	}

	if err != nil {
		return "", client.AsServiceError(err)
	}
	if !ok {
		annotated = c.annotate(text, genre)
	}
	return annotated, nil
}
