// Package dicta implements client.Annotator against the Dicta Nakdan HTTP API.
package dicta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hebrew-tools/nakdan/internal/client"
	"github.com/hebrew-tools/nakdan/internal/codec"
	"github.com/hebrew-tools/nakdan/internal/codec/gzipcodec"
	"github.com/hebrew-tools/nakdan/internal/codec/noopcodec"
	"github.com/hebrew-tools/nakdan/internal/codec/zstdcodec"
	"github.com/hebrew-tools/nakdan/internal/stats"
)

const (
	// DefaultURL is the public Nakdan endpoint.
	DefaultURL = "https://nakdan-u1-0.loadbalancer.dicta.org.il/api"

	// DefaultMaxRetries is the number of retries after a failed attempt.
	DefaultMaxRetries = 1

	// DefaultBackoff is the delay before the first retry. It doubles on
	// every further retry.
	DefaultBackoff = 500 * time.Millisecond

	// DefaultRequestTimeout bounds a single HTTP attempt.
	DefaultRequestTimeout = 15 * time.Second

	// maxResponseBytes caps the decoded response body.
	maxResponseBytes = 16 << 20
)

// Compile-time check that Client implements client.Annotator.
var _ client.Annotator = (*Client)(nil)

// Client calls the Nakdan service.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	url        string
	http       *http.Client
	maxRetries int
	backoff    time.Duration
	perAttempt time.Duration
	limiter    *rate.Limiter
	codecs     *codec.Registry
	stats      stats.Collector
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets the service endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMaxRetries sets how many times a failed attempt is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
	}
}

// WithBackoff sets the delay before the first retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithAttemptTimeout bounds each HTTP attempt. Zero leaves attempts bounded
// only by the caller's context.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.perAttempt = max(d, 0)
	}
}

// WithRateLimit limits outgoing requests to rps per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithStats sets the stats collector.
func WithStats(s stats.Collector) Option {
	return func(c *Client) {
		c.stats = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		url:        DefaultURL,
		http:       &http.Client{},
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		perAttempt: DefaultRequestTimeout,
		codecs:     codec.NewRegistry(noopcodec.New(), zstdcodec.New(), gzipcodec.New()),
		stats:      stats.NewNoop(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request is the JSON body expected by the service.
type request struct {
	Task            string `json:"task"`
	Data            string `json:"data"`
	Genre           string `json:"genre"`
	AddMorph        bool   `json:"addmorph"`
	KeepMetagim     bool   `json:"keepmetagim"`
	KeepQQ          bool   `json:"keepqq"`
	NoDageshDefMem  bool   `json:"nodageshdefmem"`
	PatachMa        bool   `json:"patachma"`
	UseTokenization bool   `json:"useTokenization"`
}

// Annotate sends text to the service, retrying failed attempts with
// exponential backoff. Malformed responses are not retried.
func (c *Client) Annotate(ctx context.Context, text, genre string) (string, error) {
	body, err := json.Marshal(request{Task: "nakdan", Data: text, Genre: genre})
	if err != nil {
		return "", client.NewServiceError(client.KindMalformedResponse, "encoding request", err)
	}

	attempts := c.maxRetries + 1
	var lastErr *client.ServiceError
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := c.backoff << (attempt - 2)
			c.stats.IncCounter(stats.MetricServiceRetries, 1)
			c.logger.Debug("waiting before retry", zap.Duration("delay", delay))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", client.AsServiceError(ctx.Err())
			case <-timer.C:
			}
		}

		tokens, err := c.post(ctx, body)
		if err == nil {
			result, err := joinTokens(text, tokens)
			if err != nil {
				return "", err
			}
			if attempt > 1 {
				c.logger.Info("nikud request succeeded after retry",
					zap.Int("attempt", attempt),
					zap.String("text", preview(text)),
				)
			}
			return result, nil
		}

		lastErr = client.AsServiceError(err)
		c.logger.Warn("nikud request failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.String("kind", string(lastErr.Kind)),
			zap.Error(err),
		)

		if lastErr.Kind == client.KindMalformedResponse || ctx.Err() != nil {
			break
		}
	}

	c.logger.Error("all attempts failed for nikud request", zap.String("text", preview(text)))
	return "", lastErr
}

// post performs a single HTTP attempt and decodes the token list.
func (c *Client) post(ctx context.Context, body []byte) ([]token, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, client.NewServiceError(client.KindTimeout, "waiting for rate limiter", err)
		}
	}

	if c.perAttempt > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.perAttempt)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, client.NewServiceError(client.KindNetwork, "creating request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("Accept-Encoding", c.codecs.AcceptEncoding())

	c.stats.IncCounter(stats.MetricServiceCalls, 1)
	start := time.Now()
	defer func() {
		c.stats.ObserveHistogram(stats.MetricServiceSeconds, time.Since(start).Seconds())
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, client.NewServiceError(client.KindNetwork,
			fmt.Sprintf("API request failed with status %d", resp.StatusCode), nil)
	}

	dec, ok := c.codecs.ForEncoding(resp.Header.Get("Content-Encoding"))
	if !ok {
		return nil, client.NewServiceError(client.KindMalformedResponse,
			fmt.Sprintf("unsupported content encoding %q", resp.Header.Get("Content-Encoding")), nil)
	}
	r, err := dec.Reader(resp.Body)
	if err != nil {
		return nil, client.NewServiceError(client.KindMalformedResponse, "decoding body", err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, client.NewServiceError(client.KindNetwork, "reading body", err)
	}

	var tokens []token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, client.NewServiceError(client.KindMalformedResponse, "parsing body", err)
	}
	return tokens, nil
}

func preview(text string) string {
	if r := []rune(text); len(r) > 50 {
		return string(r[:50])
	}
	return text
}

// joinTokens rebuilds the annotated text. An empty token list is only
// acceptable for blank input.
func joinTokens(text string, tokens []token) (string, error) {
	if len(tokens) == 0 {
		if strings.TrimSpace(text) != "" {
			return "", client.NewServiceError(client.KindMalformedResponse, "empty response for non-empty text", nil)
		}
		return "", nil
	}
	return join(tokens), nil
}
