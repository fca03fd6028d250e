// Package nakdan adds Hebrew vowel pointing (nikud) to text through a remote
// annotation service, caching results in memory to avoid repeated calls.
//
// Example usage:
//
//	coord, err := nakdan.New(
//	    nakdan.WithClient(dicta.New()),
//	    nakdan.WithCacheTimeout(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer coord.Close()
//
//	res, err := coord.GetNikud(ctx, "שלום עולם", "modern")
//	if err != nil {
//	    log.Printf("annotation failed: %v", err)
//	}
//	fmt.Println(res.NikudText)
package nakdan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hebrew-tools/nakdan/internal/cachekey"
	"github.com/hebrew-tools/nakdan/internal/cachestore"
	"github.com/hebrew-tools/nakdan/internal/client"
	"github.com/hebrew-tools/nakdan/internal/stats"
)

// requestStats holds process-lifetime counters and the most recent request.
type requestStats struct {
	total      int64
	failed     int64
	lastText   string
	lastResult string
	lastError  string
	lastUpdate time.Time
	lastFailed bool
}

// Coordinator serves annotation requests from its cache and calls the
// remote service on a miss.
// A Coordinator is safe for concurrent use by multiple goroutines.
type Coordinator struct {
	annotator           client.Annotator
	requestTimeout      time.Duration
	maxTextLength       int
	maintenanceInterval time.Duration
	flight              *singleflight.Group
	stats               stats.Collector
	logger              *zap.Logger
	now                 func() time.Time
	closed              atomic.Bool

	// mu guards everything below. It is never held across a remote call.
	mu     sync.Mutex
	cache  *cachestore.Store
	config Config
	req    requestStats
}

// New creates a Coordinator with the given options.
func New(opts ...Option) (*Coordinator, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.annotator == nil {
		return nil, ErrNoClient
	}
	if err := validateCacheDuration(cfg.config.CacheDuration); err != nil {
		return nil, err
	}
	if err := validateCacheSize(cfg.config.MaxCacheSize); err != nil {
		return nil, err
	}

	cache, err := cachestore.New(cfg.config.MaxCacheSize,
		cachestore.WithTTL(cfg.config.TTL()),
		cachestore.WithClock(cfg.now),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	c := &Coordinator{
		annotator:           cfg.annotator,
		requestTimeout:      cfg.requestTimeout,
		maxTextLength:       cfg.maxTextLength,
		maintenanceInterval: cfg.maintenanceInterval,
		stats:               cfg.stats,
		logger:              cfg.logger,
		now:                 cfg.now,
		cache:               cache,
		config:              cfg.config,
	}
	if cfg.singleFlight {
		c.flight = &singleflight.Group{}
	}

	c.logger.Debug("coordinator initialized",
		zap.Bool("enableCacheTimeout", c.config.EnableCacheTimeout),
		zap.Duration("cacheDuration", c.config.CacheDuration),
		zap.Int("maxCacheSize", c.config.MaxCacheSize),
		zap.Bool("singleFlight", cfg.singleFlight),
	)

	return c, nil
}

// GetNikud returns text with nikud applied, from cache when possible.
//
// The returned Result is never nil. Invalid input yields a *ValidationError
// without touching any state; a failed remote call yields a
// *client.ServiceError, is counted as a failed request and is not cached.
func (c *Coordinator) GetNikud(ctx context.Context, text, genre string) (*Result, error) {
	if c.closed.Load() {
		return c.reject(text, genre, ErrClosed), ErrClosed
	}

	g, err := ParseGenre(genre)
	if err != nil {
		c.stats.IncCounter(stats.MetricRejectedRequest, 1)
		return c.reject(text, genre, err), err
	}
	if c.maxTextLength > 0 {
		if n := utf8.RuneCountInString(text); n > c.maxTextLength {
			err := &ValidationError{
				Field:  "text",
				Reason: fmt.Sprintf("%d characters exceeds the limit of %d", n, c.maxTextLength),
			}
			c.stats.IncCounter(stats.MetricRejectedRequest, 1)
			return c.reject(text, genre, err), err
		}
	}

	c.stats.IncCounter(stats.MetricRequests, 1)
	key := cachekey.Derive(text, string(g))

	c.mu.Lock()
	c.req.total++
	if value, ok := c.cache.Get(key); ok {
		c.recordSuccessLocked(text, value)
		cacheStats := c.cacheStatsLocked()
		c.mu.Unlock()

		c.stats.IncCounter(stats.MetricCacheHits, 1)
		c.stats.ObserveHistogram(stats.MetricResponseSeconds, 0)
		c.logger.Debug("using cached result", zap.String("text", preview(text)))

		return &Result{
			Success:      true,
			OriginalText: text,
			NikudText:    value,
			Genre:        g,
			Cached:       true,
			CacheStats:   cacheStats,
		}, nil
	}
	c.mu.Unlock()
	c.stats.IncCounter(stats.MetricCacheMisses, 1)

	start := time.Now()
	value, err := c.fetch(ctx, key, text, g)
	elapsed := time.Since(start)
	c.stats.ObserveHistogram(stats.MetricResponseSeconds, elapsed.Seconds())

	if err != nil {
		se := client.AsServiceError(err)

		c.mu.Lock()
		c.req.failed++
		c.req.lastText = text
		c.req.lastError = se.Error()
		c.req.lastUpdate = c.now()
		c.req.lastFailed = true
		cacheStats := c.cacheStatsLocked()
		c.mu.Unlock()

		c.stats.IncCounter(stats.MetricFailedRequests, 1)
		c.logger.Warn("nikud request failed",
			zap.String("text", preview(text)),
			zap.String("genre", string(g)),
			zap.String("kind", string(se.Kind)),
			zap.Error(se),
		)

		return &Result{
			Success:      false,
			OriginalText: text,
			Genre:        g,
			ResponseTime: elapsed,
			Error:        se.Error(),
			CacheStats:   cacheStats,
		}, se
	}

	c.mu.Lock()
	var evicted int
	// Close may have run while the call was in flight; a closed
	// coordinator stays empty.
	if !c.closed.Load() {
		evicted = c.cache.Put(key, value)
		if n, capacity := c.cache.Len(), c.cache.Capacity(); n > capacity {
			c.logger.DPanic("cache exceeds capacity after insert",
				zap.Int("entries", n),
				zap.Int("capacity", capacity),
			)
		}
	}
	c.recordSuccessLocked(text, value)
	cacheStats := c.cacheStatsLocked()
	c.mu.Unlock()

	if evicted > 0 {
		c.stats.IncCounter(stats.MetricCacheEvictions, int64(evicted))
	}
	c.stats.SetGauge(stats.MetricCacheSize, int64(cacheStats.TotalEntries))
	c.logger.Debug("got nikud from service",
		zap.String("text", preview(text)),
		zap.Duration("elapsed", elapsed),
		zap.Int("evicted", evicted),
	)

	return &Result{
		Success:      true,
		OriginalText: text,
		NikudText:    value,
		Genre:        g,
		ResponseTime: elapsed,
		CacheStats:   cacheStats,
	}, nil
}

// fetch calls the remote service under the request timeout. With
// single-flight enabled, concurrent misses for one key share a call that is
// detached from any single caller's cancellation.
func (c *Coordinator) fetch(ctx context.Context, key, text string, g Genre) (string, error) {
	call := func(ctx context.Context) (string, error) {
		if c.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
			defer cancel()
		}
		return c.annotator.Annotate(ctx, text, string(g))
	}

	if c.flight == nil {
		return call(ctx)
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		return call(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return "", client.AsServiceError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("shared in-flight request", zap.String("text", preview(text)))
		}
		return res.Val.(string), nil
	}
}

// ClearCache removes every cached result. Request counters are kept.
func (c *Coordinator) ClearCache() ClearResult {
	c.mu.Lock()
	before := c.cacheStatsLocked()
	cleared := c.cache.Clear()
	c.mu.Unlock()

	c.stats.SetGauge(stats.MetricCacheSize, 0)
	c.logger.Info("cleared cache entries", zap.Int("count", cleared))

	return ClearResult{
		ClearedEntries:   cleared,
		CacheStatsBefore: before,
	}
}

// UpdateConfig applies the non-nil fields of u. Every field is validated
// before anything changes. Shrinking the capacity evicts immediately, and
// shortening or enabling expiry purges entries that are already expired.
func (c *Coordinator) UpdateConfig(u ConfigUpdate) (ConfigChange, error) {
	if u.CacheDuration != nil {
		if err := validateCacheDuration(*u.CacheDuration); err != nil {
			return ConfigChange{}, err
		}
	}
	if u.MaxCacheSize != nil {
		if err := validateCacheSize(*u.MaxCacheSize); err != nil {
			return ConfigChange{}, err
		}
	}

	c.mu.Lock()
	before := ConfigSnapshot{Config: c.config, CacheStats: c.cacheStatsLocked()}

	next := c.config
	if u.EnableCacheTimeout != nil {
		next.EnableCacheTimeout = *u.EnableCacheTimeout
	}
	if u.CacheDuration != nil {
		next.CacheDuration = *u.CacheDuration
	}
	if u.MaxCacheSize != nil {
		next.MaxCacheSize = *u.MaxCacheSize
	}

	var removed int
	oldTTL, newTTL := c.config.TTL(), next.TTL()
	if newTTL != oldTTL {
		c.cache.SetTTL(newTTL)
		if newTTL > 0 && (oldTTL == 0 || newTTL < oldTTL) {
			removed += c.cache.Purge()
		}
	}
	if next.MaxCacheSize != c.config.MaxCacheSize {
		evicted, err := c.cache.SetCapacity(next.MaxCacheSize)
		if err != nil {
			// Unreachable after validation; keep the store and settings consistent.
			c.cache.SetTTL(oldTTL)
			c.mu.Unlock()
			return ConfigChange{}, fmt.Errorf("resizing cache: %w", err)
		}
		removed += evicted
	}
	c.config = next

	after := ConfigSnapshot{Config: c.config, CacheStats: c.cacheStatsLocked()}
	c.mu.Unlock()

	if removed > 0 {
		c.stats.IncCounter(stats.MetricCacheEvictions, int64(removed))
	}
	c.stats.SetGauge(stats.MetricCacheSize, int64(after.CacheStats.TotalEntries))
	c.logger.Info("updated configuration",
		zap.Bool("enableCacheTimeout", next.EnableCacheTimeout),
		zap.Duration("cacheDuration", next.CacheDuration),
		zap.Int("maxCacheSize", next.MaxCacheSize),
		zap.Int("removed", removed),
	)

	return ConfigChange{Before: before, After: after}, nil
}

// Status returns the current request counters, settings and cache state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:          StateReady,
		LastText:       c.req.lastText,
		LastResult:     c.req.lastResult,
		LastError:      c.req.lastError,
		LastUpdate:     c.req.lastUpdate,
		TotalRequests:  c.req.total,
		FailedRequests: c.req.failed,
		Config:         c.config,
		CacheStats:     c.cacheStatsLocked(),
	}
	if c.req.lastFailed {
		st.State = StateError
	}
	if c.req.total > 0 {
		st.SuccessRate = float64(c.req.total-c.req.failed) / float64(c.req.total) * 100
	}
	return st
}

// Config returns the current cache settings.
func (c *Coordinator) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// CacheStats returns a fresh view of the cache.
func (c *Coordinator) CacheStats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheStatsLocked()
}

// Maintain purges expired entries once and returns how many were removed.
func (c *Coordinator) Maintain() int {
	c.mu.Lock()
	removed := c.cache.Purge()
	size := c.cache.Len()
	c.mu.Unlock()

	if removed > 0 {
		c.stats.IncCounter(stats.MetricCacheEvictions, int64(removed))
		c.logger.Debug("cleaned up expired cache entries", zap.Int("count", removed))
	}
	c.stats.SetGauge(stats.MetricCacheSize, int64(size))
	return removed
}

// Run calls Maintain periodically until ctx is done. It returns immediately
// when no maintenance interval is configured.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.maintenanceInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(c.maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if c.closed.Load() {
				return ErrClosed
			}
			c.Maintain()
		}
	}
}

// Close releases the cached results. After Close, GetNikud fails with
// ErrClosed.
func (c *Coordinator) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	c.mu.Lock()
	c.cache.Clear()
	c.mu.Unlock()
	return nil
}

// reject builds the Result for a request refused before it was counted.
func (c *Coordinator) reject(text, genre string, err error) *Result {
	return &Result{
		Success:      false,
		OriginalText: text,
		Genre:        Genre(genre),
		Error:        err.Error(),
		CacheStats:   c.CacheStats(),
	}
}

func (c *Coordinator) recordSuccessLocked(text, value string) {
	c.req.lastText = text
	c.req.lastResult = value
	c.req.lastError = ""
	c.req.lastUpdate = c.now()
	c.req.lastFailed = false
}

func (c *Coordinator) cacheStatsLocked() CacheStats {
	s := c.cache.Stats()
	return CacheStats{
		TotalEntries:        s.Total,
		ValidEntries:        s.Valid,
		ExpiredEntries:      s.Expired,
		CacheDuration:       c.config.CacheDuration,
		CacheTimeoutEnabled: c.config.EnableCacheTimeout,
		MaxCacheSize:        c.config.MaxCacheSize,
	}
}

func validateCacheDuration(d time.Duration) error {
	if d < MinCacheDuration || d > MaxCacheDuration {
		return &ValidationError{
			Field:  "cache_duration",
			Reason: fmt.Sprintf("%s is outside [%s, %s]", d, MinCacheDuration, MaxCacheDuration),
		}
	}
	return nil
}

func validateCacheSize(n int) error {
	if n < MinCacheSize || n > MaxCacheSize {
		return &ValidationError{
			Field:  "max_cache_size",
			Reason: fmt.Sprintf("%d is outside [%d, %d]", n, MinCacheSize, MaxCacheSize),
		}
	}
	return nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= 50 {
		return text
	}
	return string([]rune(text)[:50])
}
