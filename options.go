package nakdan

import (
	"time"

	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan/internal/client"
	"github.com/hebrew-tools/nakdan/internal/stats"
)

// Defaults and accepted bounds for the cache settings.
const (
	DefaultCacheDuration = time.Hour
	DefaultMaxCacheSize  = 1000

	MinCacheDuration = time.Minute
	MaxCacheDuration = 24 * time.Hour
	MinCacheSize     = 10
	MaxCacheSize     = 1_000_000

	// DefaultRequestTimeout bounds one remote annotation, retries included.
	DefaultRequestTimeout = 35 * time.Second

	// DefaultMaxTextLength is the longest accepted input, in characters.
	DefaultMaxTextLength = 10000
)

// Option configures a Coordinator.
type Option interface {
	apply(*options)
}

// options holds the coordinator configuration.
type options struct {
	annotator           client.Annotator
	config              Config
	requestTimeout      time.Duration
	maxTextLength       int
	singleFlight        bool
	maintenanceInterval time.Duration
	stats               stats.Collector
	logger              *zap.Logger
	now                 func() time.Time
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		config: Config{
			EnableCacheTimeout: false,
			CacheDuration:      DefaultCacheDuration,
			MaxCacheSize:       DefaultMaxCacheSize,
		},
		requestTimeout: DefaultRequestTimeout,
		maxTextLength:  DefaultMaxTextLength,
		stats:          stats.NewNoop(),
		logger:         zap.NewNop(),
		now:            time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithClient sets the annotation service client. Required.
func WithClient(a client.Annotator) Option {
	return optionFunc(func(o *options) {
		o.annotator = a
	})
}

// WithConfig sets all cache settings at once.
func WithConfig(c Config) Option {
	return optionFunc(func(o *options) {
		o.config = c
	})
}

// WithCacheTimeout enables or disables time-based expiry.
// Disabled by default: entries leave the cache only for capacity.
func WithCacheTimeout(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.config.EnableCacheTimeout = enabled
	})
}

// WithCacheDuration sets the entry lifetime used when expiry is enabled.
// Default is one hour.
func WithCacheDuration(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.config.CacheDuration = d
	})
}

// WithMaxCacheSize sets the maximum number of cached results.
// Default is 1000.
func WithMaxCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		o.config.MaxCacheSize = n
	})
}

// WithRequestTimeout bounds each remote annotation call.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.requestTimeout = d
	})
}

// WithMaxTextLength sets the longest accepted text, in characters.
// Zero or negative removes the limit.
func WithMaxTextLength(n int) Option {
	return optionFunc(func(o *options) {
		o.maxTextLength = n
	})
}

// WithSingleFlight collapses concurrent cache misses for the same text and
// genre into one remote call.
func WithSingleFlight(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.singleFlight = enabled
	})
}

// WithMaintenanceInterval sets how often Run purges expired entries.
// Zero disables the background pass; expiry stays correct without it.
func WithMaintenanceInterval(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.maintenanceInterval = d
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithClock overrides the time source used for expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}
