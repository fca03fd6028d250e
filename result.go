package nakdan

import "time"

// State is the health of the most recent annotation request.
type State string

const (
	StateReady State = "Ready"
	StateError State = "Error"
)

// Config holds the runtime-adjustable cache settings.
type Config struct {
	// EnableCacheTimeout turns on time-based expiry.
	EnableCacheTimeout bool

	// CacheDuration is the entry lifetime when EnableCacheTimeout is set.
	CacheDuration time.Duration

	// MaxCacheSize bounds the number of cached results.
	MaxCacheSize int
}

// TTL returns the effective entry lifetime, zero when expiry is disabled.
func (c Config) TTL() time.Duration {
	if !c.EnableCacheTimeout {
		return 0
	}
	return c.CacheDuration
}

// ConfigUpdate lists settings to change. Nil fields are left unchanged.
type ConfigUpdate struct {
	EnableCacheTimeout *bool
	CacheDuration      *time.Duration
	MaxCacheSize       *int
}

// CacheStats is computed on demand from the cache contents and merged with
// the current settings.
type CacheStats struct {
	TotalEntries   int
	ValidEntries   int
	ExpiredEntries int

	CacheDuration       time.Duration
	CacheTimeoutEnabled bool
	MaxCacheSize        int
}

// Result is the outcome of a GetNikud call. It is always populated, even
// when the call fails.
type Result struct {
	Success      bool
	OriginalText string
	NikudText    string
	Genre        Genre

	// ResponseTime is the remote call duration, zero for cache hits.
	ResponseTime time.Duration
	Cached       bool

	// Error is a human-readable failure description.
	Error string

	CacheStats CacheStats
}

// ClearResult is returned by ClearCache.
type ClearResult struct {
	ClearedEntries   int
	CacheStatsBefore CacheStats
}

// ConfigSnapshot pairs settings with the cache state they produced.
type ConfigSnapshot struct {
	Config     Config
	CacheStats CacheStats
}

// ConfigChange is returned by UpdateConfig.
type ConfigChange struct {
	Before ConfigSnapshot
	After  ConfigSnapshot
}

// Status is a full, untruncated view of the coordinator.
type Status struct {
	State      State
	LastText   string
	LastResult string
	LastError  string
	LastUpdate time.Time

	TotalRequests  int64
	FailedRequests int64

	// SuccessRate is a percentage in [0, 100]; zero before any request.
	SuccessRate float64

	Config     Config
	CacheStats CacheStats
}
