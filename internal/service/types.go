package service

import (
	"fmt"
	"time"

	"github.com/hebrew-tools/nakdan"
)

// GetNikudRequest is the input of the get_nikud call.
type GetNikudRequest struct {
	Text  string `json:"text"`
	Genre string `json:"genre,omitempty"`
}

// UpdateConfigRequest is the input of the update_config call. Omitted
// fields leave the setting unchanged. CacheDuration is in seconds.
type UpdateConfigRequest struct {
	EnableCacheTimeout *bool `json:"enable_cache_timeout,omitempty"`
	CacheDuration      *int  `json:"cache_duration,omitempty"`
	MaxCacheSize       *int  `json:"max_cache_size,omitempty"`
}

// CacheStatsView is the wire form of nakdan.CacheStats.
type CacheStatsView struct {
	TotalEntries        int  `json:"total_entries"`
	ValidEntries        int  `json:"valid_entries"`
	ExpiredEntries      int  `json:"expired_entries"`
	CacheDuration       int  `json:"cache_duration"`
	CacheTimeoutEnabled bool `json:"cache_timeout_enabled"`
	MaxCacheSize        int  `json:"max_cache_size"`
}

// ConfigView is the wire form of a configuration snapshot.
type ConfigView struct {
	EnableCacheTimeout bool           `json:"enable_cache_timeout"`
	CacheDuration      int            `json:"cache_duration"`
	MaxCacheSize       int            `json:"max_cache_size"`
	CacheStats         CacheStatsView `json:"cache_stats"`
}

// GetNikudResponse is returned by get_nikud. NikudText and ResponseTime
// are set only on success, so an empty annotation or a zero-time hit is
// still present on the wire. CacheStats is always set.
type GetNikudResponse struct {
	Success      bool            `json:"success"`
	OriginalText string          `json:"original_text"`
	NikudText    *string         `json:"nikud_text,omitempty"`
	ResponseTime *float64        `json:"response_time,omitempty"`
	Cached       bool            `json:"cached,omitempty"`
	CacheStats   *CacheStatsView `json:"cache_stats"`
	Error        string          `json:"error,omitempty"`
}

// ClearCacheResponse is returned by clear_cache.
type ClearCacheResponse struct {
	Success          bool            `json:"success"`
	ClearedEntries   int             `json:"cleared_entries"`
	CacheStatsBefore *CacheStatsView `json:"cache_stats_before,omitempty"`
	Message          string          `json:"message,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// UpdateConfigResponse is returned by update_config.
type UpdateConfigResponse struct {
	Success      bool        `json:"success"`
	ConfigBefore *ConfigView `json:"config_before,omitempty"`
	ConfigAfter  *ConfigView `json:"config_after,omitempty"`
	Message      string      `json:"message,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// ErrorResponse is the body of every rejected HTTP request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusView is the display form of nakdan.Status. Text fields are
// truncated and numbers are rendered with their units.
type StatusView struct {
	State               string `json:"state"`
	LastText            string `json:"last_text"`
	LastResult          string `json:"last_result"`
	LastError           string `json:"last_error,omitempty"`
	LastUpdate          string `json:"last_update,omitempty"`
	TotalRequests       int64  `json:"total_requests"`
	FailedRequests      int64  `json:"failed_requests"`
	SuccessRate         string `json:"success_rate"`
	CacheDuration       string `json:"cache_duration"`
	MaxCacheSize        string `json:"max_cache_size"`
	EnableCacheTimeout  bool   `json:"enable_cache_timeout"`
	CacheTotalEntries   int    `json:"cache_total_entries"`
	CacheValidEntries   int    `json:"cache_valid_entries"`
	CacheExpiredEntries int    `json:"cache_expired_entries"`
}

// displayLimit is the longest text shown in a StatusView, in characters.
const displayLimit = 100

func newCacheStatsView(s nakdan.CacheStats) *CacheStatsView {
	return &CacheStatsView{
		TotalEntries:        s.TotalEntries,
		ValidEntries:        s.ValidEntries,
		ExpiredEntries:      s.ExpiredEntries,
		CacheDuration:       int(s.CacheDuration / time.Second),
		CacheTimeoutEnabled: s.CacheTimeoutEnabled,
		MaxCacheSize:        s.MaxCacheSize,
	}
}

func newConfigView(s nakdan.ConfigSnapshot) *ConfigView {
	return &ConfigView{
		EnableCacheTimeout: s.Config.EnableCacheTimeout,
		CacheDuration:      int(s.Config.CacheDuration / time.Second),
		MaxCacheSize:       s.Config.MaxCacheSize,
		CacheStats:         *newCacheStatsView(s.CacheStats),
	}
}

// NewStatusView renders st for display.
func NewStatusView(st nakdan.Status) StatusView {
	v := StatusView{
		State:               string(st.State),
		LastText:            truncate(st.LastText, displayLimit),
		LastResult:          truncate(st.LastResult, displayLimit),
		LastError:           st.LastError,
		TotalRequests:       st.TotalRequests,
		FailedRequests:      st.FailedRequests,
		SuccessRate:         fmt.Sprintf("%.1f%%", st.SuccessRate),
		CacheDuration:       fmt.Sprintf("%d seconds", int(st.Config.CacheDuration/time.Second)),
		MaxCacheSize:        fmt.Sprintf("%d entries", st.Config.MaxCacheSize),
		EnableCacheTimeout:  st.Config.EnableCacheTimeout,
		CacheTotalEntries:   st.CacheStats.TotalEntries,
		CacheValidEntries:   st.CacheStats.ValidEntries,
		CacheExpiredEntries: st.CacheStats.ExpiredEntries,
	}
	if !st.LastUpdate.IsZero() {
		v.LastUpdate = st.LastUpdate.Format(time.RFC3339)
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
