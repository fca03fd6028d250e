// Package service exposes a Coordinator as three structured calls and a
// status view. No call returns an error: failures are reported in the
// response body.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan"
)

// Coordinator is the subset of *nakdan.Coordinator the service uses.
type Coordinator interface {
	GetNikud(ctx context.Context, text, genre string) (*nakdan.Result, error)
	ClearCache() nakdan.ClearResult
	UpdateConfig(u nakdan.ConfigUpdate) (nakdan.ConfigChange, error)
	Status() nakdan.Status
}

// Compile-time check that the coordinator satisfies the interface.
var _ Coordinator = (*nakdan.Coordinator)(nil)

// Service adapts a Coordinator to request/response calls.
type Service struct {
	coord  Coordinator
	logger *zap.Logger
}

// New creates a Service. A nil logger is replaced with a no-op logger.
func New(coord Coordinator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{coord: coord, logger: logger}
}

// GetNikud annotates req.Text. An empty genre means nakdan.DefaultGenre.
func (s *Service) GetNikud(ctx context.Context, req GetNikudRequest) GetNikudResponse {
	genre := req.Genre
	if genre == "" {
		genre = string(nakdan.DefaultGenre)
	}

	// res is populated on failure too.
	res, err := s.coord.GetNikud(ctx, req.Text, genre)
	resp := GetNikudResponse{
		OriginalText: res.OriginalText,
		CacheStats:   newCacheStatsView(res.CacheStats),
	}
	if err != nil {
		s.logger.Error("error in get_nikud", zap.Error(err))
		resp.Error = err.Error()
		return resp
	}

	seconds := res.ResponseTime.Seconds()
	resp.Success = true
	resp.NikudText = &res.NikudText
	resp.ResponseTime = &seconds
	resp.Cached = res.Cached
	return resp
}

// ClearCache empties the cache.
func (s *Service) ClearCache() ClearCacheResponse {
	res := s.coord.ClearCache()
	return ClearCacheResponse{
		Success:          true,
		ClearedEntries:   res.ClearedEntries,
		CacheStatsBefore: newCacheStatsView(res.CacheStatsBefore),
		Message:          fmt.Sprintf("Successfully cleared %d cache entries", res.ClearedEntries),
	}
}

// UpdateConfig changes the cache settings named in req.
func (s *Service) UpdateConfig(req UpdateConfigRequest) UpdateConfigResponse {
	u := nakdan.ConfigUpdate{
		EnableCacheTimeout: req.EnableCacheTimeout,
		MaxCacheSize:       req.MaxCacheSize,
	}
	if req.CacheDuration != nil {
		// Bound in whole seconds first; a huge count would wrap when
		// converted to a Duration.
		secs := *req.CacheDuration
		if secs < int(nakdan.MinCacheDuration/time.Second) || secs > int(nakdan.MaxCacheDuration/time.Second) {
			err := &nakdan.ValidationError{
				Field:  "cache_duration",
				Reason: fmt.Sprintf("%d seconds is outside [%d, %d]", secs,
					int(nakdan.MinCacheDuration/time.Second), int(nakdan.MaxCacheDuration/time.Second)),
			}
			s.logger.Error("error updating configuration", zap.Error(err))
			return UpdateConfigResponse{Success: false, Error: err.Error()}
		}
		d := time.Duration(secs) * time.Second
		u.CacheDuration = &d
	}

	change, err := s.coord.UpdateConfig(u)
	if err != nil {
		s.logger.Error("error updating configuration", zap.Error(err))
		return UpdateConfigResponse{Success: false, Error: err.Error()}
	}

	return UpdateConfigResponse{
		Success:      true,
		ConfigBefore: newConfigView(change.Before),
		ConfigAfter:  newConfigView(change.After),
		Message:      "Configuration updated successfully",
	}
}

// Status returns the display view of the coordinator state.
func (s *Service) Status() StatusView {
	return NewStatusView(s.coord.Status())
}
