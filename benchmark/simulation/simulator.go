// Package simulation replays text workloads through coordinators with
// different cache settings.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hebrew-tools/nakdan"
	"github.com/hebrew-tools/nakdan/internal/client/memclient"
)

// windowSize is the number of requests per hit-rate window.
const windowSize = 100

// Config names one cache configuration to replay.
type Config struct {
	Name      string
	CacheSize int

	// TTL enables expiry when positive.
	TTL time.Duration
}

// Workload describes the request stream.
type Workload struct {
	Texts []string
	Genre string

	// MissLatency is the simulated remote call duration. Hits cost nothing.
	MissLatency time.Duration

	// Jitter spreads miss latency uniformly by this fraction either way.
	Jitter float64

	// Interval is the virtual time between requests, used for expiry.
	Interval time.Duration

	Seed uint64
}

// Simulator replays a workload for each configuration.
type Simulator struct {
	configs []Config
}

// NewSimulator creates a new Simulator with the given configurations.
func NewSimulator(configs ...Config) *Simulator {
	return &Simulator{configs: configs}
}

// Run replays w through a fresh coordinator per configuration. The remote
// service is simulated, so runs are fast and deterministic for a seed.
func (s *Simulator) Run(ctx context.Context, w Workload) (map[string]*AggregateResult, error) {
	genre := w.Genre
	if genre == "" {
		genre = string(nakdan.DefaultGenre)
	}

	results := make(map[string]*AggregateResult, len(s.configs))
	for _, cfg := range s.configs {
		res, err := s.replay(ctx, cfg, w, genre)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", cfg.Name, err)
		}
		results[cfg.Name] = res
	}
	return results, nil
}

func (s *Simulator) replay(ctx context.Context, cfg Config, w Workload, genre string) (*AggregateResult, error) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	opts := []nakdan.Option{
		nakdan.WithClient(memclient.New()),
		nakdan.WithMaxCacheSize(cfg.CacheSize),
		nakdan.WithClock(clock),
	}
	if cfg.TTL > 0 {
		opts = append(opts, nakdan.WithCacheTimeout(true), nakdan.WithCacheDuration(cfg.TTL))
	}
	coord, err := nakdan.New(opts...)
	if err != nil {
		return nil, err
	}
	defer coord.Close()

	rng := rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15))
	agg := &AggregateResult{
		ConfigName:  cfg.Name,
		CacheSize:   cfg.CacheSize,
		TextHits:    make(map[string]int),
		LatenciesMS: make([]float64, 0, len(w.Texts)),
	}

	var windowHits int
	for i, text := range w.Texts {
		res, err := coord.GetNikud(ctx, text, genre)
		if err != nil {
			return nil, err
		}

		agg.TotalRequests++
		agg.TextHits[text]++

		latency := 0.0
		if res.Cached {
			agg.Hits++
			windowHits++
		} else {
			agg.Misses++
			latency = missLatencyMS(w, rng)
		}
		agg.LatenciesMS = append(agg.LatenciesMS, latency)

		if (i+1)%windowSize == 0 {
			agg.WindowHitRates = append(agg.WindowHitRates, float64(windowHits)/windowSize*100)
			windowHits = 0
		}
		now = now.Add(w.Interval)
	}

	agg.UniqueTexts = len(agg.TextHits)
	agg.FinalCache = coord.CacheStats()
	return agg, nil
}

func missLatencyMS(w Workload, rng *rand.Rand) float64 {
	base := float64(w.MissLatency) / float64(time.Millisecond)
	if w.Jitter <= 0 {
		return base
	}
	return base * (1 + w.Jitter*(2*rng.Float64()-1))
}

// AggregateResult contains the outcome of replaying a workload for one
// configuration.
type AggregateResult struct {
	ConfigName    string
	CacheSize     int
	TotalRequests int
	Hits          int
	Misses        int
	UniqueTexts   int

	TextHits       map[string]int // Text -> request count.
	LatenciesMS    []float64      // Simulated latency per request.
	WindowHitRates []float64      // Hit rate per window of requests.
	FinalCache     nakdan.CacheStats
}

// HitRate returns the percentage of requests served from cache.
func (a *AggregateResult) HitRate() float64 {
	if a.TotalRequests == 0 {
		return 0
	}
	return float64(a.Hits) / float64(a.TotalRequests) * 100
}
