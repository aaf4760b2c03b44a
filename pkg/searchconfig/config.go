// Package searchconfig picks a similarity threshold and result limit from
// corpus density, auto-tuning search permissiveness as a project's memory
// table grows.
package searchconfig

import (
	"context"
	"sync"
	"time"
)

// MinVectorsForSemantic is the threshold below which semantic search is
// considered too thin to trust (hasEnoughData gates on this).
const MinVectorsForSemantic = 100

// DefaultTTL is how long a resolved Config is cached per (project, db).
const DefaultTTL = 5 * time.Minute

// Config is the tuned (threshold, limit, quality) tuple for a given
// corpus size.
type Config struct {
	Threshold     float64
	Limit         int
	QualityScore  float64
	HasEnoughData bool
}

// bracket is one row of the piecewise-constant density table.
type bracket struct {
	minN          int
	maxN          int // exclusive upper bound; -1 means unbounded
	threshold     float64
	limit         func(n int) int
	quality       func(n int) float64
	hasEnoughData bool
}

var brackets = []bracket{
	{minN: 0, maxN: 1, threshold: 0, limit: func(int) int { return 0 }, quality: func(int) float64 { return 0 }, hasEnoughData: false},
	{minN: 1, maxN: 100, threshold: 0.05, limit: func(n int) int { return min(n, 10) }, quality: func(n int) float64 { return float64(n) / 100 }, hasEnoughData: false},
	{minN: 100, maxN: 1000, threshold: 0.10, limit: func(n int) int { return min(n, 25) }, quality: func(n int) float64 { return 0.5 + float64(n)/2000 }, hasEnoughData: true},
	{minN: 1000, maxN: 10000, threshold: 0.15, limit: func(int) int { return 50 }, quality: func(int) float64 { return 0.8 }, hasEnoughData: true},
	{minN: 10000, maxN: 50000, threshold: 0.20, limit: func(int) int { return 100 }, quality: func(int) float64 { return 0.9 }, hasEnoughData: true},
	{minN: 50000, maxN: -1, threshold: 0.25, limit: func(int) int { return 200 }, quality: func(int) float64 { return 1.0 }, hasEnoughData: true},
}

// FromCount derives a Config directly from the total vector count n. It
// is a pure function; AdaptiveSearchConfig layers caching on top of it.
func FromCount(n int) Config {
	for _, b := range brackets {
		if n >= b.minN && (b.maxN == -1 || n < b.maxN) {
			return Config{
				Threshold:     b.threshold,
				Limit:         b.limit(n),
				QualityScore:  b.quality(n),
				HasEnoughData: b.hasEnoughData,
			}
		}
	}
	// n < 0 is not a valid corpus size; treat as empty.
	return brackets[0].toConfig(n)
}

func (b bracket) toConfig(n int) Config {
	return Config{Threshold: b.threshold, Limit: b.limit(n), QualityScore: b.quality(n), HasEnoughData: b.hasEnoughData}
}

// Counter reports the total number of vectors currently stored for a
// project's memories table.
type Counter interface {
	CountVectors(ctx context.Context) (int, error)
}

// cacheEntry is one cached (project, db) resolution.
type cacheEntry struct {
	config    Config
	fetchedAt time.Time
}

// AdaptiveSearchConfig resolves and caches a Config per (project,
// database) for DefaultTTL, calling Refresh to force a rescan.
type AdaptiveSearchConfig struct {
	counter Counter
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewAdaptiveSearchConfig constructs an AdaptiveSearchConfig bound to one
// project's Counter. One instance exists per project.
func NewAdaptiveSearchConfig(counter Counter, ttl time.Duration) *AdaptiveSearchConfig {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AdaptiveSearchConfig{counter: counter, ttl: ttl, cache: make(map[string]cacheEntry)}
}

// Get returns the cached Config for key (typically the database name),
// refreshing it if the TTL has elapsed.
func (a *AdaptiveSearchConfig) Get(ctx context.Context, key string) (Config, error) {
	a.mu.Lock()
	if e, ok := a.cache[key]; ok && time.Since(e.fetchedAt) < a.ttl {
		cfg := e.config
		a.mu.Unlock()
		return cfg, nil
	}
	a.mu.Unlock()

	return a.Refresh(ctx, key)
}

// Refresh forces a rescan of the corpus size and updates the cache.
func (a *AdaptiveSearchConfig) Refresh(ctx context.Context, key string) (Config, error) {
	n, err := a.counter.CountVectors(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg := FromCount(n)

	a.mu.Lock()
	a.cache[key] = cacheEntry{config: cfg, fetchedAt: time.Now()}
	a.mu.Unlock()

	return cfg, nil
}
