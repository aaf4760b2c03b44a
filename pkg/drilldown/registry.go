// Package drilldown maintains the per-project registry of compact
// integer handles used to browse memory and code search results.
package drilldown

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/specmem/specmem/pkg/models"
)

// DefaultMaxEntries is SPECMEM_DRILLDOWN_MAX_SIZE's default.
const DefaultMaxEntries = 10000

// DefaultTTL is SPECMEM_DRILLDOWN_TTL_MS's default.
const DefaultTTL = 30 * time.Minute

// DefaultSweepInterval is SPECMEM_DRILLDOWN_CLEANUP_INTERVAL_MS's default.
const DefaultSweepInterval = 5 * time.Minute

// evictFraction is the share of entries an LRU eviction removes once the
// registry is full.
const evictFraction = 0.2

// RegisterOpts carries the optional fields register() may attach to a
// new or touched entry.
type RegisterOpts struct {
	ParentID    *int
	SearchQuery string
	ZoomLevel   string
}

// Registry is the in-process DrilldownRegistry for one project.
type Registry struct {
	maxEntries int
	ttl        time.Duration
	log        *slog.Logger

	mu     sync.Mutex
	byID   map[int]*models.DrilldownEntry
	byKey  map[string]int
	nextID int

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New constructs a Registry. Call StartSweeper to begin periodic TTL
// eviction.
func New(maxEntries int, ttl time.Duration) *Registry {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		maxEntries: maxEntries,
		ttl:        ttl,
		log:        slog.With("component", "drilldown_registry"),
		byID:       make(map[int]*models.DrilldownEntry),
		byKey:      make(map[string]int),
	}
}

// Register returns the existing id for key if already present (touching
// it), else mints a new one, evicting LRU entries first if full.
func (r *Registry) Register(key string, typ models.DrilldownType, opts RegisterOpts) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[key]; ok {
		r.touchLocked(id)
		return id
	}

	if len(r.byID) >= r.maxEntries {
		r.evictLRULocked()
	}

	r.nextID++
	id := r.nextID
	now := time.Now()
	r.byID[id] = &models.DrilldownEntry{
		ID:           id,
		MemoryID:     key,
		Type:         typ,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
		ParentID:     opts.ParentID,
		SearchQuery:  opts.SearchQuery,
		ZoomLevel:    opts.ZoomLevel,
	}
	r.byKey[key] = id
	return id
}

// Resolve looks up id-or-prefix, touching the entry if found. Integers
// resolve exactly; non-numeric strings are matched as a case-insensitive
// hex prefix of the normalized (dash-stripped) memory id. Ties resolve
// to the first-created entry.
func (r *Registry) Resolve(idOrPrefix string) *models.DrilldownEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, err := strconv.Atoi(idOrPrefix); err == nil {
		entry, ok := r.byID[n]
		if !ok {
			return nil
		}
		r.touchLocked(n)
		cp := *entry
		return &cp
	}

	prefix := strings.ToLower(strings.ReplaceAll(idOrPrefix, "-", ""))
	var candidateIDs []int
	for id := range r.byID {
		candidateIDs = append(candidateIDs, id)
	}
	sort.Ints(candidateIDs)
	for _, id := range candidateIDs {
		entry := r.byID[id]
		normalized := strings.ToLower(strings.ReplaceAll(entry.MemoryID, "-", ""))
		if strings.HasPrefix(normalized, prefix) {
			r.touchLocked(id)
			cp := *entry
			return &cp
		}
	}
	return nil
}

// touchLocked updates lastAccessed and increments accessCount. Caller
// must hold r.mu.
func (r *Registry) touchLocked(id int) {
	entry, ok := r.byID[id]
	if !ok {
		return
	}
	entry.LastAccessed = time.Now()
	entry.AccessCount++
}

// evictLRULocked removes the oldest evictFraction of entries by
// lastAccessed, at least one. Caller must hold r.mu.
func (r *Registry) evictLRULocked() {
	n := len(r.byID)
	if n == 0 {
		return
	}
	toEvict := int(float64(n) * evictFraction)
	if toEvict < 1 {
		toEvict = 1
	}

	ids := make([]int, 0, n)
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.byID[ids[i]].LastAccessed.Before(r.byID[ids[j]].LastAccessed)
	})

	for _, id := range ids[:toEvict] {
		key := r.byID[id].MemoryID
		delete(r.byID, id)
		delete(r.byKey, key)
	}
}

// Stats summarizes the registry's current occupancy.
type Stats struct {
	Size       int
	MaxEntries int
}

// GetStats reports current occupancy.
func (r *Registry) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Size: len(r.byID), MaxEntries: r.maxEntries}
}

// Clear empties the registry without resetting nextID, so previously
// minted handles never get reused for a different key.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[int]*models.DrilldownEntry)
	r.byKey = make(map[string]int)
}

// StartSweeper begins a background goroutine evicting entries whose
// lastAccessed age exceeds the registry's ttl, every interval.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	r.mu.Lock()
	r.sweepStop = make(chan struct{})
	r.sweepDone = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.sweepDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.sweepStop:
				return
			case <-ticker.C:
				r.sweepExpired()
			}
		}
	}()
}

// sweepExpired removes every entry older than ttl in both maps.
func (r *Registry) sweepExpired() {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.byID {
		if now.Sub(entry.LastAccessed) >= r.ttl {
			delete(r.byID, id)
			delete(r.byKey, entry.MemoryID)
		}
	}
}

// Shutdown stops the sweeper goroutine if running. Safe to call even if
// StartSweeper was never called.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	stop := r.sweepStop
	done := r.sweepDone
	r.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
