// Package dimension is the single source of truth for every vector
// column's dimensionality, and adapts vectors on insert/select to match it.
package dimension

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the default cache lifetime for a column's dimension,
// matching SPECMEM_DIMENSION_CACHE_TTL_MS's default of 300000ms.
const DefaultTTL = 5 * time.Minute

// EmbeddingColumn is the canonical-dimension column: memories.embedding.
const (
	MemoriesTable   = "memories"
	EmbeddingColumn = "embedding"
)

// Service is the single source of truth for every vector column's
// dimensionality. Priority order: env override, then
// pg_attribute.atttypmod via Store, then a stale cached value as a last
// resort. Never a hard-coded constant.
type Service struct {
	store       Store
	ttl         time.Duration
	envOverride int // > 0 short-circuits all DB lookups
	cache       *cache
	group       singleflight.Group
	log         *slog.Logger
}

// NewService constructs a Service. envOverride should be
// SPECMEM_EMBEDDING_DIMENSIONS parsed as an int, or 0 if unset/invalid.
func NewService(store Store, ttl time.Duration, envOverride int) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:       store,
		ttl:         ttl,
		envOverride: envOverride,
		cache:       newCache(ttl),
		log:         slog.With("component", "dimension_service"),
	}
}

// GetTableDimension returns the known dimension for table.column, or
// (0, false, nil) if truly unknown (no env override, no DB row, no stale
// cache entry at all).
func (s *Service) GetTableDimension(ctx context.Context, table, column string) (int, bool, error) {
	if column == "" {
		column = EmbeddingColumn
	}
	if s.envOverride > 0 {
		return s.envOverride, true, nil
	}

	if dim, fresh, exists := s.cache.lookup(table, column); exists && fresh {
		return dim, true, nil
	}

	dim, err := s.refresh(ctx, table, column)
	if err != nil {
		if staleDim, _, exists := s.cache.lookup(table, column); exists {
			s.log.Warn("dimension refresh failed, serving stale cache",
				"table", table, "column", column, "error", err)
			return staleDim, true, nil
		}
		return 0, false, err
	}
	if !dim.found {
		return 0, false, nil
	}
	return dim.value, true, nil
}

type refreshResult struct {
	value int
	found bool
}

// refresh collapses concurrent cache misses for the same column onto one
// Store round trip via singleflight, then updates the cache on success.
func (s *Service) refresh(ctx context.Context, table, column string) (refreshResult, error) {
	key := table + "." + column
	v, err, _ := s.group.Do(key, func() (any, error) {
		dim, ok, err := s.store.ColumnDimension(ctx, table, column)
		if err != nil {
			return refreshResult{}, err
		}
		if ok {
			s.cache.set(table, column, dim)
		}
		return refreshResult{value: dim, found: ok}, nil
	})
	if err != nil {
		return refreshResult{}, err
	}
	return v.(refreshResult), nil
}

// GetEmbeddingDimension returns the canonical dimension D*, i.e. the
// dimension of memories.embedding. Fails hard (no stale fallback beyond
// what GetTableDimension already offers) because every other adaptation
// in the system is defined relative to this value.
func (s *Service) GetEmbeddingDimension(ctx context.Context) (int, error) {
	dim, ok, err := s.GetTableDimension(ctx, MemoriesTable, EmbeddingColumn)
	if err != nil {
		return 0, fmt.Errorf("getting canonical embedding dimension: %w", err)
	}
	if !ok {
		return 0, ErrDimensionUnknown
	}
	return dim, nil
}

// InvalidateCache drops every cached dimension, used on embedding-service
// restart.
func (s *Service) InvalidateCache() {
	s.cache.invalidate()
}

// SyncResult is one vector column's standing relative to the canonical
// dimension, as reported by SyncTableDimensions.
type SyncResult struct {
	Table        string
	Column       string
	Dimension    int
	CanonicalDim int
	HasIndex     bool
	IndexType    IndexType
	Inconsistent bool
}

// SyncTableDimensions scans every vector column in the active schema and
// reports any whose dimension deviates from the canonical one, without
// mutating schema. A column with no declared dimension yet is skipped
// rather than flagged.
func (s *Service) SyncTableDimensions(ctx context.Context, lister ColumnLister) ([]SyncResult, error) {
	canonical, err := s.GetEmbeddingDimension(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := lister.ListVectorColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vector columns: %w", err)
	}

	results := make([]SyncResult, 0, len(cols))
	for _, col := range cols {
		if col.Dimension <= 0 {
			continue
		}
		inconsistent := col.Dimension != canonical
		if inconsistent {
			s.log.Warn("vector column dimension deviates from canonical",
				"table", col.Table, "column", col.Column,
				"dimension", col.Dimension, "canonical", canonical)
		}
		results = append(results, SyncResult{
			Table:        col.Table,
			Column:       col.Column,
			Dimension:    col.Dimension,
			CanonicalDim: canonical,
			HasIndex:     col.HasIndex,
			IndexType:    col.IndexType,
			Inconsistent: inconsistent,
		})
	}
	return results, nil
}
