package dimension

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	dims      map[string]int
	err       error
	callCount int32
}

func (f *fakeStore) ColumnDimension(_ context.Context, table, column string) (int, bool, error) {
	atomic.AddInt32(&f.callCount, 1)
	if f.err != nil {
		return 0, false, f.err
	}
	dim, ok := f.dims[table+"."+column]
	return dim, ok, nil
}

func TestGetTableDimension_FromStore(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Minute, 0)

	dim, ok, err := svc.GetTableDimension(context.Background(), "memories", "embedding")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1536, dim)
}

func TestGetTableDimension_EnvOverrideShortCircuits(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Minute, 768)

	dim, ok, err := svc.GetTableDimension(context.Background(), "memories", "embedding")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 768, dim)
	assert.Zero(t, store.callCount, "env override must skip the DB entirely")
}

func TestGetTableDimension_CachedWithinTTL(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Minute, 0)

	_, _, err := svc.GetTableDimension(context.Background(), "memories", "embedding")
	require.NoError(t, err)
	_, _, err = svc.GetTableDimension(context.Background(), "memories", "embedding")
	require.NoError(t, err)

	assert.Equal(t, int32(1), store.callCount, "second call within TTL must hit cache, not store")
}

func TestGetTableDimension_StaleFallbackOnTransientFailure(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Millisecond, 0)

	dim, ok, err := svc.GetTableDimension(context.Background(), "memories", "embedding")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1536, dim)

	time.Sleep(5 * time.Millisecond) // let TTL lapse
	store.err = errors.New("transient db failure")

	dim, ok, err = svc.GetTableDimension(context.Background(), "memories", "embedding")
	require.NoError(t, err, "stale value must be served without error")
	assert.True(t, ok)
	assert.Equal(t, 1536, dim)
}

func TestGetTableDimension_UnknownWithNoStaleValue(t *testing.T) {
	store := &fakeStore{err: errors.New("db unreachable")}
	svc := NewService(store, time.Minute, 0)

	_, _, err := svc.GetTableDimension(context.Background(), "memories", "embedding")
	assert.Error(t, err)
}

func TestGetEmbeddingDimension_FailsHardWhenUnknown(t *testing.T) {
	store := &fakeStore{dims: map[string]int{}}
	svc := NewService(store, time.Minute, 0)

	_, err := svc.GetEmbeddingDimension(context.Background())
	assert.ErrorIs(t, err, ErrDimensionUnknown)
}

func TestInvalidateCache_ForcesRefetch(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Hour, 0)

	_, _, _ = svc.GetTableDimension(context.Background(), "memories", "embedding")
	svc.InvalidateCache()
	_, _, _ = svc.GetTableDimension(context.Background(), "memories", "embedding")

	assert.Equal(t, int32(2), store.callCount)
}

type fakeLister struct {
	cols []VectorColumn
}

func (f *fakeLister) ListVectorColumns(_ context.Context) ([]VectorColumn, error) {
	return f.cols, nil
}

func TestSyncTableDimensions_ReportsInconsistency(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Minute, 0)

	lister := &fakeLister{cols: []VectorColumn{
		{Table: "memories", Column: "embedding", Dimension: 1536, HasIndex: true, IndexType: IndexHNSW},
		{Table: "embedding_queue", Column: "embedding", Dimension: 768},
	}}

	results, err := svc.SyncTableDimensions(context.Background(), lister)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Inconsistent)
	assert.Equal(t, IndexHNSW, results[0].IndexType)

	assert.True(t, results[1].Inconsistent)
	assert.Equal(t, 1536, results[1].CanonicalDim)
}

func TestSyncTableDimensions_SkipsUndeclaredColumns(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1536}}
	svc := NewService(store, time.Minute, 0)

	lister := &fakeLister{cols: []VectorColumn{
		{Table: "scratch", Column: "embedding", Dimension: 0},
	}}

	results, err := svc.SyncTableDimensions(context.Background(), lister)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestParseIndexType(t *testing.T) {
	assert.Equal(t, IndexIVFFlat, ParseIndexType("ivfflat"))
	assert.Equal(t, IndexHNSW, ParseIndexType("hnsw"))
	assert.Equal(t, IndexBTree, ParseIndexType("btree"))
	assert.Equal(t, IndexOther, ParseIndexType("gin"))
}
