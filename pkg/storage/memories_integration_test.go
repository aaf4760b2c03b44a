package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specmem/specmem/internal/testutil"
	"github.com/specmem/specmem/pkg/models"
	"github.com/specmem/specmem/pkg/storage"
)

// vector builds a unit vector pointing along the hot axis, so two
// vectors with different hot axes are orthogonal (cosine similarity 0)
// and identical hot axes are parallel (similarity 1).
func vector(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1
	return v
}

func TestMemoriesStore_InsertAndSearch(t *testing.T) {
	pool := testutil.SetupTestDatabase(t)
	store := storage.NewMemoriesStore(pool)
	ctx := context.Background()

	closeID, farID := uuid.New(), uuid.New()
	require.NoError(t, store.Insert(ctx, models.Memory{
		ID:        closeID,
		Content:   "closely related memory",
		Embedding: vector(1536, 0),
		CreatedAt: time.Now(),
	}))
	require.NoError(t, store.Insert(ctx, models.Memory{
		ID:        farID,
		Content:   "unrelated memory",
		Embedding: vector(1536, 1),
		CreatedAt: time.Now(),
	}))

	hits, total, err := store.SearchMemories(ctx, vector(1536, 0), 0.5, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, hits, 1, "orthogonal memory must fall below the threshold")
	assert.Equal(t, closeID, hits[0].Memory.ID)
}

func TestMemoriesStore_SessionMemoriesExcludesPivot(t *testing.T) {
	pool := testutil.SetupTestDatabase(t)
	store := storage.NewMemoriesStore(pool)
	ctx := context.Background()

	pivot := uuid.New()
	sibling := uuid.New()
	require.NoError(t, store.Insert(ctx, models.Memory{
		ID:        pivot,
		Content:   "pivot",
		Metadata:  map[string]any{"sessionId": "s1"},
		CreatedAt: time.Now(),
	}))
	require.NoError(t, store.Insert(ctx, models.Memory{
		ID:        sibling,
		Content:   "sibling",
		Metadata:  map[string]any{"sessionId": "s1"},
		CreatedAt: time.Now().Add(time.Second),
	}))

	others, err := store.SessionMemories(ctx, "s1", pivot, 10)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, sibling, others[0].ID)
}

func TestProjectsStore_UpsertIsIdempotent(t *testing.T) {
	pool := testutil.SetupTestDatabase(t)
	store := storage.NewProjectsStore(pool)
	ctx := context.Background()

	first, err := store.UpsertProject(ctx, "/repo/one", "one")
	require.NoError(t, err)

	second, err := store.UpsertProject(ctx, "/repo/one", "one-renamed")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}
