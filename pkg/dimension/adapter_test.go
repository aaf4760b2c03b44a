package dimension

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	vec []float32
	err error
}

func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func TestAdaptForInsert_Reembedding(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1024}}
	svc := NewService(store, time.Minute, 0)
	provider := &fakeProvider{vec: make([]float32, 1024)}
	adapter := NewAdapter(svc, provider)

	input := make([]float32, 1536)
	result, err := adapter.AdaptForInsert(context.Background(), input, "memories", "embedding", "x")
	require.NoError(t, err)
	assert.Equal(t, MethodReembedding, result.Method)
	assert.Len(t, result.Vector, 1024)
}

func TestAdaptForInsert_ProjectionWithoutProvider(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1024}}
	svc := NewService(store, time.Minute, 0)
	adapter := NewAdapter(svc, nil)

	input := make([]float32, 512)
	for i := range input {
		input[i] = float32(i + 1)
	}
	result, err := adapter.AdaptForInsert(context.Background(), input, "memories", "embedding", "")
	require.NoError(t, err)
	assert.Equal(t, MethodProjection, result.Method)
	assert.Len(t, result.Vector, 1024)
}

func TestAdaptForInsert_ReembedMismatchFallsThroughToProjection(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1024}}
	svc := NewService(store, time.Minute, 0)
	provider := &fakeProvider{vec: make([]float32, 42)} // still wrong dimension
	adapter := NewAdapter(svc, provider)

	input := make([]float32, 1536)
	for i := range input {
		input[i] = float32(i + 1)
	}
	result, err := adapter.AdaptForInsert(context.Background(), input, "memories", "embedding", "x")
	require.NoError(t, err)
	assert.Equal(t, MethodProjection, result.Method)
	assert.Len(t, result.Vector, 1024)
}

func TestAdaptForInsert_ReembedErrorFallsThroughToProjection(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 1024}}
	svc := NewService(store, time.Minute, 0)
	provider := &fakeProvider{err: errors.New("socket down")}
	adapter := NewAdapter(svc, provider)

	input := make([]float32, 1536)
	for i := range input {
		input[i] = float32(i + 1)
	}
	result, err := adapter.AdaptForInsert(context.Background(), input, "memories", "embedding", "x")
	require.NoError(t, err)
	assert.Equal(t, MethodProjection, result.Method)
}

func TestAdaptForInsert_NoTargetDimensionKnown(t *testing.T) {
	store := &fakeStore{dims: map[string]int{}}
	svc := NewService(store, time.Minute, 0)
	adapter := NewAdapter(svc, nil)

	input := []float32{1, 2, 3}
	result, err := adapter.AdaptForInsert(context.Background(), input, "memories", "embedding", "")
	require.NoError(t, err)
	assert.Equal(t, MethodNone, result.Method)
	assert.Equal(t, input, result.Vector)
}

func TestAdaptForInsert_MatchingDimension(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 3}}
	svc := NewService(store, time.Minute, 0)
	adapter := NewAdapter(svc, nil)

	input := []float32{1, 2, 3}
	result, err := adapter.AdaptForInsert(context.Background(), input, "memories", "embedding", "")
	require.NoError(t, err)
	assert.Equal(t, MethodNone, result.Method)
}

func TestAdaptForSelect_NeverReembeds(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 4}}
	svc := NewService(store, time.Minute, 0)
	provider := &fakeProvider{vec: make([]float32, 4)}
	adapter := NewAdapter(svc, provider)

	input := []float32{1, 2, 3, 4, 5, 6}
	result, err := adapter.AdaptForSelect(context.Background(), input, "memories", "embedding")
	require.NoError(t, err)
	assert.Equal(t, MethodProjection, result.Method)
	assert.Len(t, result.Vector, 4)
}

func TestValidateDimension_Classification(t *testing.T) {
	store := &fakeStore{dims: map[string]int{"memories.embedding": 4}}
	svc := NewService(store, time.Minute, 0)

	t.Run("proceed", func(t *testing.T) {
		adapter := NewAdapter(svc, nil)
		action, err := adapter.ValidateDimension(context.Background(), "memories", "embedding", make([]float32, 4))
		require.NoError(t, err)
		assert.Equal(t, ActionProceed, action)
	})

	t.Run("scale without provider", func(t *testing.T) {
		adapter := NewAdapter(svc, nil)
		action, err := adapter.ValidateDimension(context.Background(), "memories", "embedding", make([]float32, 8))
		require.NoError(t, err)
		assert.Equal(t, ActionScale, action)
	})

	t.Run("reembed with provider", func(t *testing.T) {
		adapter := NewAdapter(svc, &fakeProvider{vec: make([]float32, 4)})
		action, err := adapter.ValidateDimension(context.Background(), "memories", "embedding", make([]float32, 8))
		require.NoError(t, err)
		assert.Equal(t, ActionReembed, action)
	})

	t.Run("error when unknown", func(t *testing.T) {
		unknownStore := &fakeStore{dims: map[string]int{}}
		unknownSvc := NewService(unknownStore, time.Minute, 0)
		adapter := NewAdapter(unknownSvc, nil)
		action, err := adapter.ValidateDimension(context.Background(), "memories", "embedding", make([]float32, 8))
		assert.ErrorIs(t, err, ErrDimensionUnknown)
		assert.Equal(t, ActionError, action)
	})
}
