package searchconfig

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCount_Brackets(t *testing.T) {
	cases := []struct {
		n             int
		threshold     float64
		limit         int
		hasEnoughData bool
	}{
		{0, 0, 0, false},
		{50, 0.05, 10, false},
		{500, 0.10, 25, true},
		{5000, 0.15, 50, true},
		{20000, 0.20, 100, true},
		{100000, 0.25, 200, true},
	}
	for _, c := range cases {
		cfg := FromCount(c.n)
		assert.InDelta(t, c.threshold, cfg.Threshold, 1e-9, "n=%d", c.n)
		assert.Equal(t, c.limit, cfg.Limit, "n=%d", c.n)
		assert.Equal(t, c.hasEnoughData, cfg.HasEnoughData, "n=%d", c.n)
	}
}

func TestFromCount_QualityScoreMatchesBracketTable(t *testing.T) {
	// Quality is set per bracket, so it drops from 0.9995 to 0.8 at n=1000.
	cases := []struct {
		n    int
		want float64
	}{
		{0, 0}, {10, 0.1}, {50, 0.5}, {100, 0.55}, {500, 0.75}, {999, 0.9995},
		{1000, 0.8}, {5000, 0.8}, {10000, 0.9}, {50000, 1.0}, {100000, 1.0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, FromCount(c.n).QualityScore, 1e-9, "n=%d", c.n)
	}
}

type fakeCounter struct {
	n     int32
	calls int32
}

func (f *fakeCounter) CountVectors(context.Context) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	return int(atomic.LoadInt32(&f.n)), nil
}

func TestAdaptiveSearchConfig_CachedWithinTTL(t *testing.T) {
	counter := &fakeCounter{n: 500}
	cfg := NewAdaptiveSearchConfig(counter, time.Minute)

	c1, err := cfg.Get(context.Background(), "db1")
	require.NoError(t, err)
	c2, err := cfg.Get(context.Background(), "db1")
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, int32(1), counter.calls)
}

func TestAdaptiveSearchConfig_StableWithinOneTTLWindow(t *testing.T) {
	counter := &fakeCounter{n: 500}
	cfg := NewAdaptiveSearchConfig(counter, time.Hour)

	c1, _ := cfg.Get(context.Background(), "db1")
	atomic.StoreInt32(&counter.n, 999999) // corpus changes, but within TTL
	c2, _ := cfg.Get(context.Background(), "db1")

	assert.Equal(t, c1, c2)
}

func TestAdaptiveSearchConfig_RefreshForces(t *testing.T) {
	counter := &fakeCounter{n: 500}
	cfg := NewAdaptiveSearchConfig(counter, time.Hour)

	_, _ = cfg.Get(context.Background(), "db1")
	atomic.StoreInt32(&counter.n, 20000)
	c, err := cfg.Refresh(context.Background(), "db1")
	require.NoError(t, err)
	assert.Equal(t, 0.20, c.Threshold)
}

func TestAdaptiveSearchConfig_PerKeyIsolation(t *testing.T) {
	counter := &fakeCounter{n: 500}
	cfg := NewAdaptiveSearchConfig(counter, time.Hour)

	_, _ = cfg.Get(context.Background(), "project-a")
	atomic.StoreInt32(&counter.n, 50)
	c, _ := cfg.Get(context.Background(), "project-b")
	assert.Equal(t, 0.05, c.Threshold)
}
