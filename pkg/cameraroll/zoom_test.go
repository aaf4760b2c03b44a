package cameraroll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/specmem/specmem/pkg/models"
)

func TestThresholdToZoomLevel_Monotone(t *testing.T) {
	order := map[models.ZoomLevel]int{}
	for i, p := range Presets {
		order[p.Level] = i
	}

	prev := -1
	for _, t2 := range []float64{0.0, 0.10, 0.19, 0.20, 0.30, 0.35, 0.50, 0.55, 0.70, 0.75, 0.90} {
		level := ThresholdToZoomLevel(t2)
		idx := order[level]
		assert.GreaterOrEqual(t, idx, prev, "zoom level regressed at t=%v", t2)
		prev = idx
	}
}

func TestGetNextZoom_VisitsEachLevelExactlyOnce(t *testing.T) {
	visited := map[models.ZoomLevel]bool{models.ZoomUltraWide: true}
	level := models.ZoomUltraWide
	for {
		next, ok := GetNextZoom(level, DirectionIn)
		if !ok {
			break
		}
		assert.False(t, visited[next], "visited %s twice", next)
		visited[next] = true
		level = next
	}
	assert.Len(t, visited, len(Presets))
}

func TestGetNextZoom_OutReversesIn(t *testing.T) {
	next, ok := GetNextZoom(models.ZoomNormal, DirectionIn)
	assertTrue(t, ok)
	back, ok := GetNextZoom(next, DirectionOut)
	assertTrue(t, ok)
	assert.Equal(t, models.ZoomNormal, back)
}

func TestGetNextZoom_EndsReturnFalse(t *testing.T) {
	_, ok := GetNextZoom(models.ZoomMacro, DirectionIn)
	assert.False(t, ok)
	_, ok = GetNextZoom(models.ZoomUltraWide, DirectionOut)
	assert.False(t, ok)
}

func TestGetNextZoom_UnknownLevel(t *testing.T) {
	_, ok := GetNextZoom("bogus", DirectionIn)
	assert.False(t, ok)
}

func assertTrue(t *testing.T, v bool) {
	t.Helper()
	assert.True(t, v)
}
