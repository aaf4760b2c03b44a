// Package cameraroll turns raw similarity hits into a bounded,
// attributed, pivot-able "camera roll" view and implements zoom-in
// drilldown on individual memory or code handles.
package cameraroll

import "github.com/specmem/specmem/pkg/models"

// Presets is the ordered table of named zoom levels, widest first. Order
// matters: thresholdToZoomLevel and getNextZoom both walk this slice.
var Presets = []models.ZoomConfig{
	{Level: models.ZoomUltraWide, Threshold: 0.15, Limit: 50, ContentPreview: 200, IncludeContext: false, Compression: models.CompressionFull},
	{Level: models.ZoomWide, Threshold: 0.25, Limit: 25, ContentPreview: 400, IncludeContext: false, Compression: models.CompressionFull},
	{Level: models.ZoomNormal, Threshold: 0.40, Limit: 15, ContentPreview: 600, IncludeContext: true, Compression: models.CompressionLight},
	{Level: models.ZoomClose, Threshold: 0.60, Limit: 10, ContentPreview: 800, IncludeContext: true, Compression: models.CompressionLight},
	{Level: models.ZoomMacro, Threshold: 0.80, Limit: 5, ContentPreview: 1500, IncludeContext: true, Compression: models.CompressionNone},
}

// presetIndex maps a level name to its position in Presets.
func presetIndex(level models.ZoomLevel) int {
	for i, p := range Presets {
		if p.Level == level {
			return i
		}
	}
	return -1
}

// PresetFor returns the ZoomConfig for a named level, or the normal
// preset if the name is unrecognized.
func PresetFor(level models.ZoomLevel) models.ZoomConfig {
	if i := presetIndex(level); i >= 0 {
		return Presets[i]
	}
	return Presets[presetIndex(models.ZoomNormal)]
}

// zoomBrackets are the thresholds separating adjacent presets, used by
// ThresholdToZoomLevel; index i is the upper bound of Presets[i].
var zoomBrackets = []float64{0.20, 0.35, 0.55, 0.75}

// ThresholdToZoomLevel picks the widest level whose own threshold is
// ≤ t, using the brackets at 0.20, 0.35, 0.55, 0.75 to decide the
// cutover point between adjacent presets.
func ThresholdToZoomLevel(t float64) models.ZoomLevel {
	for i, bracket := range zoomBrackets {
		if t < bracket {
			return Presets[i].Level
		}
	}
	return Presets[len(Presets)-1].Level
}

// Direction is which way getNextZoom steps.
type Direction string

// Recognized zoom directions.
const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// GetNextZoom walks one step narrower ("in") or wider ("out") from
// current, returning ("", false) at either end of the chain.
func GetNextZoom(current models.ZoomLevel, dir Direction) (models.ZoomLevel, bool) {
	i := presetIndex(current)
	if i < 0 {
		return "", false
	}
	switch dir {
	case DirectionIn:
		if i+1 >= len(Presets) {
			return "", false
		}
		return Presets[i+1].Level, true
	case DirectionOut:
		if i-1 < 0 {
			return "", false
		}
		return Presets[i-1].Level, true
	default:
		return "", false
	}
}
