package models

import "time"

// DrilldownType classifies what a drilldown handle points at.
type DrilldownType string

// Recognized drilldown entry types.
const (
	DrilldownTypeMemory  DrilldownType = "memory"
	DrilldownTypeCode    DrilldownType = "code"
	DrilldownTypeContext DrilldownType = "context"
)

// DrilldownEntry is one row of the in-process drilldown registry: a
// compact integer handle mapped to an opaque memory/code key.
type DrilldownEntry struct {
	ID           int
	MemoryID     string
	Type         DrilldownType
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int
	ParentID     *int
	SearchQuery  string
	ZoomLevel    string
}
