package project

import (
	"context"
	"sync"
)

// ColumnKind names which project-scoping column a table exposes, if any.
type ColumnKind string

// Recognized column kinds, in preference order.
const (
	ColumnProjectPath ColumnKind = "project_path"
	ColumnProjectID   ColumnKind = "project_id"
	ColumnNone        ColumnKind = ""
)

// ColumnDetector caches DetectProjectColumn results per table for one
// project. A detection error is never cached, only a successful result.
type ColumnDetector struct {
	store Store
	mu    sync.RWMutex
	cache map[string]ColumnKind
}

// NewColumnDetector constructs a ColumnDetector.
func NewColumnDetector(store Store) *ColumnDetector {
	return &ColumnDetector{store: store, cache: make(map[string]ColumnKind)}
}

// DetectProjectColumn queries information_schema.columns (via Store,
// already scoped to the active schema) to determine how table is gated:
// project_path (preferred), project_id, or ungated.
func (d *ColumnDetector) DetectProjectColumn(ctx context.Context, table string) (ColumnKind, error) {
	d.mu.RLock()
	if kind, ok := d.cache[table]; ok {
		d.mu.RUnlock()
		return kind, nil
	}
	d.mu.RUnlock()

	cols, err := d.store.ColumnNames(ctx, table)
	if err != nil {
		return ColumnNone, err
	}

	kind := ColumnNone
	hasPath, hasID := false, false
	for _, c := range cols {
		switch c {
		case "project_path":
			hasPath = true
		case "project_id":
			hasID = true
		}
	}
	switch {
	case hasPath:
		kind = ColumnProjectPath
	case hasID:
		kind = ColumnProjectID
	}

	d.mu.Lock()
	d.cache[table] = kind
	d.mu.Unlock()
	return kind, nil
}
