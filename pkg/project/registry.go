package project

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/specmem/specmem/pkg/models"
)

// Store is the subset of storage operations ProjectContext needs against
// the shared `projects` registry table and per-schema catalog.
type Store interface {
	// UpsertProject performs the idempotent
	// INSERT ... ON CONFLICT (path) DO UPDATE ... RETURNING id
	// so concurrent registrants of the same path converge on one UUID.
	UpsertProject(ctx context.Context, path, name string) (models.Project, error)
	// ColumnNames lists column names for table in the current schema,
	// used by DetectProjectColumn.
	ColumnNames(ctx context.Context, table string) ([]string, error)
}

// Registry resolves and registers projects, backed by Store. One Registry
// instance is a per-project singleton in production (see manager.go); it
// is safe to share across goroutines.
type Registry struct {
	store Store
	group singleflight.Group
}

// NewRegistry constructs a Registry.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// RegisterProject idempotently upserts path into the projects table and
// returns its UUID. Concurrent in-process callers for the same path are
// collapsed onto a single Store call via singleflight; concurrent
// cross-process callers converge via the store's ON CONFLICT semantics.
func (r *Registry) RegisterProject(ctx context.Context, path string) (uuid.UUID, error) {
	v, err, _ := r.group.Do(path, func() (any, error) {
		name := deriveName(path)
		proj, err := r.store.UpsertProject(ctx, path, name)
		if err != nil {
			return uuid.Nil, fmt.Errorf("registering project %q: %w", path, err)
		}
		return proj.ID, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

// deriveName picks a human-friendly project name from its path, falling
// back to the path itself for root-ish paths.
func deriveName(path string) string {
	trimmed := path
	for len(trimmed) > 1 && trimmed[len(trimmed)-1] == '/' {
		trimmed = trimmed[:len(trimmed)-1]
	}
	lastSlash := -1
	for i := len(trimmed) - 1; i >= 0; i-- {
		if trimmed[i] == '/' {
			lastSlash = i
			break
		}
	}
	if lastSlash >= 0 && lastSlash+1 < len(trimmed) {
		return trimmed[lastSlash+1:]
	}
	return path
}
