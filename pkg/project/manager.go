package project

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Manager is a per-project singleton registry keyed by project path. Each
// entry is created lazily on first touch via factory and destroyed on
// Reset/ResetAll. No instance or its underlying connections are ever
// transferred between projects; a handle crossing projects is how
// cross-schema data bleed starts.
type Manager[T any] struct {
	factory func(path string) (T, error)

	mu        sync.Mutex
	instances map[string]T
}

// NewManager constructs a Manager whose factory builds one T per project
// path the first time it is requested.
func NewManager[T any](factory func(path string) (T, error)) *Manager[T] {
	return &Manager[T]{
		factory:   factory,
		instances: make(map[string]T),
	}
}

// Get returns the singleton instance for path, constructing it on first
// touch. Construction is idempotent: concurrent callers for a path not
// yet constructed will serialize through the same lock and the loser
// simply observes the winner's instance.
func (m *Manager[T]) Get(path string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst, ok := m.instances[path]; ok {
		return inst, nil
	}
	inst, err := m.factory(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("constructing instance for project %q: %w", path, err)
	}
	m.instances[path] = inst
	return inst, nil
}

// Reset destroys the singleton for path, closing it if it implements
// io.Closer. A subsequent Get re-constructs it from scratch.
func (m *Manager[T]) Reset(path string) {
	m.mu.Lock()
	inst, ok := m.instances[path]
	delete(m.instances, path)
	m.mu.Unlock()

	if !ok {
		return
	}
	if closer, ok := any(inst).(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("error closing project instance", "path", path, "error", err)
		}
	}
}

// ResetAll destroys every singleton, e.g. on process shutdown.
func (m *Manager[T]) ResetAll() {
	m.mu.Lock()
	paths := make([]string, 0, len(m.instances))
	for p := range m.instances {
		paths = append(paths, p)
	}
	m.mu.Unlock()

	for _, p := range paths {
		m.Reset(p)
	}
}

// Count returns the number of currently live instances (for diagnostics).
func (m *Manager[T]) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}
