package project

import (
	"os"
	"sync"
)

// ActivePathEnvVar is the environment variable that, when set, is
// authoritative for the active project path.
const ActivePathEnvVar = "SPECMEM_PROJECT_PATH"

// Resolver tracks the active project path with a stack of overrides
// pushed by WithProject. The active path is resolved per call, never
// cached across a server reset, so a single test harness can swap
// projects with WithProject without restarting anything.
type Resolver struct {
	mu        sync.Mutex
	getwd     func() (string, error)
	getenv    func(string) string
	overrides []string
}

// NewResolver constructs a Resolver using the real OS environment and
// working directory.
func NewResolver() *Resolver {
	return &Resolver{
		getwd:  os.Getwd,
		getenv: os.Getenv,
	}
}

// newTestResolver allows tests to control env/cwd deterministically.
func newTestResolver(getenv func(string) string, getwd func() (string, error)) *Resolver {
	return &Resolver{getenv: getenv, getwd: getwd}
}

// ActivePath resolves the active project path using, in order: (1) the
// innermost WithProject override, (2) SPECMEM_PROJECT_PATH, (3) the
// process working directory, (4) "/" as a last-resort root fallback.
func (r *Resolver) ActivePath() string {
	r.mu.Lock()
	if n := len(r.overrides); n > 0 {
		p := r.overrides[n-1]
		r.mu.Unlock()
		return p
	}
	r.mu.Unlock()

	if v := r.getenv(ActivePathEnvVar); v != "" {
		return v
	}
	if wd, err := r.getwd(); err == nil && wd != "" {
		return wd
	}
	return "/"
}

// WithProject pushes path as the active project for the duration of fn,
// restoring the prior state on every exit path (including panic/error).
func (r *Resolver) WithProject(path string, fn func() error) error {
	r.mu.Lock()
	r.overrides = append(r.overrides, path)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.overrides = r.overrides[:len(r.overrides)-1]
		r.mu.Unlock()
	}()

	return fn()
}
