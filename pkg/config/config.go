// Package config loads SpecMem's process configuration: a YAML file
// merged with built-in defaults via dario.cat/mergo, then overridden by
// the recognized SPECMEM_* environment variables.
package config

import (
	"time"

	"github.com/specmem/specmem/pkg/storage"
)

// Config is the umbrella object returned by Load, consumed by every
// per-project singleton constructor (pkg/project.Manager factories).
type Config struct {
	// Database is the connection pool configuration shared by every
	// project's storage.Pool (per-project schema is layered on top at
	// connection time, not configured here).
	Database storage.Config `yaml:"database"`

	// Embedding is the external embedding service socket.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// MiniCOT is the external reasoning/scoring service socket.
	MiniCOT MiniCOTConfig `yaml:"mini_cot"`

	// Dimension configures the dimension service's cache.
	Dimension DimensionConfig `yaml:"dimension"`

	// Drilldown configures the drilldown registry's bounds.
	Drilldown DrilldownConfig `yaml:"drilldown"`

	// EmbedQueue configures the overflow queue's bounds.
	EmbedQueue EmbedQueueConfig `yaml:"embed_queue"`

	// HealthServer is the minimal operator-facing /healthz surface.
	HealthServer HealthServerConfig `yaml:"health_server"`
}

// EmbeddingConfig addresses the embedding service socket.
type EmbeddingConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// MiniCOTConfig addresses the Mini-COT reasoning socket.
type MiniCOTConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// DimensionConfig mirrors SPECMEM_EMBEDDING_DIMENSIONS and
// SPECMEM_DIMENSION_CACHE_TTL_MS.
type DimensionConfig struct {
	// EmbeddingDimensions is the hard override; 0 means "read from the DB".
	EmbeddingDimensions int           `yaml:"embedding_dimensions"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
}

// DrilldownConfig mirrors the SPECMEM_DRILLDOWN_* variables.
type DrilldownConfig struct {
	MaxSize         int           `yaml:"max_size"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// EmbedQueueConfig mirrors the SPECMEM_EMBED_QUEUE_* variables.
// DrainInterval is how often the drain loop probes the embedding service
// for recovery; it has no environment variable, only YAML.
type EmbedQueueConfig struct {
	MaxSize         int           `yaml:"max_size"`
	MaxAge          time.Duration `yaml:"max_age"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	DrainInterval   time.Duration `yaml:"drain_interval"`
}

// HealthServerConfig addresses the gin-based operator health surface.
type HealthServerConfig struct {
	Addr string `yaml:"addr"`
}
