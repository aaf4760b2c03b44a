package config

import (
	"time"

	"github.com/specmem/specmem/pkg/storage"
)

// Recognized environment variables, each paired with its documented
// default. SPECMEM_PROJECT_PATH (the active-project override) is owned
// by pkg/project.ActivePathEnvVar, not this package: the active path
// must be resolved per call, never folded into a cached Config.
const (
	EnvEmbeddingDimensions         = "SPECMEM_EMBEDDING_DIMENSIONS"
	EnvDimensionCacheTTLMs         = "SPECMEM_DIMENSION_CACHE_TTL_MS"
	EnvDrilldownMaxSize            = "SPECMEM_DRILLDOWN_MAX_SIZE"
	EnvDrilldownTTLMs              = "SPECMEM_DRILLDOWN_TTL_MS"
	EnvDrilldownCleanupIntervalMs  = "SPECMEM_DRILLDOWN_CLEANUP_INTERVAL_MS"
	EnvEmbedQueueMaxSize           = "SPECMEM_EMBED_QUEUE_MAX_SIZE"
	EnvEmbedQueueMaxAgeMs          = "SPECMEM_EMBED_QUEUE_MAX_AGE_MS"
	EnvEmbedQueueCleanupIntervalMs = "SPECMEM_EMBED_QUEUE_CLEANUP_INTERVAL_MS"
)

// DefaultConfig returns the built-in defaults every Load starts from,
// before the YAML file and then the explicit environment variables are
// layered on top.
func DefaultConfig() Config {
	return Config{
		Database: defaultDatabaseConfig(),
		Embedding: EmbeddingConfig{
			Addr:    "localhost:8901",
			Timeout: 5 * time.Second,
		},
		MiniCOT: MiniCOTConfig{
			Addr:    "localhost:8902",
			Timeout: 5 * time.Second,
		},
		Dimension: DimensionConfig{
			EmbeddingDimensions: 0, // 0 means "read from the DB"
			CacheTTL:            5 * time.Minute,
		},
		Drilldown: DrilldownConfig{
			MaxSize:         10_000,
			TTL:             30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		EmbedQueue: EmbedQueueConfig{
			MaxSize:         500,
			MaxAge:          5 * time.Minute,
			CleanupInterval: time.Minute,
			DrainInterval:   15 * time.Second,
		},
		HealthServer: HealthServerConfig{
			Addr: ":8080",
		},
	}
}

func defaultDatabaseConfig() storage.Config {
	return storage.Config{
		Host:     "localhost",
		Port:     5432,
		User:     "specmem",
		Password: "",
		Database: "specmem",
		SSLMode:  "disable",

		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}
