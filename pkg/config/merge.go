package config

import (
	"os"
	"strconv"
	"time"
)

// applyEnvOverrides layers the recognized SPECMEM_* environment
// variables on top of cfg (itself already the built-in defaults merged
// with any specmem.yaml file). Environment variables are the final,
// authoritative layer: an operator setting SPECMEM_DRILLDOWN_MAX_SIZE
// always wins over whatever the YAML file says.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envInt(EnvEmbeddingDimensions); ok && v > 0 {
		cfg.Dimension.EmbeddingDimensions = v
	}
	if v, ok := envDurationMs(EnvDimensionCacheTTLMs); ok {
		cfg.Dimension.CacheTTL = v
	}
	if v, ok := envInt(EnvDrilldownMaxSize); ok {
		cfg.Drilldown.MaxSize = v
	}
	if v, ok := envDurationMs(EnvDrilldownTTLMs); ok {
		cfg.Drilldown.TTL = v
	}
	if v, ok := envDurationMs(EnvDrilldownCleanupIntervalMs); ok {
		cfg.Drilldown.CleanupInterval = v
	}
	if v, ok := envInt(EnvEmbedQueueMaxSize); ok {
		cfg.EmbedQueue.MaxSize = v
	}
	if v, ok := envDurationMs(EnvEmbedQueueMaxAgeMs); ok {
		cfg.EmbedQueue.MaxAge = v
	}
	if v, ok := envDurationMs(EnvEmbedQueueCleanupIntervalMs); ok {
		cfg.EmbedQueue.CleanupInterval = v
	}
}

func envInt(name string) (int, bool) {
	raw, set := os.LookupEnv(name)
	if !set || raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envDurationMs(name string) (time.Duration, bool) {
	v, ok := envInt(name)
	if !ok {
		return 0, false
	}
	return time.Duration(v) * time.Millisecond, true
}
