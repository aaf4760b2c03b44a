package config

import (
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load reads path (typically "specmem.yaml"), merges it over the
// built-in defaults with dario.cat/mergo, layers the recognized
// SPECMEM_* environment variables on top, and validates the result. A
// missing file is not fatal: SpecMem runs on built-in defaults plus
// whatever environment variables are set.
func Load(path string) (*Config, error) {
	log := slog.With("config_path", path)

	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			expanded := ExpandEnv(raw)
			var fileCfg Config
			if err := yaml.Unmarshal(expanded, &fileCfg); err != nil {
				return nil, NewLoadError(path, fmt.Errorf("%w: %w", ErrInvalidYAML, err))
			}
			if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
				return nil, NewLoadError(path, err)
			}
		case os.IsNotExist(err):
			log.Info("no config file found, using built-in defaults", "error", err)
		default:
			return nil, NewLoadError(path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := NewValidator(&cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	log.Info("configuration loaded",
		"drilldown_max_size", cfg.Drilldown.MaxSize,
		"embed_queue_max_size", cfg.EmbedQueue.MaxSize,
		"dimension_cache_ttl", cfg.Dimension.CacheTTL)

	return &cfg, nil
}
