package config

import "fmt"

// Validator validates a Config comprehensively, failing fast at the
// first defect with a field-addressed ValidationError.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates every section in turn.
func (v *Validator) ValidateAll() error {
	if err := v.validateDatabase(); err != nil {
		return err
	}
	if err := v.validateDimension(); err != nil {
		return err
	}
	if err := v.validateDrilldown(); err != nil {
		return err
	}
	if err := v.validateEmbedQueue(); err != nil {
		return err
	}
	if err := v.validateSocket("embedding", v.cfg.Embedding.Addr); err != nil {
		return err
	}
	if err := v.validateSocket("mini_cot", v.cfg.MiniCOT.Addr); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateDatabase() error {
	d := v.cfg.Database
	if d.Host == "" {
		return NewValidationError("database", "host", ErrMissingRequiredField)
	}
	if d.Port <= 0 || d.Port > 65535 {
		return NewValidationError("database", "port", fmt.Errorf("%w: must be in [1, 65535], got %d", ErrInvalidValue, d.Port))
	}
	if d.Database == "" {
		return NewValidationError("database", "database", ErrMissingRequiredField)
	}
	if d.MaxConns < d.MinConns {
		return NewValidationError("database", "max_conns", fmt.Errorf("%w: max_conns (%d) must be >= min_conns (%d)", ErrInvalidValue, d.MaxConns, d.MinConns))
	}
	return nil
}

func (v *Validator) validateDimension() error {
	dim := v.cfg.Dimension
	if dim.EmbeddingDimensions < 0 {
		return NewValidationError("dimension", "embedding_dimensions", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if dim.CacheTTL <= 0 {
		return NewValidationError("dimension", "cache_ttl", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateDrilldown() error {
	d := v.cfg.Drilldown
	if d.MaxSize <= 0 {
		return NewValidationError("drilldown", "max_size", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if d.TTL <= 0 {
		return NewValidationError("drilldown", "ttl", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if d.CleanupInterval <= 0 {
		return NewValidationError("drilldown", "cleanup_interval", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateEmbedQueue() error {
	q := v.cfg.EmbedQueue
	if q.MaxSize <= 0 {
		return NewValidationError("embed_queue", "max_size", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if q.MaxAge <= 0 {
		return NewValidationError("embed_queue", "max_age", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if q.CleanupInterval <= 0 {
		return NewValidationError("embed_queue", "cleanup_interval", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if q.DrainInterval <= 0 {
		return NewValidationError("embed_queue", "drain_interval", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateSocket(section, addr string) error {
	if addr == "" {
		return NewValidationError(section, "addr", ErrMissingRequiredField)
	}
	return nil
}
