package dimension

import (
	"context"
	"log/slog"
)

// Adapter reconciles query/insert vectors with a column's known
// dimension, preferring re-embedding over projection when possible but
// always leaving the caller with a usable vector. Projection is the
// total, cheap default; re-embedding is semantically better but needs
// the original text and a live provider.
type Adapter struct {
	service  *Service
	provider EmbeddingProvider // may be nil: disables re-embedding
	log      *slog.Logger
}

// NewAdapter constructs an Adapter. provider may be nil.
func NewAdapter(service *Service, provider EmbeddingProvider) *Adapter {
	return &Adapter{
		service:  service,
		provider: provider,
		log:      slog.With("component", "dimension_adapter"),
	}
}

// ValidateDimension classifies how vec relates to table.column's
// dimension.
func (a *Adapter) ValidateDimension(ctx context.Context, table, column string, vec []float32) (Action, error) {
	dim, ok, err := a.service.GetTableDimension(ctx, table, column)
	if err != nil {
		return ActionError, err
	}
	if !ok {
		return ActionError, ErrDimensionUnknown
	}
	if len(vec) == dim {
		return ActionProceed, nil
	}
	if a.provider != nil {
		return ActionReembed, nil
	}
	return ActionScale, nil
}

// AdaptForInsert reconciles vec with table.column ahead of an INSERT.
// originalText, if non-empty and a provider is configured, allows
// re-embedding when the raw vector's dimension doesn't match.
func (a *Adapter) AdaptForInsert(ctx context.Context, vec []float32, table, column, originalText string) (AdaptResult, error) {
	dim, ok, err := a.service.GetTableDimension(ctx, table, column)
	if err != nil {
		return AdaptResult{}, err
	}
	if !ok {
		// No target dimension known yet; let the DB set it on first
		// insert (this is often the very first row for this column).
		return AdaptResult{Vector: vec, Method: MethodNone}, nil
	}
	if len(vec) == dim {
		return AdaptResult{Vector: vec, Method: MethodNone}, nil
	}

	if originalText != "" && a.provider != nil {
		reembedded, err := a.provider.Embed(ctx, originalText)
		if err != nil {
			a.log.Warn("re-embedding failed, falling back to projection", "table", table, "column", column, "error", err)
		} else if len(reembedded) == dim {
			return AdaptResult{Vector: reembedded, Method: MethodReembedding}, nil
		} else {
			a.log.Warn("re-embedded vector still mismatched target dimension, falling back to projection",
				"table", table, "column", column, "got", len(reembedded), "want", dim)
		}
	}

	return AdaptResult{Vector: ScaleEmbedding(vec, dim), Method: MethodProjection}, nil
}

// AdaptForSelect reconciles a query vector with table.column ahead of a
// SELECT. Never re-embeds, only projects on mismatch: the query text was
// already embedded once and re-embedding it buys nothing.
func (a *Adapter) AdaptForSelect(ctx context.Context, vec []float32, table, column string) (AdaptResult, error) {
	dim, ok, err := a.service.GetTableDimension(ctx, table, column)
	if err != nil {
		return AdaptResult{}, err
	}
	if !ok {
		return AdaptResult{Vector: vec, Method: MethodNone}, nil
	}
	if len(vec) == dim {
		return AdaptResult{Vector: vec, Method: MethodNone}, nil
	}
	return AdaptResult{Vector: ScaleEmbedding(vec, dim), Method: MethodProjection}, nil
}
