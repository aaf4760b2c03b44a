package dimension

import (
	"context"
	"errors"
)

// ErrDimensionUnknown is returned when no target dimension can be
// determined and no prior vector exists to infer one from.
var ErrDimensionUnknown = errors.New("dimension: target column dimension unknown")

// Action classifies how validateDimension recommends reconciling a vector
// with a column's known (or unknown) dimension.
type Action string

// Recognized validation actions.
const (
	ActionProceed Action = "proceed"
	ActionReembed Action = "reembed"
	ActionScale   Action = "scale"
	ActionError   Action = "error"
)

// Method records which strategy adaptForInsert/adaptForSelect actually used.
type Method string

// Recognized adaptation methods.
const (
	MethodNone        Method = "none"
	MethodReembedding Method = "reembedding"
	MethodProjection  Method = "projection"
)

// AdaptResult is the outcome of adaptForInsert/adaptForSelect.
type AdaptResult struct {
	Vector []float32
	Method Method
}

// Store is the database-backed source of truth for vector column
// dimensions: pg_attribute.atttypmod for a given (table, column).
type Store interface {
	// ColumnDimension returns the declared vector dimension for
	// table.column, or ok=false if the column does not exist / has no
	// declared dimension yet (e.g. an un-constrained vector column before
	// its first insert).
	ColumnDimension(ctx context.Context, table, column string) (dim int, ok bool, err error)
}

// EmbeddingProvider re-embeds text on demand, used by adaptForInsert's
// preferred "reembed" path. Supplying nil disables re-embedding; the
// adapter falls through to projection.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexType classifies the access method backing a vector column's index.
type IndexType string

// Recognized index access methods.
const (
	IndexIVFFlat IndexType = "ivfflat"
	IndexHNSW    IndexType = "hnsw"
	IndexBTree   IndexType = "btree"
	IndexOther   IndexType = "other"
)

// ParseIndexType maps a pg_am access-method name onto the recognized set.
func ParseIndexType(amName string) IndexType {
	switch amName {
	case "ivfflat":
		return IndexIVFFlat
	case "hnsw":
		return IndexHNSW
	case "btree":
		return IndexBTree
	default:
		return IndexOther
	}
}

// VectorColumn is one vector-typed column discovered by a catalog scan,
// with its declared dimension and whatever index backs it.
type VectorColumn struct {
	Table     string
	Column    string
	Dimension int
	HasIndex  bool
	IndexType IndexType
}

// ColumnLister enumerates every vector column in the active schema.
type ColumnLister interface {
	ListVectorColumns(ctx context.Context) ([]VectorColumn, error)
}
