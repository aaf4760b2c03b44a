package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/specmem/specmem/pkg/dimension"
)

// DimensionColumnsStore implements dimension.Store by reading
// pg_attribute.atttypmod for a pgvector column. The catalog is the only
// source of truth besides the env override; dimensions are never
// hard-coded.
type DimensionColumnsStore struct {
	pool *Pool
}

// NewDimensionColumnsStore constructs a DimensionColumnsStore.
func NewDimensionColumnsStore(pool *Pool) *DimensionColumnsStore {
	return &DimensionColumnsStore{pool: pool}
}

// ColumnDimension reads the declared vector dimension for table.column in
// the pool's active schema. pgvector stores the fixed dimension as
// atttypmod directly (no -4 offset, unlike varchar); a column declared
// as bare `vector` with no dimension has atttypmod = -1, reported here
// as ok=false.
func (s *DimensionColumnsStore) ColumnDimension(ctx context.Context, table, column string) (int, bool, error) {
	const query = `
		SELECT a.atttypmod
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = ANY(current_schemas(false))
		  AND c.relname = $1
		  AND a.attname = $2
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		LIMIT 1`

	var typmod int
	row := s.pool.QueryRow(ctx, query, table, column)
	if err := row.Scan(&typmod); err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reading dimension for %s.%s: %w", table, column, err)
	}

	if typmod <= 0 {
		return 0, false, nil
	}
	return typmod, true, nil
}

// ListVectorColumns implements dimension.ColumnLister: every vector-typed
// column in the active schema, with its declared dimension and the
// access method of whichever index covers it (if any).
func (s *DimensionColumnsStore) ListVectorColumns(ctx context.Context) ([]dimension.VectorColumn, error) {
	const query = `
		SELECT c.relname, a.attname, a.atttypmod, COALESCE(idx.amname, '')
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_type t ON t.oid = a.atttypid
		LEFT JOIN LATERAL (
			SELECT am.amname
			FROM pg_index i
			JOIN pg_class ic ON ic.oid = i.indexrelid
			JOIN pg_am am ON am.oid = ic.relam
			WHERE i.indrelid = c.oid AND a.attnum = ANY(i.indkey)
			LIMIT 1
		) idx ON true
		WHERE n.nspname = ANY(current_schemas(false))
		  AND t.typname = 'vector'
		  AND c.relkind = 'r'
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY c.relname, a.attname`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing vector columns: %w", err)
	}
	defer rows.Close()

	var cols []dimension.VectorColumn
	for rows.Next() {
		var col dimension.VectorColumn
		var typmod int
		var amName string
		if err := rows.Scan(&col.Table, &col.Column, &typmod, &amName); err != nil {
			return nil, fmt.Errorf("scanning vector column: %w", err)
		}
		if typmod > 0 {
			col.Dimension = typmod
		}
		if amName != "" {
			col.HasIndex = true
			col.IndexType = dimension.ParseIndexType(amName)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
