package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/specmem/specmem/pkg/cameraroll"
	"github.com/specmem/specmem/pkg/models"
)

// CodebaseStore implements cameraroll.CodeFetcher and
// cameraroll.CodeRefFetcher against code_definitions, codebase_files,
// and codebase_pointers.
type CodebaseStore struct {
	pool *Pool
}

// NewCodebaseStore constructs a CodebaseStore.
func NewCodebaseStore(pool *Pool) *CodebaseStore {
	return &CodebaseStore{pool: pool}
}

// GetDefinition implements cameraroll.CodeFetcher.
func (s *CodebaseStore) GetDefinition(ctx context.Context, filePath, name string) (*models.CodeDefinition, error) {
	const query = `
		SELECT file_path, name, definition_type, language, start_line, end_line, content, signature, docstring, is_exported
		FROM code_definitions
		WHERE file_path = $1 AND name = $2`

	var d models.CodeDefinition
	row := s.pool.QueryRow(ctx, query, filePath, name)
	err := row.Scan(&d.FilePath, &d.Name, &d.DefinitionType, &d.Language, &d.StartLine, &d.EndLine, &d.Content, &d.Signature, &d.Docstring, &d.IsExported)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching definition %s:%s: %w", filePath, name, err)
	}
	return &d, nil
}

// GetFile implements cameraroll.CodeFetcher.
func (s *CodebaseStore) GetFile(ctx context.Context, filePath string) (*models.CodebaseFile, error) {
	const query = `
		SELECT file_path, file_name, language_id, content, line_count
		FROM codebase_files
		WHERE file_path = $1`

	var f models.CodebaseFile
	row := s.pool.QueryRow(ctx, query, filePath)
	if err := row.Scan(&f.FilePath, &f.FileName, &f.LanguageID, &f.Content, &f.LineCount); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching file %s: %w", filePath, err)
	}
	return &f, nil
}

// CodeRefsForMemory implements cameraroll.CodeRefFetcher. An absent
// codebase_pointers/codebase_files table (undefined_table, SQLSTATE
// 42P01) is tolerated silently.
func (s *CodebaseStore) CodeRefsForMemory(ctx context.Context, memoryID uuid.UUID, limit int) ([]cameraroll.CodeRefHit, error) {
	const query = `
		SELECT p.file_path, f.file_name, p.line_start, p.line_end, p.function_name
		FROM codebase_pointers p
		LEFT JOIN codebase_files f ON f.file_path = p.file_path
		WHERE p.memory_id = $1
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, memoryID, limit)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching code refs: %w", err)
	}
	defer rows.Close()

	var out []cameraroll.CodeRefHit
	for rows.Next() {
		var hit cameraroll.CodeRefHit
		var fileName *string
		if err := rows.Scan(&hit.FilePath, &fileName, &hit.LineStart, &hit.LineEnd, &hit.FunctionName); err != nil {
			return nil, fmt.Errorf("scanning code ref: %w", err)
		}
		if fileName != nil {
			hit.FileName = *fileName
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

// isUndefinedTable reports whether err is Postgres SQLSTATE 42P01
// (undefined_table).
func isUndefinedTable(err error) bool {
	var pgErr interface{ SQLState() string }
	if ok := asPgError(err, &pgErr); ok {
		return pgErr.SQLState() == "42P01"
	}
	return false
}

func asPgError(err error, target *interface{ SQLState() string }) bool {
	for err != nil {
		if e, ok := err.(interface{ SQLState() string }); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
