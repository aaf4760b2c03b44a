package storage

import (
	"context"
	"fmt"

	"github.com/specmem/specmem/pkg/models"
)

// ProjectsStore implements project.Store against the shared
// `public.projects` table, using ON CONFLICT DO UPDATE RETURNING so
// concurrent registrants of the same path converge on the same row.
type ProjectsStore struct {
	pool *Pool
}

// NewProjectsStore constructs a ProjectsStore.
func NewProjectsStore(pool *Pool) *ProjectsStore {
	return &ProjectsStore{pool: pool}
}

// UpsertProject performs the idempotent INSERT ... ON CONFLICT (path) DO
// UPDATE ... RETURNING id.
func (s *ProjectsStore) UpsertProject(ctx context.Context, path, name string) (models.Project, error) {
	const query = `
		INSERT INTO public.projects (path, name)
		VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET updated_at = now()
		RETURNING id, path, name, created_at, updated_at`

	var p models.Project
	row := s.pool.QueryRow(ctx, query, path, name)
	if err := row.Scan(&p.ID, &p.Path, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Project{}, fmt.Errorf("upserting project %s: %w", path, err)
	}
	return p, nil
}

// ColumnNames lists column names for table in the pool's active schema
// (search_path already points there), used by project.ColumnDetector.
func (s *ProjectsStore) ColumnNames(ctx context.Context, table string) ([]string, error) {
	const query = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ANY(current_schemas(false)) AND table_name = $1`

	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
