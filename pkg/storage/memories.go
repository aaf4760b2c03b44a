package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/specmem/specmem/pkg/models"
)

// MemoriesStore implements cameraroll.Searcher, cameraroll.MemoryFetcher,
// and searchconfig.Counter against the per-project memories table.
type MemoriesStore struct {
	pool *Pool
}

// NewMemoriesStore constructs a MemoriesStore.
func NewMemoriesStore(pool *Pool) *MemoriesStore {
	return &MemoriesStore{pool: pool}
}

// CountVectors implements searchconfig.Counter.
func (s *MemoriesStore) CountVectors(ctx context.Context) (int, error) {
	var n int
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM memories WHERE embedding IS NOT NULL`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Insert stores a new memory, adapting its embedding's dimension is the
// caller's responsibility (pkg/dimension runs before this is called).
func (s *MemoriesStore) Insert(ctx context.Context, m models.Memory) error {
	const query = `
		INSERT INTO memories (id, content, tags, metadata, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	id := m.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var vec *pgvector.Vector
	if len(m.Embedding) > 0 {
		v := pgvector.NewVector(m.Embedding)
		vec = &v
	}

	_, err := s.pool.Exec(ctx, query, id, m.Content, m.Tags, m.Metadata, vec, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}
	return nil
}

// SearchMemories implements cameraroll.Searcher: cosine similarity
// (`1 - (embedding <=> query)`) above threshold, most similar first, up
// to limit, plus the total corpus size.
func (s *MemoriesStore) SearchMemories(ctx context.Context, queryVector []float32, threshold float64, limit int) ([]models.SearchHit, int, error) {
	total, err := s.CountVectors(ctx)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || limit <= 0 {
		return nil, total, nil
	}

	const query = `
		SELECT id, content, tags, metadata, embedding, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM memories
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1 ASC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(queryVector), threshold, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("searching memories: %w", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		hit, err := scanMemoryHit(rows)
		if err != nil {
			return nil, 0, err
		}
		hits = append(hits, hit)
	}
	return hits, total, rows.Err()
}

// GetMemory implements cameraroll.MemoryFetcher.
func (s *MemoriesStore) GetMemory(ctx context.Context, id uuid.UUID) (*models.Memory, error) {
	const query = `SELECT id, content, tags, metadata, embedding, created_at FROM memories WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	m, err := scanMemory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching memory %s: %w", id, err)
	}
	return m, nil
}

// SessionMemories implements cameraroll.MemoryFetcher: other memories
// sharing sessionID, excluding exclude, ordered oldest first.
func (s *MemoriesStore) SessionMemories(ctx context.Context, sessionID string, exclude uuid.UUID, limit int) ([]models.Memory, error) {
	const query = `
		SELECT id, content, tags, metadata, embedding, created_at
		FROM memories
		WHERE metadata->>'sessionId' = $1 AND id != $2
		ORDER BY created_at ASC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, sessionID, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching session memories: %w", err)
	}
	defer rows.Close()

	var out []models.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// NearestNeighbors implements cameraroll.MemoryFetcher.
func (s *MemoriesStore) NearestNeighbors(ctx context.Context, vector []float32, exclude uuid.UUID, limit int) ([]models.SearchHit, error) {
	const query = `
		SELECT id, content, tags, metadata, embedding, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM memories
		WHERE embedding IS NOT NULL AND id != $2
		ORDER BY embedding <=> $1 ASC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching nearest neighbors: %w", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		hit, err := scanMemoryHit(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(r rowScanner) (*models.Memory, error) {
	var m models.Memory
	var vec *pgvector.Vector
	if err := r.Scan(&m.ID, &m.Content, &m.Tags, &m.Metadata, &vec, &m.CreatedAt); err != nil {
		return nil, err
	}
	if vec != nil {
		m.Embedding = vec.Slice()
	}
	return &m, nil
}

func scanMemoryHit(r rowScanner) (models.SearchHit, error) {
	var m models.Memory
	var vec *pgvector.Vector
	var similarity float64
	if err := r.Scan(&m.ID, &m.Content, &m.Tags, &m.Metadata, &vec, &m.CreatedAt, &similarity); err != nil {
		return models.SearchHit{}, fmt.Errorf("scanning memory hit: %w", err)
	}
	if vec != nil {
		m.Embedding = vec.Slice()
	}
	return models.SearchHit{Memory: m, Similarity: similarity}, nil
}
