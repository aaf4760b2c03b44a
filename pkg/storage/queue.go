package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/specmem/specmem/pkg/models"
)

// EmbeddingQueueStore implements embedqueue.Store against the
// per-project embedding_queue table, using FOR UPDATE SKIP LOCKED so
// parallel drainers never contend on the same row.
type EmbeddingQueueStore struct {
	pool *Pool
}

// NewEmbeddingQueueStore constructs an EmbeddingQueueStore.
func NewEmbeddingQueueStore(pool *Pool) *EmbeddingQueueStore {
	return &EmbeddingQueueStore{pool: pool}
}

// Insert adds a pending row and returns its id.
func (s *EmbeddingQueueStore) Insert(ctx context.Context, projectID, text string, priority int) (int64, error) {
	const query = `
		INSERT INTO embedding_queue (project_id, text, priority, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id`

	var id int64
	row := s.pool.QueryRow(ctx, query, projectID, text, priority)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting embedding queue row: %w", err)
	}
	return id, nil
}

// ClaimBatch atomically claims up to limit pending rows ordered by
// priority DESC, created_at ASC, under FOR UPDATE SKIP LOCKED, and
// marks them processing.
func (s *EmbeddingQueueStore) ClaimBatch(ctx context.Context, limit int) ([]models.EmbeddingQueueEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const selectQuery = `
		SELECT id, project_id, text, priority, created_at
		FROM embedding_queue
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, selectQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("claiming embedding queue batch: %w", err)
	}

	var claimed []models.EmbeddingQueueEntry
	var ids []int64
	for rows.Next() {
		var e models.EmbeddingQueueEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Text, &e.Priority, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning claimed row: %w", err)
		}
		e.Status = models.QueueStatusProcessing
		claimed = append(claimed, e)
		ids = append(ids, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating claimed rows: %w", err)
	}

	if len(ids) > 0 {
		const updateQuery = `UPDATE embedding_queue SET status = 'processing' WHERE id = ANY($1)`
		if _, err := tx.Exec(ctx, updateQuery, ids); err != nil {
			return nil, fmt.Errorf("marking batch processing: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing claim transaction: %w", err)
	}
	return claimed, nil
}

// MarkCompleted transitions a processing row to completed with its
// embedding.
func (s *EmbeddingQueueStore) MarkCompleted(ctx context.Context, id int64, embedding []float32) error {
	const query = `
		UPDATE embedding_queue
		SET status = 'completed', embedding = $2, processed_at = now()
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, id, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("marking queue row %d completed: %w", id, err)
	}
	return nil
}

// MarkFailed transitions a processing row to failed with an error
// message.
func (s *EmbeddingQueueStore) MarkFailed(ctx context.Context, id int64, errMessage string) error {
	const query = `
		UPDATE embedding_queue
		SET status = 'failed', error_message = $2, processed_at = now()
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, id, errMessage); err != nil {
		return fmt.Errorf("marking queue row %d failed: %w", id, err)
	}
	return nil
}

// DeleteOlderThan removes terminal rows created before cutoff.
func (s *EmbeddingQueueStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM embedding_queue
		WHERE status IN ('completed', 'failed') AND created_at < $1`

	tag, err := s.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old queue rows: %w", err)
	}
	return tag.RowsAffected(), nil
}
