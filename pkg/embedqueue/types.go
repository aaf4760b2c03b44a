// Package embedqueue absorbs embedding requests while the embedding
// service is unreachable, fanning results back out to waiting callers
// once it recovers.
package embedqueue

import (
	"context"
	"errors"
	"time"

	"github.com/specmem/specmem/pkg/models"
)

// ErrCapacity is returned when the queue's in-memory callback table is
// full. Callers see it immediately; nothing is enqueued.
var ErrCapacity = errors.New("embedqueue: queue is at capacity")

// ErrExpired is delivered to a caller whose callback outlived
// maxQueueAge without a result arriving.
var ErrExpired = errors.New("embedqueue: callback expired before a result arrived")

// DefaultMaxQueueSize is SPECMEM_EMBED_QUEUE_MAX_SIZE's default.
const DefaultMaxQueueSize = 500

// DefaultMaxQueueAge is SPECMEM_EMBED_QUEUE_MAX_AGE_MS's default.
const DefaultMaxQueueAge = 5 * time.Minute

// DefaultCleanupInterval is SPECMEM_EMBED_QUEUE_CLEANUP_INTERVAL_MS's default.
const DefaultCleanupInterval = time.Minute

// DefaultPriority is used when callers don't specify one.
const DefaultPriority = 5

// DefaultRetentionDays is how long terminal rows are kept by Cleanup.
const DefaultRetentionDays = 7

// DefaultBatchSize is how many rows DrainQueue claims per round.
const DefaultBatchSize = 10

// Result is delivered on the channel returned by QueueForEmbedding: an
// embedding vector on success, or an error (drain failure or expiry).
type Result struct {
	Vector []float32
	Err    error
}

// EmbedFunc generates an embedding for text, used by DrainQueue once the
// embedding service is warm again.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Store is the durable backing for the embedding_queue table, scoped to
// one project's schema.
type Store interface {
	// Insert adds a pending row and returns its id.
	Insert(ctx context.Context, projectID, text string, priority int) (id int64, err error)
	// ClaimBatch atomically claims up to limit pending rows ordered by
	// priority DESC, created_at ASC, using FOR UPDATE SKIP LOCKED so
	// concurrent drainers never contend on the same row, and marks them
	// processing.
	ClaimBatch(ctx context.Context, limit int) ([]models.EmbeddingQueueEntry, error)
	// MarkCompleted transitions a processing row to completed with its
	// embedding.
	MarkCompleted(ctx context.Context, id int64, embedding []float32) error
	// MarkFailed transitions a processing row to failed with an error
	// message.
	MarkFailed(ctx context.Context, id int64, errMessage string) error
	// DeleteOlderThan removes terminal (completed/failed) rows created
	// before cutoff, returning the count removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
