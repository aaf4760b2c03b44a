package embedqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// pendingCallback is one in-memory record of a caller awaiting a result
// for a queued row.
type pendingCallback struct {
	ch         chan Result
	enqueuedAt time.Time
}

// Queue is the embedding overflow queue: a Store-backed durable buffer
// plus bounded in-memory callbacks, TTL-swept so a lost result never
// leaks memory.
type Queue struct {
	store     Store
	projectID string
	maxSize   int
	maxAge    time.Duration
	log       *slog.Logger

	mu      sync.Mutex
	pending map[int64]pendingCallback

	draining atomic.Bool

	sweepStop chan struct{}
	sweepDone chan struct{}
	drainStop chan struct{}
	drainDone chan struct{}
}

// Config configures a Queue's bounds.
type Config struct {
	MaxQueueSize int
	MaxQueueAge  time.Duration
}

// New constructs a Queue for one project. Call StartSweeper to begin the
// periodic callback-expiry sweep.
func New(store Store, projectID string, cfg Config) *Queue {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultMaxQueueSize
	}
	if cfg.MaxQueueAge <= 0 {
		cfg.MaxQueueAge = DefaultMaxQueueAge
	}
	return &Queue{
		store:     store,
		projectID: projectID,
		maxSize:   cfg.MaxQueueSize,
		maxAge:    cfg.MaxQueueAge,
		log:       slog.With("component", "embed_queue", "project", projectID),
		pending:   make(map[int64]pendingCallback),
	}
}

// QueueForEmbedding durably enqueues text for embedding and returns a
// channel that will receive exactly one Result: the embedding once
// DrainQueue processes this row, or an error (drain failure or TTL
// expiry). Rejects immediately with ErrCapacity when the callback table
// is full.
func (q *Queue) QueueForEmbedding(ctx context.Context, text string, priority int) (<-chan Result, error) {
	if priority <= 0 {
		priority = DefaultPriority
	}

	q.mu.Lock()
	if len(q.pending) >= q.maxSize {
		q.mu.Unlock()
		return nil, ErrCapacity
	}
	q.mu.Unlock()

	id, err := q.store.Insert(ctx, q.projectID, text, priority)
	if err != nil {
		return nil, fmt.Errorf("enqueuing embedding request: %w", err)
	}

	ch := make(chan Result, 1)
	q.mu.Lock()
	q.pending[id] = pendingCallback{ch: ch, enqueuedAt: time.Now()}
	q.mu.Unlock()

	return ch, nil
}

// DrainQueue claims and processes batches of pending rows until none
// remain. Guarded so at most one drain runs per process; a concurrent
// call is a silent no-op (the active drain will pick up any rows the
// concurrent enqueue added). Safe to call from multiple processes
// simultaneously: ClaimBatch's FOR UPDATE SKIP LOCKED prevents double
// assignment.
func (q *Queue) DrainQueue(ctx context.Context, embed EmbedFunc) error {
	if !q.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer q.draining.Store(false)

	for {
		batch, err := q.store.ClaimBatch(ctx, DefaultBatchSize)
		if err != nil {
			return fmt.Errorf("claiming embedding queue batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		for _, row := range batch {
			vec, err := embed(ctx, row.Text)
			if err != nil {
				if markErr := q.store.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
					q.log.Error("failed to mark queue row failed", "id", row.ID, "error", markErr)
				}
				q.resolve(row.ID, Result{Err: err})
				continue
			}
			if err := q.store.MarkCompleted(ctx, row.ID, vec); err != nil {
				q.log.Error("failed to mark queue row completed", "id", row.ID, "error", err)
				q.resolve(row.ID, Result{Err: err})
				continue
			}
			q.resolve(row.ID, Result{Vector: vec})
		}
	}
}

// resolve delivers a result to id's callback, if one is still waiting,
// and always removes the bookkeeping entry. At most one resolution ever
// happens per callback because the channel is removed from the map
// before (or as part of) sending.
func (q *Queue) resolve(id int64, result Result) {
	q.mu.Lock()
	cb, ok := q.pending[id]
	delete(q.pending, id)
	q.mu.Unlock()

	if !ok {
		// Caller went away (or already expired); the store mutation
		// already happened and is not undone.
		return
	}
	cb.ch <- result
}

// Cleanup deletes terminal rows older than daysToKeep.
func (q *Queue) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep <= 0 {
		daysToKeep = DefaultRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -daysToKeep)
	return q.store.DeleteOlderThan(ctx, cutoff)
}

// PendingCount reports the number of callbacks currently awaiting a
// result, for health/diagnostics.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
