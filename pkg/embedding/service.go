package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specmem/specmem/pkg/embedqueue"
)

// Queuer is the subset of *embedqueue.Queue the Service depends on,
// narrowed for testability.
type Queuer interface {
	QueueForEmbedding(ctx context.Context, text string, priority int) (<-chan embedqueue.Result, error)
}

// Direct is the subset of *SocketClient the Service depends on.
type Direct interface {
	IsAvailable(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service is the per-project embedding front door: try warm, try
// direct, else enqueue to the persistent overflow queue. It is what
// pkg/dimension.EmbeddingProvider is backed by in production, and what
// callers use to embed a search query before calling CameraZoomSearch.
type Service struct {
	client Direct
	queue  Queuer
	log    *slog.Logger
}

// NewService constructs a Service. queue may be nil in configurations
// that don't wire an overflow queue, in which case a cold or failing
// client surfaces its error directly instead of degrading to enqueue.
func NewService(client Direct, queue Queuer) *Service {
	return &Service{
		client: client,
		queue:  queue,
		log:    slog.With("component", "embedding_service"),
	}
}

// Embed satisfies pkg/dimension.EmbeddingProvider. It tries a warm direct
// call first; on a cold breaker or a direct failure, it falls back to
// the overflow queue (if wired) and blocks for that queue's eventual
// result, turning a transient backend outage into an ordinary (slower)
// success instead of an error.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.client != nil && s.client.IsAvailable(ctx) {
		vec, err := s.client.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		s.log.Warn("direct embedding call failed, falling back to overflow queue", "error", err)
	}

	if s.queue == nil {
		return nil, fmt.Errorf("embedding service unavailable and no overflow queue configured")
	}

	ch, err := s.queue.QueueForEmbedding(ctx, text, embedqueue.DefaultPriority)
	if err != nil {
		return nil, fmt.Errorf("enqueueing embedding request: %w", err)
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("queued embedding request: %w", res.Err)
		}
		return res.Vector, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
