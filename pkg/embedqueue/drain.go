package embedqueue

import (
	"context"
	"time"
)

// DefaultDrainInterval is how often the drain loop probes for the
// embedding service having come back.
const DefaultDrainInterval = 15 * time.Second

// DrainSource is the recovered embedding path the drain loop fans queued
// requests through: a reachability probe plus the embedder itself.
type DrainSource interface {
	IsAvailable(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// StartDrainLoop begins a background goroutine that, every interval,
// drains pending rows through source whenever source reports the
// embedding service reachable. Requests absorbed while the service was
// down are embedded and fanned back out to their waiting callers as
// soon as it returns.
func (q *Queue) StartDrainLoop(ctx context.Context, interval time.Duration, source DrainSource) {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	q.drainStop = make(chan struct{})
	q.drainDone = make(chan struct{})

	go func() {
		defer close(q.drainDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.drainStop:
				return
			case <-ticker.C:
				if !source.IsAvailable(ctx) {
					continue
				}
				if err := q.DrainQueue(ctx, source.Embed); err != nil {
					q.log.Warn("queue drain failed", "error", err)
				}
			}
		}
	}()
}
