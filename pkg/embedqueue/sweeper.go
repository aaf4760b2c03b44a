package embedqueue

import "time"

// StartSweeper begins a background goroutine that rejects callbacks
// older than maxAge with ErrExpired every interval, preventing unbounded
// callback growth when a result is lost (e.g. the row was claimed by a
// drainer that then crashed before resolving it). The goroutine exits
// when the process exits or Shutdown is called; it never keeps the
// process alive on its own.
func (q *Queue) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	q.sweepStop = make(chan struct{})
	q.sweepDone = make(chan struct{})

	go func() {
		defer close(q.sweepDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-q.sweepStop:
				return
			case <-ticker.C:
				q.sweepExpired()
			}
		}
	}()
}

// sweepExpired rejects and removes every callback older than maxAge.
func (q *Queue) sweepExpired() {
	now := time.Now()

	q.mu.Lock()
	var expired []pendingCallback
	for id, cb := range q.pending {
		if now.Sub(cb.enqueuedAt) >= q.maxAge {
			expired = append(expired, cb)
			delete(q.pending, id)
		}
	}
	q.mu.Unlock()

	for _, cb := range expired {
		cb.ch <- Result{Err: ErrExpired}
	}
}

// Shutdown stops the sweeper and drain-loop goroutines if running. Safe
// to call even if neither was started.
func (q *Queue) Shutdown() {
	if q.sweepStop != nil {
		close(q.sweepStop)
		<-q.sweepDone
	}
	if q.drainStop != nil {
		close(q.drainStop)
		<-q.drainDone
	}
}
