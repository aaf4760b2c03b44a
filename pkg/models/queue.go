package models

import "time"

// QueueStatus is the lifecycle state of an EmbeddingQueueEntry.
type QueueStatus string

// Valid status transitions: Pending -> Processing -> {Completed, Failed}.
const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusFailed     QueueStatus = "failed"
)

// EmbeddingQueueEntry is a durable overflow row absorbing an embedding
// request while the embedding service is unreachable.
type EmbeddingQueueEntry struct {
	ID           int64
	ProjectID    string
	Text         string
	Priority     int
	Status       QueueStatus
	Embedding    []float32
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
