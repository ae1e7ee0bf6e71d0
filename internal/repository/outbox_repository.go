package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/events"
)

// Outbox row status constants
const (
	OutboxStatusPending   = "pending"
	OutboxStatusProcessed = "processed"
	OutboxStatusFailed    = "failed"
)

// OutboxEvent is a domain event durably queued for asynchronous publishing.
type OutboxEvent struct {
	ID            string     `json:"id"`
	EventType     string     `json:"event_type"`
	Topic         string     `json:"topic"`
	PartitionKey  string     `json:"partition_key"`
	Payload       []byte     `json:"payload"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// NewOutboxEvent wraps a domain event as a pending outbox row.
func NewOutboxEvent(evt events.DomainEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return &OutboxEvent{
		ID:           uuid.New().String(),
		EventType:    evt.EventType(),
		Topic:        evt.Topic(),
		PartitionKey: evt.Key(),
		Payload:      payload,
		Status:       OutboxStatusPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// OutboxRepository defines the interface for the transactional outbox
type OutboxRepository interface {
	// Enqueue inserts a pending outbox row; callers run it inside the
	// same transaction as the aggregate write
	Enqueue(ctx context.Context, evt *OutboxEvent) error
	// FetchPending retrieves pending rows due for a publish attempt,
	// applying exponential backoff by retry count, oldest first
	FetchPending(ctx context.Context, limit, maxRetries int, baseDelay time.Duration) ([]*OutboxEvent, error)
	// MarkProcessed stamps a row processed after a successful publish
	MarkProcessed(ctx context.Context, id string) error
	// MarkAttemptFailed increments the retry count; rows that reach
	// maxRetries are marked failed
	MarkAttemptFailed(ctx context.Context, id string, maxRetries int) error
}
