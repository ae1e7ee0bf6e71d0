package repository

import (
	"context"
	"fmt"
	"time"
)

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL
type PostgresOutboxRepository struct {
	db DB
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(db DB) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

// Enqueue inserts a pending outbox row
func (r *PostgresOutboxRepository) Enqueue(ctx context.Context, evt *OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, topic, partition_key, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`
	_, err := r.db.Exec(ctx, query,
		evt.ID,
		evt.EventType,
		evt.Topic,
		evt.PartitionKey,
		evt.Payload,
		OutboxStatusPending,
		evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// FetchPending retrieves pending rows due for a publish attempt. Retried
// rows wait baseDelay * 2^(retry_count-1) after their last attempt.
func (r *PostgresOutboxRepository) FetchPending(ctx context.Context, limit, maxRetries int, baseDelay time.Duration) ([]*OutboxEvent, error) {
	query := `
		SELECT id, event_type, topic, partition_key, payload, status, retry_count,
		       last_attempt_at, created_at, processed_at
		FROM outbox_events
		WHERE status = $1 AND retry_count < $2
		  AND (retry_count = 0
		       OR last_attempt_at + ($3 * interval '1 millisecond') * power(2, retry_count - 1) <= now())
		ORDER BY created_at
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, OutboxStatusPending, maxRetries, baseDelay.Milliseconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]*OutboxEvent, 0)
	for rows.Next() {
		evt := &OutboxEvent{}
		err := rows.Scan(
			&evt.ID,
			&evt.EventType,
			&evt.Topic,
			&evt.PartitionKey,
			&evt.Payload,
			&evt.Status,
			&evt.RetryCount,
			&evt.LastAttemptAt,
			&evt.CreatedAt,
			&evt.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, evt)
	}
	return events, nil
}

// MarkProcessed stamps a row processed after a successful publish
func (r *PostgresOutboxRepository) MarkProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE outbox_events
		SET status = $2, processed_at = now(), last_attempt_at = now()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id, OutboxStatusProcessed)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

// MarkAttemptFailed increments the retry count; rows that reach
// maxRetries flip to failed and stop being fetched.
func (r *PostgresOutboxRepository) MarkAttemptFailed(ctx context.Context, id string, maxRetries int) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
		    last_attempt_at = now(),
		    status = CASE WHEN retry_count + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, id, maxRetries, OutboxStatusFailed)
	if err != nil {
		return fmt.Errorf("mark outbox attempt failed: %w", err)
	}
	return nil
}
