package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWebhookEventRepository implements WebhookEventRepository using
// PostgreSQL. The ledger lives outside the unit-of-work transaction: the
// row must survive a rolled-back delivery so the retry can resume.
type PostgresWebhookEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWebhookEventRepository creates a new PostgresWebhookEventRepository
func NewPostgresWebhookEventRepository(pool *pgxpool.Pool) *PostgresWebhookEventRepository {
	return &PostgresWebhookEventRepository{pool: pool}
}

// Record inserts the event id under the unique constraint. ON CONFLICT DO
// NOTHING makes a concurrent duplicate insert report already-known
// instead of erroring or silently proceeding.
func (r *PostgresWebhookEventRepository) Record(ctx context.Context, stripeEventID, eventType string) (*WebhookEvent, bool, error) {
	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_events (stripe_event_id, event_type, received_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (stripe_event_id) DO NOTHING
	`, stripeEventID, eventType, now)
	if err != nil {
		return nil, false, fmt.Errorf("record webhook event: %w", err)
	}

	if result.RowsAffected() == 1 {
		return &WebhookEvent{StripeEventID: stripeEventID, EventType: eventType, ReceivedAt: now}, false, nil
	}

	existing := &WebhookEvent{}
	err = r.pool.QueryRow(ctx, `
		SELECT stripe_event_id, event_type, received_at, processed_at
		FROM webhook_events
		WHERE stripe_event_id = $1
	`, stripeEventID).Scan(&existing.StripeEventID, &existing.EventType, &existing.ReceivedAt, &existing.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Insert conflicted but the row is gone; rows are never
			// deleted, so treat it as a fresh record.
			return &WebhookEvent{StripeEventID: stripeEventID, EventType: eventType, ReceivedAt: now}, false, nil
		}
		return nil, false, fmt.Errorf("load webhook event: %w", err)
	}
	return existing, true, nil
}

// MarkProcessed stamps processed_at after the unit of work committed.
// A row a concurrent delivery already stamped counts as success: the
// ledger only needs the stamp to exist, not to know who wrote it.
func (r *PostgresWebhookEventRepository) MarkProcessed(ctx context.Context, stripeEventID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE webhook_events
		SET processed_at = $2
		WHERE stripe_event_id = $1 AND processed_at IS NULL
	`, stripeEventID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	if result.RowsAffected() == 0 {
		var processedAt *time.Time
		err := r.pool.QueryRow(ctx, `
			SELECT processed_at FROM webhook_events WHERE stripe_event_id = $1
		`, stripeEventID).Scan(&processedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("webhook event %s not found", stripeEventID)
			}
			return fmt.Errorf("mark webhook event processed: %w", err)
		}
		if processedAt == nil {
			return fmt.Errorf("webhook event %s not stamped", stripeEventID)
		}
	}
	return nil
}
