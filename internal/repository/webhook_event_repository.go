package repository

import (
	"context"
	"time"
)

// WebhookEvent is one row of the webhook idempotency ledger. Rows are
// never deleted; a recorded-but-unprocessed row marks a delivery that
// failed mid-flight and is safe to resume.
type WebhookEvent struct {
	StripeEventID string     `json:"stripe_event_id"`
	EventType     string     `json:"event_type"`
	ReceivedAt    time.Time  `json:"received_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// Processed reports whether the event's side effects have been committed.
func (w *WebhookEvent) Processed() bool {
	return w.ProcessedAt != nil
}

// WebhookEventRepository defines the interface for the idempotency ledger
type WebhookEventRepository interface {
	// Record inserts the event id under a unique constraint. When a row
	// already exists (including a concurrent duplicate insert) it returns
	// the existing row and alreadyExists=true without modifying it.
	Record(ctx context.Context, stripeEventID, eventType string) (existing *WebhookEvent, alreadyExists bool, err error)
	// MarkProcessed stamps processed_at; called only after the unit of
	// work commit succeeds.
	MarkProcessed(ctx context.Context, stripeEventID string) error
}
