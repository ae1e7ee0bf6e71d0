package gateway

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification. Handlers map it to 400 with no side effects.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Webhook event types the service reconciles on
const (
	EventTypeCheckoutCompleted = "checkout.session.completed"
	EventTypeCheckoutExpired   = "checkout.session.expired"
	EventTypeChargeRefunded    = "charge.refunded"
)

// Metadata keys carried on checkout sessions and payment intents
const (
	MetadataKeyRegistrationID = "registration_id"
	MetadataKeyEventID        = "event_id"
)

// PaymentGateway defines the interface for payment processing
type PaymentGateway interface {
	// CreateCheckoutSession creates a hosted checkout session for a
	// registration's total price
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error)

	// ParseWebhookEvent verifies the payload signature and normalizes the
	// event; returns ErrInvalidSignature on verification failure
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)

	// Refund refunds the full charge behind a payment intent and returns
	// the refund id
	Refund(ctx context.Context, paymentIntentID string) (string, error)

	// Name returns the gateway name
	Name() string
}

// CheckoutSessionRequest represents a checkout session creation request
type CheckoutSessionRequest struct {
	RegistrationID string
	EventID        string
	EventTitle     string
	Amount         float64
	Currency       string
	CustomerEmail  string
}

// CheckoutSessionResponse represents a created checkout session
type CheckoutSessionResponse struct {
	SessionID string
	URL       string
}

// WebhookEvent is a verified, normalized webhook delivery. Metadata that
// is missing or malformed leaves the corresponding fields empty; callers
// decide whether that is a warning or an error.
type WebhookEvent struct {
	ID                string
	Type              string
	RegistrationID    string
	EventID           string
	CheckoutSessionID string
	PaymentIntentID   string
	RefundID          string
}
