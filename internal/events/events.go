package events

import (
	"time"
)

// Topic names for registration events
const (
	TopicPaymentCompleted     = "registration.payment-completed"
	TopicRefundRequested      = "registration.refund-requested"
	TopicRefundCompleted      = "registration.refund-completed"
	TopicWaitingListAvailable = "registration.waitlist-spot-available"
)

// DomainEvent is implemented by all events queued on aggregates and
// written to the outbox for asynchronous publishing.
type DomainEvent interface {
	// EventType returns the type identifier stored in the outbox row.
	EventType() string
	// Topic returns the Kafka topic this event is published to.
	Topic() string
	// Key returns the Kafka message key for partitioning.
	Key() string
}

// PaymentCompletedEvent is published after a registration's payment is
// confirmed; downstream consumers send the confirmation email and tickets.
type PaymentCompletedEvent struct {
	RegistrationID        string    `json:"registration_id"`
	EventID               string    `json:"event_id"`
	UserID                string    `json:"user_id,omitempty"`
	ContactEmail          string    `json:"contact_email"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id"`
	Amount                float64   `json:"amount"`
	Currency              string    `json:"currency"`
	AttendeeCount         int       `json:"attendee_count"`
	Timestamp             time.Time `json:"timestamp"`
}

func (e *PaymentCompletedEvent) EventType() string { return "payment.completed" }
func (e *PaymentCompletedEvent) Topic() string     { return TopicPaymentCompleted }
func (e *PaymentCompletedEvent) Key() string       { return e.RegistrationID }

// RefundRequestedEvent is published when an attendee asks for their money back.
type RefundRequestedEvent struct {
	RegistrationID        string    `json:"registration_id"`
	EventID               string    `json:"event_id"`
	ContactEmail          string    `json:"contact_email"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id"`
	Amount                float64   `json:"amount"`
	Currency              string    `json:"currency"`
	Timestamp             time.Time `json:"timestamp"`
}

func (e *RefundRequestedEvent) EventType() string { return "refund.requested" }
func (e *RefundRequestedEvent) Topic() string     { return TopicRefundRequested }
func (e *RefundRequestedEvent) Key() string       { return e.RegistrationID }

// RefundCompletedEvent is published once Stripe reports the charge refunded.
type RefundCompletedEvent struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	ContactEmail   string    `json:"contact_email"`
	StripeRefundID string    `json:"stripe_refund_id"`
	Timestamp      time.Time `json:"timestamp"`
}

func (e *RefundCompletedEvent) EventType() string { return "refund.completed" }
func (e *RefundCompletedEvent) Topic() string     { return TopicRefundCompleted }
func (e *RefundCompletedEvent) Key() string       { return e.RegistrationID }

// WaitingListSpotAvailableEvent notifies the earliest waiting-list entry
// that a confirmed registration was cancelled on a full event.
type WaitingListSpotAvailableEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	EventTitle string    `json:"event_title,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *WaitingListSpotAvailableEvent) EventType() string { return "waitlist.spot-available" }
func (e *WaitingListSpotAvailableEvent) Topic() string     { return TopicWaitingListAvailable }
func (e *WaitingListSpotAvailableEvent) Key() string       { return e.EventID }
