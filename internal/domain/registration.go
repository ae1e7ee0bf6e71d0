package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/events"
)

// Registration lifecycle errors
var (
	ErrNoAttendees              = errors.New("registration requires at least one attendee")
	ErrTooManyAttendees         = errors.New("registration cannot have more than 10 attendees")
	ErrContactRequired          = errors.New("registration requires a contact email")
	ErrInvalidRegistrationState = errors.New("operation not allowed in current registration state")
	ErrPaymentAlreadyCompleted  = errors.New("payment has already been completed")
	ErrPaymentNotPending        = errors.New("payment is not pending")
	ErrEmptyPaymentIntent       = errors.New("payment intent id is required")
	ErrEmptyRefundID            = errors.New("refund id is required")
)

// MaxAttendees is the largest group a single registration may cover.
const MaxAttendees = 10

// CheckoutExpiry is how long a preliminary registration holds its spot
// before the checkout session is considered abandoned.
const CheckoutExpiry = 24 * time.Hour

// RegistrationStatus constants
const (
	RegistrationStatusPreliminary     = "preliminary"
	RegistrationStatusConfirmed       = "confirmed"
	RegistrationStatusCancelled       = "cancelled"
	RegistrationStatusWaitlisted      = "waitlisted"
	RegistrationStatusAbandoned       = "abandoned"
	RegistrationStatusRefundRequested = "refund_requested"
	RegistrationStatusRefunded        = "refunded"
	RegistrationStatusCheckedIn       = "checked_in"
	RegistrationStatusAttended        = "attended"
)

// PaymentStatus constants
const (
	PaymentStatusNotRequired = "not_required"
	PaymentStatusPending     = "pending"
	PaymentStatusCompleted   = "completed"
	PaymentStatusFailed      = "failed"
	PaymentStatusRefunded    = "refunded"
)

// Attendee is one person covered by a registration.
type Attendee struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender,omitempty"`
}

// Registration represents a user's (or anonymous visitor's) registration
// for an event, including the payment reconciliation state driven by
// Stripe webhooks. Registrations are never physically deleted.
type Registration struct {
	ID                       string     `json:"id"`
	EventID                  string     `json:"event_id"`
	UserID                   *string    `json:"user_id,omitempty"`
	Attendees                []Attendee `json:"attendees"`
	ContactEmail             string     `json:"contact_email"`
	ContactPhone             string     `json:"contact_phone,omitempty"`
	TotalAmount              float64    `json:"total_amount"`
	Currency                 string     `json:"currency"`
	Status                   string     `json:"status"`
	PaymentStatus            string     `json:"payment_status"`
	StripeCheckoutSessionID  *string    `json:"stripe_checkout_session_id,omitempty"`
	StripePaymentIntentID    *string    `json:"stripe_payment_intent_id,omitempty"`
	StripeRefundID           *string    `json:"stripe_refund_id,omitempty"`
	CheckoutSessionExpiresAt *time.Time `json:"checkout_session_expires_at,omitempty"`
	AbandonedAt              *time.Time `json:"abandoned_at,omitempty"`
	RefundRequestedAt        *time.Time `json:"refund_requested_at,omitempty"`
	RefundedAt               *time.Time `json:"refunded_at,omitempty"`
	Version                  int        `json:"version"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`

	pendingEvents []events.DomainEvent
}

// NewRegistration creates a registration for an event. Paid registrations
// start preliminary with a pending payment and a 24h checkout window; free
// ones are confirmed immediately with no payment required.
func NewRegistration(eventID string, userID *string, attendees []Attendee, contactEmail, contactPhone string, totalAmount float64, currency string, paid bool) (*Registration, error) {
	if eventID == "" {
		return nil, errors.New("event id is required")
	}
	if len(attendees) == 0 {
		return nil, ErrNoAttendees
	}
	if len(attendees) > MaxAttendees {
		return nil, ErrTooManyAttendees
	}
	if contactEmail == "" {
		return nil, ErrContactRequired
	}
	if currency == "" {
		currency = "AUD"
	}

	now := time.Now().UTC()
	r := &Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		UserID:       userID,
		Attendees:    attendees,
		ContactEmail: contactEmail,
		ContactPhone: contactPhone,
		TotalAmount:  totalAmount,
		Currency:     currency,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if paid {
		r.Status = RegistrationStatusPreliminary
		r.PaymentStatus = PaymentStatusPending
		expiry := now.Add(CheckoutExpiry)
		r.CheckoutSessionExpiresAt = &expiry
	} else {
		r.Status = RegistrationStatusConfirmed
		r.PaymentStatus = PaymentStatusNotRequired
	}

	return r, nil
}

// CompletePayment transitions a preliminary registration with a pending
// payment to confirmed, records the payment intent, and queues a
// PaymentCompletedEvent. A second call reports ErrPaymentAlreadyCompleted
// and leaves the aggregate untouched.
func (r *Registration) CompletePayment(paymentIntentID string) error {
	if r.PaymentStatus == PaymentStatusCompleted {
		return ErrPaymentAlreadyCompleted
	}
	if r.Status != RegistrationStatusPreliminary || r.PaymentStatus != PaymentStatusPending {
		return ErrInvalidRegistrationState
	}
	if paymentIntentID == "" {
		return ErrEmptyPaymentIntent
	}

	r.Status = RegistrationStatusConfirmed
	r.PaymentStatus = PaymentStatusCompleted
	r.StripePaymentIntentID = &paymentIntentID
	r.CheckoutSessionExpiresAt = nil
	r.touch()

	userID := ""
	if r.UserID != nil {
		userID = *r.UserID
	}
	r.queue(&events.PaymentCompletedEvent{
		RegistrationID:        r.ID,
		EventID:               r.EventID,
		UserID:                userID,
		ContactEmail:          r.ContactEmail,
		StripePaymentIntentID: paymentIntentID,
		Amount:                r.TotalAmount,
		Currency:              r.Currency,
		AttendeeCount:         len(r.Attendees),
		Timestamp:             time.Now().UTC(),
	})
	return nil
}

// FailPayment marks a pending payment as failed and cancels the registration.
func (r *Registration) FailPayment() error {
	if r.PaymentStatus != PaymentStatusPending {
		return ErrPaymentNotPending
	}

	r.PaymentStatus = PaymentStatusFailed
	r.Status = RegistrationStatusCancelled
	r.touch()
	return nil
}

// MarkAbandoned records that the checkout session expired or the user walked
// away without paying. Abandoned registrations free the event capacity they
// were holding.
func (r *Registration) MarkAbandoned() error {
	if r.Status != RegistrationStatusPreliminary || r.PaymentStatus != PaymentStatusPending {
		return ErrInvalidRegistrationState
	}

	now := time.Now().UTC()
	r.Status = RegistrationStatusAbandoned
	r.PaymentStatus = PaymentStatusFailed
	r.AbandonedAt = &now
	r.CheckoutSessionExpiresAt = nil
	r.touch()
	return nil
}

// SetCheckoutSession stores the Stripe checkout session id. Only allowed
// while the payment is still pending.
func (r *Registration) SetCheckoutSession(sessionID string) error {
	if r.PaymentStatus != PaymentStatusPending {
		return ErrPaymentNotPending
	}
	if sessionID == "" {
		return errors.New("checkout session id is required")
	}

	r.StripeCheckoutSessionID = &sessionID
	r.touch()
	return nil
}

// RequestRefund moves a confirmed, paid registration into the refund queue
// and queues a RefundRequestedEvent for the organizer.
func (r *Registration) RequestRefund() error {
	if r.Status != RegistrationStatusConfirmed || r.PaymentStatus != PaymentStatusCompleted {
		return ErrInvalidRegistrationState
	}

	now := time.Now().UTC()
	r.Status = RegistrationStatusRefundRequested
	r.RefundRequestedAt = &now
	r.touch()

	intentID := ""
	if r.StripePaymentIntentID != nil {
		intentID = *r.StripePaymentIntentID
	}
	r.queue(&events.RefundRequestedEvent{
		RegistrationID:        r.ID,
		EventID:               r.EventID,
		ContactEmail:          r.ContactEmail,
		StripePaymentIntentID: intentID,
		Amount:                r.TotalAmount,
		Currency:              r.Currency,
		Timestamp:             now,
	})
	return nil
}

// WithdrawRefundRequest returns a refund-requested registration to confirmed.
func (r *Registration) WithdrawRefundRequest() error {
	if r.Status != RegistrationStatusRefundRequested {
		return ErrInvalidRegistrationState
	}

	r.Status = RegistrationStatusConfirmed
	r.RefundRequestedAt = nil
	r.touch()
	return nil
}

// CompleteRefund finalizes a refund once Stripe reports the charge
// refunded. Confirmed registrations are accepted too: a refund issued
// straight from the Stripe dashboard arrives without a prior request.
func (r *Registration) CompleteRefund(refundID string) error {
	requested := r.Status == RegistrationStatusRefundRequested
	dashboardRefund := r.Status == RegistrationStatusConfirmed && r.PaymentStatus == PaymentStatusCompleted
	if !requested && !dashboardRefund {
		return ErrInvalidRegistrationState
	}
	if refundID == "" {
		return ErrEmptyRefundID
	}

	now := time.Now().UTC()
	r.Status = RegistrationStatusRefunded
	r.PaymentStatus = PaymentStatusRefunded
	r.StripeRefundID = &refundID
	r.RefundedAt = &now
	r.touch()

	r.queue(&events.RefundCompletedEvent{
		RegistrationID: r.ID,
		EventID:        r.EventID,
		ContactEmail:   r.ContactEmail,
		StripeRefundID: refundID,
		Timestamp:      now,
	})
	return nil
}

// Cancel withdraws a registration before the event. Confirmed and
// preliminary registrations may cancel; terminal states may not.
func (r *Registration) Cancel() error {
	switch r.Status {
	case RegistrationStatusConfirmed, RegistrationStatusPreliminary:
		r.Status = RegistrationStatusCancelled
		if r.PaymentStatus == PaymentStatusPending {
			r.PaymentStatus = PaymentStatusFailed
		}
		r.CheckoutSessionExpiresAt = nil
		r.touch()
		return nil
	default:
		return ErrInvalidRegistrationState
	}
}

// IsActive reports whether the registration currently holds event capacity.
func (r *Registration) IsActive() bool {
	switch r.Status {
	case RegistrationStatusPreliminary, RegistrationStatusConfirmed,
		RegistrationStatusRefundRequested, RegistrationStatusCheckedIn,
		RegistrationStatusAttended:
		return true
	}
	return false
}

// CheckoutExpired reports whether the checkout window has lapsed.
func (r *Registration) CheckoutExpired(now time.Time) bool {
	return r.CheckoutSessionExpiresAt != nil && now.After(*r.CheckoutSessionExpiresAt)
}

// AttendeeCount returns the number of spots this registration occupies.
func (r *Registration) AttendeeCount() int {
	return len(r.Attendees)
}

// PullEvents returns queued domain events and clears the queue. Callers
// persist them to the outbox within the same transaction as the aggregate.
func (r *Registration) PullEvents() []events.DomainEvent {
	evts := r.pendingEvents
	r.pendingEvents = nil
	return evts
}

func (r *Registration) queue(e events.DomainEvent) {
	r.pendingEvents = append(r.pendingEvents, e)
}

func (r *Registration) touch() {
	r.UpdatedAt = time.Now().UTC()
}
