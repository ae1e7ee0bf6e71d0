package repository

import (
	"context"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// RegistrationRepository defines the interface for registration data access
type RegistrationRepository interface {
	// Create persists a new registration
	Create(ctx context.Context, reg *domain.Registration) error
	// GetByID retrieves a registration by ID (nil when not found)
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
	// GetByPaymentIntentID retrieves a registration by its Stripe payment intent
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Registration, error)
	// Update persists changes asserting the loaded version; a mismatch
	// returns ErrConcurrentModification
	Update(ctx context.Context, reg *domain.Registration) error
	// ListByEvent retrieves registrations for an event with pagination
	ListByEvent(ctx context.Context, eventID string, page, limit int) ([]*domain.Registration, int, error)
	// HasActiveForUser reports whether a user holds an active registration
	// for an event
	HasActiveForUser(ctx context.Context, eventID, userID string) (bool, error)
	// GetActiveByEventAndUser retrieves a user's active registration for
	// an event (nil when none)
	GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error)
	// ListExpiredCheckouts retrieves preliminary registrations whose
	// checkout window has lapsed
	ListExpiredCheckouts(ctx context.Context, limit int) ([]*domain.Registration, error)
}
