package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// PostgresRegistrationRepository implements RegistrationRepository using PostgreSQL
type PostgresRegistrationRepository struct {
	db DB
}

// NewPostgresRegistrationRepository creates a new PostgresRegistrationRepository
func NewPostgresRegistrationRepository(db DB) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{db: db}
}

const registrationColumns = `
	id, event_id, user_id, attendees, contact_email, COALESCE(contact_phone, '') as contact_phone,
	total_amount, currency, status, payment_status,
	stripe_checkout_session_id, stripe_payment_intent_id, stripe_refund_id,
	checkout_session_expires_at, abandoned_at, refund_requested_at, refunded_at,
	version, created_at, updated_at
`

// Create persists a new registration
func (r *PostgresRegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	attendees, err := json.Marshal(reg.Attendees)
	if err != nil {
		return fmt.Errorf("marshal attendees: %w", err)
	}

	query := `
		INSERT INTO registrations (
			id, event_id, user_id, attendees, contact_email, contact_phone,
			total_amount, currency, status, payment_status,
			stripe_checkout_session_id, stripe_payment_intent_id, stripe_refund_id,
			checkout_session_expires_at, abandoned_at, refund_requested_at, refunded_at,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = r.db.Exec(ctx, query,
		reg.ID,
		reg.EventID,
		reg.UserID,
		attendees,
		reg.ContactEmail,
		nullStringOrValue(reg.ContactPhone),
		reg.TotalAmount,
		reg.Currency,
		reg.Status,
		reg.PaymentStatus,
		reg.StripeCheckoutSessionID,
		reg.StripePaymentIntentID,
		reg.StripeRefundID,
		reg.CheckoutSessionExpiresAt,
		reg.AbandonedAt,
		reg.RefundRequestedAt,
		reg.RefundedAt,
		reg.Version,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByID retrieves a registration by ID
func (r *PostgresRegistrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE id = $1`, registrationColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByPaymentIntentID retrieves a registration by its Stripe payment intent
func (r *PostgresRegistrationRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE stripe_payment_intent_id = $1`, registrationColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, paymentIntentID))
}

// Update persists changes asserting the loaded version. The version the
// caller read must still be current; otherwise another writer won and the
// caller gets ErrConcurrentModification.
func (r *PostgresRegistrationRepository) Update(ctx context.Context, reg *domain.Registration) error {
	attendees, err := json.Marshal(reg.Attendees)
	if err != nil {
		return fmt.Errorf("marshal attendees: %w", err)
	}

	query := `
		UPDATE registrations
		SET attendees = $3, contact_email = $4, contact_phone = $5,
		    status = $6, payment_status = $7,
		    stripe_checkout_session_id = $8, stripe_payment_intent_id = $9, stripe_refund_id = $10,
		    checkout_session_expires_at = $11, abandoned_at = $12,
		    refund_requested_at = $13, refunded_at = $14,
		    version = version + 1, updated_at = $15
		WHERE id = $1 AND version = $2
	`
	reg.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(ctx, query,
		reg.ID,
		reg.Version,
		attendees,
		reg.ContactEmail,
		nullStringOrValue(reg.ContactPhone),
		reg.Status,
		reg.PaymentStatus,
		reg.StripeCheckoutSessionID,
		reg.StripePaymentIntentID,
		reg.StripeRefundID,
		reg.CheckoutSessionExpiresAt,
		reg.AbandonedAt,
		reg.RefundRequestedAt,
		reg.RefundedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrConcurrentModification
	}
	reg.Version++
	return nil
}

// ListByEvent retrieves registrations for an event with pagination
func (r *PostgresRegistrationRepository) ListByEvent(ctx context.Context, eventID string, page, limit int) ([]*domain.Registration, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM registrations
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, registrationColumns)

	rows, err := r.db.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		registrations = append(registrations, reg)
	}
	return registrations, total, nil
}

// HasActiveForUser reports whether a user holds an active registration for an event
func (r *PostgresRegistrationRepository) HasActiveForUser(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND user_id = $2
			  AND status IN ($3, $4, $5, $6, $7)
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, eventID, userID,
		domain.RegistrationStatusPreliminary,
		domain.RegistrationStatusConfirmed,
		domain.RegistrationStatusRefundRequested,
		domain.RegistrationStatusCheckedIn,
		domain.RegistrationStatusAttended,
	).Scan(&exists)
	return exists, err
}

// GetActiveByEventAndUser retrieves a user's active registration for an event
func (r *PostgresRegistrationRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM registrations
		WHERE event_id = $1 AND user_id = $2
		  AND status IN ($3, $4, $5, $6, $7)
		ORDER BY created_at DESC
		LIMIT 1
	`, registrationColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, eventID, userID,
		domain.RegistrationStatusPreliminary,
		domain.RegistrationStatusConfirmed,
		domain.RegistrationStatusRefundRequested,
		domain.RegistrationStatusCheckedIn,
		domain.RegistrationStatusAttended,
	))
}

// ListExpiredCheckouts retrieves preliminary registrations whose checkout window has lapsed
func (r *PostgresRegistrationRepository) ListExpiredCheckouts(ctx context.Context, limit int) ([]*domain.Registration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM registrations
		WHERE status = $1 AND payment_status = $2
		  AND checkout_session_expires_at IS NOT NULL
		  AND checkout_session_expires_at < now()
		ORDER BY checkout_session_expires_at
		LIMIT $3
	`, registrationColumns)

	rows, err := r.db.Query(ctx, query,
		domain.RegistrationStatusPreliminary,
		domain.PaymentStatusPending,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired checkouts: %w", err)
	}
	defer rows.Close()

	registrations := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}
	return registrations, nil
}

func (r *PostgresRegistrationRepository) scanOne(row pgx.Row) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var attendees []byte

	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&attendees,
		&reg.ContactEmail,
		&reg.ContactPhone,
		&reg.TotalAmount,
		&reg.Currency,
		&reg.Status,
		&reg.PaymentStatus,
		&reg.StripeCheckoutSessionID,
		&reg.StripePaymentIntentID,
		&reg.StripeRefundID,
		&reg.CheckoutSessionExpiresAt,
		&reg.AbandonedAt,
		&reg.RefundRequestedAt,
		&reg.RefundedAt,
		&reg.Version,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	if err := json.Unmarshal(attendees, &reg.Attendees); err != nil {
		return nil, fmt.Errorf("unmarshal attendees: %w", err)
	}
	return reg, nil
}

// nullStringOrValue returns nil for empty strings, otherwise returns the value
func nullStringOrValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
