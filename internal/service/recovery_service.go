package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/events"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

// RecoveryService is the manual escape hatch for "payment committed,
// dispatch lost": it re-emits the payment-completed event for a
// registration whose payment already reconciled.
type RecoveryService interface {
	// TriggerPaymentEvent rebuilds the payment-completed event from the
	// registration's current state and enqueues it to the outbox,
	// bypassing the webhook ledger and the aggregate transition.
	TriggerPaymentEvent(ctx context.Context, registrationID string) error
}

type recoveryService struct {
	registrations repository.RegistrationRepository
	uow           repository.UnitOfWork
	log           *logger.Logger
}

// NewRecoveryService creates a new RecoveryService
func NewRecoveryService(registrations repository.RegistrationRepository, uow repository.UnitOfWork, log *logger.Logger) RecoveryService {
	return &recoveryService{
		registrations: registrations,
		uow:           uow,
		log:           log,
	}
}

// TriggerPaymentEvent implements RecoveryService
func (s *recoveryService) TriggerPaymentEvent(ctx context.Context, registrationID string) error {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil {
		return ErrRegistrationNotFound
	}
	if reg.Status != domain.RegistrationStatusConfirmed || reg.PaymentStatus != domain.PaymentStatusCompleted {
		return domain.ErrInvalidRegistrationState
	}

	userID := ""
	if reg.UserID != nil {
		userID = *reg.UserID
	}
	intentID := ""
	if reg.StripePaymentIntentID != nil {
		intentID = *reg.StripePaymentIntentID
	}

	evt := &events.PaymentCompletedEvent{
		RegistrationID:        reg.ID,
		EventID:               reg.EventID,
		UserID:                userID,
		ContactEmail:          reg.ContactEmail,
		StripePaymentIntentID: intentID,
		Amount:                reg.TotalAmount,
		Currency:              reg.Currency,
		AttendeeCount:         reg.AttendeeCount(),
		Timestamp:             time.Now().UTC(),
	}

	err = s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		row, err := repository.NewOutboxEvent(evt)
		if err != nil {
			return err
		}
		return repos.Outbox.Enqueue(ctx, row)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "payment event re-emitted by admin recovery",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", reg.EventID))
	return nil
}
