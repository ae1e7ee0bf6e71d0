package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/gateway"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

var (
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrRegistrationNotPriced = errors.New("registration has nothing to pay")
)

// PaymentService reconciles Stripe webhook deliveries against the
// registration aggregate and creates checkout sessions.
type PaymentService interface {
	// HandleWebhook verifies, deduplicates, and processes one webhook
	// delivery. gateway.ErrInvalidSignature means reject with 400; any
	// other error means 500 so Stripe redelivers.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	// CreateCheckoutSession starts Stripe checkout for a preliminary registration
	CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
}

type paymentService struct {
	registrations repository.RegistrationRepository
	eventsRepo    repository.EventRepository
	ledger        repository.WebhookEventRepository
	uow           repository.UnitOfWork
	gateway       gateway.PaymentGateway
	log           *logger.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	registrations repository.RegistrationRepository,
	eventsRepo repository.EventRepository,
	ledger repository.WebhookEventRepository,
	uow repository.UnitOfWork,
	gw gateway.PaymentGateway,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		registrations: registrations,
		eventsRepo:    eventsRepo,
		ledger:        ledger,
		uow:           uow,
		gateway:       gw,
		log:           log,
	}
}

// HandleWebhook implements the idempotent reconciliation flow: verify the
// signature, consult the ledger, apply side effects in one unit of work,
// then stamp the ledger row processed.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ParseWebhookEvent(payload, signature)
	if err != nil {
		return err
	}

	existing, alreadyKnown, err := s.ledger.Record(ctx, evt.ID, evt.Type)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if alreadyKnown && existing.Processed() {
		s.log.InfoContext(ctx, "webhook event already processed, acknowledging",
			zap.String("stripe_event_id", evt.ID),
			zap.String("event_type", evt.Type))
		return nil
	}

	switch evt.Type {
	case gateway.EventTypeCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, evt)
	case gateway.EventTypeCheckoutExpired:
		err = s.handleCheckoutExpired(ctx, evt)
	case gateway.EventTypeChargeRefunded:
		err = s.handleChargeRefunded(ctx, evt)
	default:
		s.log.InfoContext(ctx, "ignoring unhandled webhook event type",
			zap.String("stripe_event_id", evt.ID),
			zap.String("event_type", evt.Type))
	}
	if err != nil {
		return err
	}

	if err := s.ledger.MarkProcessed(ctx, evt.ID); err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	return nil
}

func (s *paymentService) handleCheckoutCompleted(ctx context.Context, evt *gateway.WebhookEvent) error {
	if evt.RegistrationID == "" || evt.EventID == "" {
		s.log.WarnContext(ctx, "checkout.session.completed without registration metadata, acknowledging",
			zap.String("stripe_event_id", evt.ID),
			zap.String("checkout_session_id", evt.CheckoutSessionID))
		return nil
	}

	return s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		reg, err := repos.Registrations.GetByID(ctx, evt.RegistrationID)
		if err != nil {
			return err
		}
		if reg == nil {
			s.log.WarnContext(ctx, "registration from webhook metadata not found, acknowledging",
				zap.String("stripe_event_id", evt.ID),
				zap.String("registration_id", evt.RegistrationID))
			return nil
		}
		if reg.EventID != evt.EventID {
			s.log.ErrorContext(ctx, "webhook metadata event id does not match registration, acknowledging",
				zap.String("stripe_event_id", evt.ID),
				zap.String("registration_id", reg.ID),
				zap.String("metadata_event_id", evt.EventID),
				zap.String("registration_event_id", reg.EventID))
			return nil
		}

		if err := reg.CompletePayment(evt.PaymentIntentID); err != nil {
			if errors.Is(err, domain.ErrPaymentAlreadyCompleted) {
				s.log.WarnContext(ctx, "payment already completed, acknowledging",
					zap.String("stripe_event_id", evt.ID),
					zap.String("registration_id", reg.ID))
				return nil
			}
			s.log.WarnContext(ctx, "registration cannot complete payment, acknowledging",
				zap.String("stripe_event_id", evt.ID),
				zap.String("registration_id", reg.ID),
				zap.String("status", reg.Status),
				zap.Error(err))
			return nil
		}

		if err := repos.Registrations.Update(ctx, reg); err != nil {
			return err
		}
		return enqueueDomainEvents(ctx, repos.Outbox, reg)
	})
}

func (s *paymentService) handleCheckoutExpired(ctx context.Context, evt *gateway.WebhookEvent) error {
	if evt.RegistrationID == "" {
		s.log.WarnContext(ctx, "checkout.session.expired without registration metadata, acknowledging",
			zap.String("stripe_event_id", evt.ID))
		return nil
	}

	return s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		reg, err := repos.Registrations.GetByID(ctx, evt.RegistrationID)
		if err != nil {
			return err
		}
		if reg == nil {
			s.log.WarnContext(ctx, "registration for expired checkout not found, acknowledging",
				zap.String("stripe_event_id", evt.ID),
				zap.String("registration_id", evt.RegistrationID))
			return nil
		}

		if err := reg.MarkAbandoned(); err != nil {
			s.log.InfoContext(ctx, "registration no longer pending, ignoring expired checkout",
				zap.String("stripe_event_id", evt.ID),
				zap.String("registration_id", reg.ID),
				zap.String("status", reg.Status))
			return nil
		}

		if err := repos.Registrations.Update(ctx, reg); err != nil {
			return err
		}
		return repos.Events.ReleaseCapacity(ctx, reg.EventID, reg.AttendeeCount())
	})
}

func (s *paymentService) handleChargeRefunded(ctx context.Context, evt *gateway.WebhookEvent) error {
	if evt.PaymentIntentID == "" || evt.RefundID == "" {
		s.log.WarnContext(ctx, "charge.refunded without payment intent or refund id, acknowledging",
			zap.String("stripe_event_id", evt.ID))
		return nil
	}

	return s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		reg, err := repos.Registrations.GetByPaymentIntentID(ctx, evt.PaymentIntentID)
		if err != nil {
			return err
		}
		if reg == nil {
			s.log.WarnContext(ctx, "no registration for refunded charge, acknowledging",
				zap.String("stripe_event_id", evt.ID),
				zap.String("payment_intent_id", evt.PaymentIntentID))
			return nil
		}

		if err := reg.CompleteRefund(evt.RefundID); err != nil {
			s.log.WarnContext(ctx, "registration cannot complete refund, acknowledging",
				zap.String("stripe_event_id", evt.ID),
				zap.String("registration_id", reg.ID),
				zap.String("status", reg.Status),
				zap.Error(err))
			return nil
		}

		if err := repos.Registrations.Update(ctx, reg); err != nil {
			return err
		}
		if err := repos.Events.ReleaseCapacity(ctx, reg.EventID, reg.AttendeeCount()); err != nil {
			return err
		}
		return enqueueDomainEvents(ctx, repos.Outbox, reg)
	})
}

// CreateCheckoutSession starts Stripe checkout for a preliminary registration
func (s *paymentService) CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	reg, err := s.registrations.GetByID(ctx, req.RegistrationID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrRegistrationNotFound
	}
	if reg.Status != domain.RegistrationStatusPreliminary || reg.PaymentStatus != domain.PaymentStatusPending {
		return nil, domain.ErrInvalidRegistrationState
	}
	if reg.TotalAmount <= 0 {
		return nil, ErrRegistrationNotPriced
	}

	event, err := s.eventsRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &gateway.CheckoutSessionRequest{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		EventTitle:     event.Title,
		Amount:         reg.TotalAmount,
		Currency:       reg.Currency,
		CustomerEmail:  reg.ContactEmail,
	})
	if err != nil {
		return nil, err
	}

	if err := reg.SetCheckoutSession(session.SessionID); err != nil {
		return nil, err
	}
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, err
	}

	return &dto.CheckoutSessionResponse{
		SessionID:   session.SessionID,
		CheckoutURL: session.URL,
	}, nil
}

// enqueueDomainEvents drains an aggregate's queued events into the outbox
// within the current transaction.
func enqueueDomainEvents(ctx context.Context, outbox repository.OutboxRepository, reg *domain.Registration) error {
	for _, evt := range reg.PullEvents() {
		row, err := repository.NewOutboxEvent(evt)
		if err != nil {
			return err
		}
		if err := outbox.Enqueue(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
