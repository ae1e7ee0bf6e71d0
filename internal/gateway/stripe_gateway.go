package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/config"
)

// checkoutSessionTTL matches the registration's checkout window ceiling
// on the Stripe side; Stripe caps sessions at 24h anyway.
const checkoutSessionTTL = 24 * time.Hour

// StripeGateway implements PaymentGateway using the Stripe API
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeGateway creates a new StripeGateway
func NewStripeGateway(cfg *config.StripeConfig) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// CreateCheckoutSession creates a hosted checkout session in payment mode.
// Registration and event ids travel as metadata on both the session and
// its payment intent so webhook deliveries can reconcile either object.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(toSmallestUnit(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.EventTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(fmt.Sprintf("%s?registrationId=%s", g.successURL, req.RegistrationID)),
		CancelURL:         stripe.String(g.cancelURL),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		ExpiresAt:         stripe.Int64(time.Now().Add(checkoutSessionTTL).Unix()),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{},
	}
	params.Context = ctx
	params.AddMetadata(MetadataKeyRegistrationID, req.RegistrationID)
	params.AddMetadata(MetadataKeyEventID, req.EventID)
	params.PaymentIntentData.AddMetadata(MetadataKeyRegistrationID, req.RegistrationID)
	params.PaymentIntentData.AddMetadata(MetadataKeyEventID, req.EventID)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSessionResponse{
		SessionID: s.ID,
		URL:       s.URL,
	}, nil
}

// ParseWebhookEvent verifies the signature and normalizes the delivery
func (g *StripeGateway) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	normalized := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch normalized.Type {
	case EventTypeCheckoutCompleted, EventTypeCheckoutExpired:
		var checkoutSession stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
			return nil, fmt.Errorf("parse checkout session payload: %w", err)
		}
		normalized.CheckoutSessionID = checkoutSession.ID
		normalized.RegistrationID = checkoutSession.Metadata[MetadataKeyRegistrationID]
		normalized.EventID = checkoutSession.Metadata[MetadataKeyEventID]
		if checkoutSession.PaymentIntent != nil {
			normalized.PaymentIntentID = checkoutSession.PaymentIntent.ID
		}
	case EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("parse charge payload: %w", err)
		}
		if charge.PaymentIntent != nil {
			normalized.PaymentIntentID = charge.PaymentIntent.ID
		}
		if charge.Refunds != nil && len(charge.Refunds.Data) > 0 {
			normalized.RefundID = charge.Refunds.Data[0].ID
		}
	}

	return normalized, nil
}

// Refund refunds the full charge behind a payment intent
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("create refund: %w", err)
	}
	return r.ID, nil
}

// toSmallestUnit converts a decimal amount to the currency's smallest unit
func toSmallestUnit(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
