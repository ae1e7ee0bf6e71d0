package dto

// CreateCheckoutSessionRequest represents a request to start checkout for
// a preliminary registration
type CreateCheckoutSessionRequest struct {
	RegistrationID string `json:"registration_id" binding:"required,uuid"`
}

// CheckoutSessionResponse represents a created checkout session
type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// TriggerPaymentEventRequest represents an admin request to re-emit the
// payment-completed event for a registration
type TriggerPaymentEventRequest struct {
	RegistrationID string `json:"registration_id" binding:"required,uuid"`
}
