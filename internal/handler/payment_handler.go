package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/gateway"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/service"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/response"
)

// PaymentHandler handles Stripe webhook deliveries and checkout sessions
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// HandleWebhook handles POST /payments/webhook. A 200 tells Stripe the
// delivery is settled; any 5xx makes Stripe redeliver.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Failed to read request body"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidSignature, "Missing Stripe-Signature header"))
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidSignature, "Webhook signature verification failed"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to process webhook"))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"received": true}))
}

// CreateCheckoutSession handles POST /payments/checkout-session
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	session, err := h.paymentService.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Registration not found"))
		case errors.Is(err, domain.ErrInvalidRegistrationState):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Registration is not awaiting payment"))
		case errors.Is(err, service.ErrRegistrationNotPriced):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Registration has nothing to pay"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to create checkout session"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(session))
}
