package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/service"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/response"
)

// AdminHandler handles admin recovery endpoints
type AdminHandler struct {
	recoveryService service.RecoveryService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(recoveryService service.RecoveryService) *AdminHandler {
	return &AdminHandler{
		recoveryService: recoveryService,
	}
}

// TriggerPaymentEvent handles POST /admin/recovery/trigger-payment-event.
// It re-emits the payment-completed event for a registration whose payment
// already settled but whose downstream dispatch was lost.
func (h *AdminHandler) TriggerPaymentEvent(c *gin.Context) {
	var req dto.TriggerPaymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	if err := h.recoveryService.TriggerPaymentEvent(c.Request.Context(), req.RegistrationID); err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Registration not found"))
		case errors.Is(err, domain.ErrInvalidRegistrationState):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Registration has no completed payment to re-emit"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to trigger payment event"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"registration_id": req.RegistrationID, "triggered": true}))
}
