package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/service"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/middleware"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/response"
)

// EventHandler handles event, registration, and waiting list HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to get event"))
		return
	}

	c.JSON(http.StatusOK, response.Success(event))
}

// Register handles POST /events/:id/registrations. Anonymous guests may
// register for free events; the JWT is optional on this route.
func (h *EventHandler) Register(c *gin.Context) {
	eventID := c.Param("id")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	var userID *string
	if id, ok := middleware.GetUserID(c); ok && id != "" {
		userID = &id
	}

	reg, err := h.eventService.Register(c.Request.Context(), eventID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		case errors.Is(err, domain.ErrEventNotPublished):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Event is not open for registration"))
		case errors.Is(err, domain.ErrNoCapacity):
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeNoCapacity, "Event is at capacity"))
		case errors.Is(err, domain.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeAlreadyRegistered, "Already registered for this event"))
		case errors.Is(err, domain.ErrNoAttendees), errors.Is(err, domain.ErrTooManyAttendees), errors.Is(err, domain.ErrContactRequired):
			c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to register"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(reg))
}

// CancelRegistration handles DELETE /events/:id/registrations
func (h *EventHandler) CancelRegistration(c *gin.Context) {
	eventID := c.Param("id")

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	if err := h.eventService.CancelRegistration(c.Request.Context(), eventID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("No active registration for this event"))
		case errors.Is(err, service.ErrEventNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		case errors.Is(err, domain.ErrInvalidRegistrationState):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Registration cannot be cancelled in its current state"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to cancel registration"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"cancelled": true}))
}

// JoinWaitingList handles POST /events/:id/waiting-list
func (h *EventHandler) JoinWaitingList(c *gin.Context) {
	eventID := c.Param("id")

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	entry, err := h.eventService.JoinWaitingList(c.Request.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Event not found"))
		case errors.Is(err, domain.ErrNotAtCapacity):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Event still has capacity, register directly"))
		case errors.Is(err, domain.ErrAlreadyOnWaitingList):
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeDuplicateEntry, "Already on the waiting list"))
		case errors.Is(err, domain.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeAlreadyRegistered, "Already registered for this event"))
		case errors.Is(err, domain.ErrEventNotPublished):
			c.JSON(http.StatusBadRequest, response.Error(response.ErrCodeInvalidState, "Event is not open for registration"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to join waiting list"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(entry))
}

// LeaveWaitingList handles DELETE /events/:id/waiting-list
func (h *EventHandler) LeaveWaitingList(c *gin.Context) {
	eventID := c.Param("id")

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	if err := h.eventService.LeaveWaitingList(c.Request.Context(), eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotOnWaitingList) {
			c.JSON(http.StatusNotFound, response.Error(response.ErrCodeNotOnWaitingList, "Not on the waiting list"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to leave waiting list"))
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"removed": true}))
}

// PromoteFromWaitingList handles POST /events/:id/waiting-list/promote (organizer/admin)
func (h *EventHandler) PromoteFromWaitingList(c *gin.Context) {
	eventID := c.Param("id")

	var req dto.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	reg, err := h.eventService.PromoteFromWaitingList(c.Request.Context(), eventID, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotOnWaitingList):
			c.JSON(http.StatusNotFound, response.Error(response.ErrCodeNotOnWaitingList, "User is not on the waiting list"))
		case errors.Is(err, domain.ErrNoCapacity):
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeNoCapacity, "Event is still at capacity"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to promote from waiting list"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(reg))
}
