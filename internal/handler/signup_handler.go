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

// SignUpHandler handles sign-up list HTTP requests
type SignUpHandler struct {
	signUpService service.SignUpService
}

// NewSignUpHandler creates a new SignUpHandler
func NewSignUpHandler(signUpService service.SignUpService) *SignUpHandler {
	return &SignUpHandler{
		signUpService: signUpService,
	}
}

// ListByEvent handles GET /events/:id/signup-lists
func (h *SignUpHandler) ListByEvent(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	lists, err := h.signUpService.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to list sign-up lists"))
		return
	}

	c.JSON(http.StatusOK, response.Success(lists))
}

// CreateItem handles POST /signup-items
func (h *SignUpHandler) CreateItem(c *gin.Context) {
	var req dto.CreateSignUpItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	var userID *string
	if id, ok := middleware.GetUserID(c); ok && id != "" {
		userID = &id
	}

	item, err := h.signUpService.CreateItem(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, response.BadRequest("Quantity must be positive"))
		default:
			c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(item))
}

// DeleteItem handles DELETE /signup-items/:id
func (h *SignUpHandler) DeleteItem(c *gin.Context) {
	itemID := c.Param("id")

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	if err := h.signUpService.DeleteItem(c.Request.Context(), itemID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrSignUpItemNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Sign-up item not found"))
		case errors.Is(err, domain.ErrNotItemCreator):
			c.JSON(http.StatusForbidden, response.Forbidden("Only the item creator may remove it"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to delete sign-up item"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"deleted": true}))
}

// Commit handles POST /signup-items/:id/commitments
func (h *SignUpHandler) Commit(c *gin.Context) {
	itemID := c.Param("id")

	var req dto.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	var userID *string
	if id, ok := middleware.GetUserID(c); ok && id != "" {
		userID = &id
	}

	commitment, err := h.signUpService.Commit(c.Request.Context(), itemID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSignUpItemNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Sign-up item not found"))
		case errors.Is(err, domain.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, response.Error(response.ErrCodeCapacityExceeded, "Commitment exceeds the remaining quantity"))
		case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrCommitterRequired):
			c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to commit"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.Success(commitment))
}

// Uncommit handles DELETE /commitments/:id
func (h *SignUpHandler) Uncommit(c *gin.Context) {
	commitmentID := c.Param("id")

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	if err := h.signUpService.Uncommit(c.Request.Context(), commitmentID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrCommitmentNotFound):
			c.JSON(http.StatusNotFound, response.NotFound("Commitment not found"))
		case errors.Is(err, service.ErrCommitmentNotOwned):
			c.JSON(http.StatusForbidden, response.Forbidden("Commitment belongs to another user"))
		default:
			c.JSON(http.StatusInternalServerError, response.InternalError("Failed to remove commitment"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"removed": true}))
}
