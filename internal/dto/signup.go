package dto

import (
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// CreateSignUpItemRequest represents a request to add an item to a list
type CreateSignUpItemRequest struct {
	ListID            string `json:"list_id" binding:"required,uuid"`
	Description       string `json:"description" binding:"required"`
	Category          string `json:"category" binding:"required,oneof=mandatory preferred suggested open"`
	RequestedQuantity int    `json:"requested_quantity" binding:"required,gt=0"`
}

// CommitRequest represents a request to commit quantity to an item
type CommitRequest struct {
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	ContactEmail string `json:"contact_email,omitempty" binding:"omitempty,email"`
	Note         string `json:"note,omitempty"`
}

// SignUpItemResponse represents a sign-up item with its commitments
type SignUpItemResponse struct {
	ID                string              `json:"id"`
	ListID            string              `json:"list_id"`
	Description       string              `json:"description"`
	Category          string              `json:"category"`
	RequestedQuantity int                 `json:"requested_quantity"`
	CommittedQuantity int                 `json:"committed_quantity"`
	RemainingQuantity int                 `json:"remaining_quantity"`
	Commitments       []domain.Commitment `json:"commitments,omitempty"`
}

// FromSignUpItem converts a domain SignUpItem to SignUpItemResponse
func FromSignUpItem(item *domain.SignUpItem) *SignUpItemResponse {
	return &SignUpItemResponse{
		ID:                item.ID,
		ListID:            item.ListID,
		Description:       item.Description,
		Category:          item.Category,
		RequestedQuantity: item.RequestedQuantity,
		CommittedQuantity: item.CommittedQuantity,
		RemainingQuantity: item.RemainingQuantity(),
		Commitments:       item.Commitments,
	}
}

// SignUpListResponse represents a sign-up list with its items
type SignUpListResponse struct {
	ID    string                `json:"id"`
	Title string                `json:"title"`
	Items []*SignUpItemResponse `json:"items"`
}

// FromSignUpList converts a domain SignUpList to SignUpListResponse
func FromSignUpList(list *domain.SignUpList) *SignUpListResponse {
	items := make([]*SignUpItemResponse, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, FromSignUpItem(&list.Items[i]))
	}
	return &SignUpListResponse{
		ID:    list.ID,
		Title: list.Title,
		Items: items,
	}
}
