package repository

import (
	"context"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// SignUpRepository defines the interface for sign-up list data access
type SignUpRepository interface {
	// CreateList persists a new sign-up list
	CreateList(ctx context.Context, list *domain.SignUpList) error
	// ListByEvent retrieves an event's sign-up lists with items and commitments
	ListByEvent(ctx context.Context, eventID string) ([]*domain.SignUpList, error)
	// CreateItem persists a new sign-up item
	CreateItem(ctx context.Context, item *domain.SignUpItem) error
	// GetItemByID retrieves an item with its commitments (nil when not found)
	GetItemByID(ctx context.Context, id string) (*domain.SignUpItem, error)
	// GetItemForUpdate retrieves an item row-locked for the current transaction
	GetItemForUpdate(ctx context.Context, id string) (*domain.SignUpItem, error)
	// DeleteItem removes an item and its commitments
	DeleteItem(ctx context.Context, id string) error
	// CreateCommitment persists a commitment and adds its quantity to the
	// item's committed total, failing with domain.ErrCapacityExceeded when
	// the requested quantity would be exceeded
	CreateCommitment(ctx context.Context, c *domain.Commitment) error
	// GetCommitment retrieves a commitment by ID (nil when not found)
	GetCommitment(ctx context.Context, id string) (*domain.Commitment, error)
	// DeleteCommitment removes a commitment and restores its quantity
	DeleteCommitment(ctx context.Context, id string) error
}
