package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sign-up list errors
var (
	ErrCapacityExceeded   = errors.New("commitment exceeds requested quantity")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrCommitmentNotFound = errors.New("commitment not found")
	ErrNotItemCreator     = errors.New("only the item creator may modify it")
	ErrCommitterRequired  = errors.New("commitment requires a user id or contact email")
)

// SignUpCategory constants
const (
	SignUpCategoryMandatory = "mandatory"
	SignUpCategoryPreferred = "preferred"
	SignUpCategorySuggested = "suggested"
	SignUpCategoryOpen      = "open"
)

// SignUpList groups the items attendees can bring or do for an event.
type SignUpList struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	Title     string       `json:"title"`
	Items     []SignUpItem `json:"items,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SignUpItem is one thing to bring or do, with a requested quantity that
// commitments draw down. Open-category items are created by attendees
// themselves and only their creator may edit or cancel them.
type SignUpItem struct {
	ID                string       `json:"id"`
	ListID            string       `json:"list_id"`
	Description       string       `json:"description"`
	Category          string       `json:"category"`
	RequestedQuantity int          `json:"requested_quantity"`
	CommittedQuantity int          `json:"committed_quantity"`
	CreatedByUserID   *string      `json:"created_by_user_id,omitempty"`
	Commitments       []Commitment `json:"commitments,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Commitment records who is bringing how much of an item. Anonymous
// committers are identified by contact email instead of a user id.
type Commitment struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	UserID       *string   `json:"user_id,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Quantity     int       `json:"quantity"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSignUpItem creates an item on a list. createdBy is required for
// open-category items.
func NewSignUpItem(listID, description, category string, requestedQuantity int, createdBy *string) (*SignUpItem, error) {
	if description == "" {
		return nil, errors.New("item description is required")
	}
	if requestedQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if category == SignUpCategoryOpen && createdBy == nil {
		return nil, errors.New("open items require a creator")
	}

	now := time.Now().UTC()
	return &SignUpItem{
		ID:                uuid.New().String(),
		ListID:            listID,
		Description:       description,
		Category:          category,
		RequestedQuantity: requestedQuantity,
		CreatedByUserID:   createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// RemainingQuantity returns how much of the item is still uncommitted.
func (i *SignUpItem) RemainingQuantity() int {
	return i.RequestedQuantity - i.CommittedQuantity
}

// Commit records a commitment against the item. Fails with
// ErrCapacityExceeded when the committed total would exceed the request.
func (i *SignUpItem) Commit(userID *string, contactEmail string, quantity int, note string) (*Commitment, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if userID == nil && contactEmail == "" {
		return nil, ErrCommitterRequired
	}
	if i.CommittedQuantity+quantity > i.RequestedQuantity {
		return nil, ErrCapacityExceeded
	}

	c := Commitment{
		ID:           uuid.New().String(),
		ItemID:       i.ID,
		UserID:       userID,
		ContactEmail: contactEmail,
		Quantity:     quantity,
		Note:         note,
		CreatedAt:    time.Now().UTC(),
	}
	i.Commitments = append(i.Commitments, c)
	i.CommittedQuantity += quantity
	i.UpdatedAt = c.CreatedAt
	return &c, nil
}

// Uncommit removes a commitment and restores its quantity.
func (i *SignUpItem) Uncommit(commitmentID string) error {
	idx := -1
	for j, c := range i.Commitments {
		if c.ID == commitmentID {
			idx = j
			break
		}
	}
	if idx == -1 {
		return ErrCommitmentNotFound
	}

	i.CommittedQuantity -= i.Commitments[idx].Quantity
	i.Commitments = append(i.Commitments[:idx], i.Commitments[idx+1:]...)
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// CanModify reports whether a user may edit or cancel the item. Organizer
// categories are open to the organizer; open items only to their creator.
func (i *SignUpItem) CanModify(userID string) bool {
	if i.Category != SignUpCategoryOpen {
		return true
	}
	return i.CreatedByUserID != nil && *i.CreatedByUserID == userID
}
