package domain

import (
	"errors"
	"testing"
)

func TestNewSignUpItem(t *testing.T) {
	creator := "user-123"

	tests := []struct {
		name        string
		description string
		category    string
		quantity    int
		createdBy   *string
		wantErr     bool
	}{
		{
			name:        "valid mandatory item",
			description: "Rice (5kg bags)",
			category:    SignUpCategoryMandatory,
			quantity:    4,
		},
		{
			name:        "valid open item with creator",
			description: "Homemade dessert",
			category:    SignUpCategoryOpen,
			quantity:    2,
			createdBy:   &creator,
		},
		{
			name:        "open item without creator",
			description: "Homemade dessert",
			category:    SignUpCategoryOpen,
			quantity:    2,
			wantErr:     true,
		},
		{
			name:     "missing description",
			category: SignUpCategoryPreferred,
			quantity: 1,
			wantErr:  true,
		},
		{
			name:        "zero quantity",
			description: "Napkins",
			category:    SignUpCategorySuggested,
			quantity:    0,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewSignUpItem("list-123", tt.description, tt.category, tt.quantity, tt.createdBy)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if item.ID == "" {
				t.Error("Expected item ID to be set")
			}
			if item.RemainingQuantity() != tt.quantity {
				t.Errorf("Expected remaining %d, got %d", tt.quantity, item.RemainingQuantity())
			}
		})
	}
}

func TestSignUpItem_Commit(t *testing.T) {
	userID := "user-123"
	item, _ := NewSignUpItem("list-123", "Rice (5kg bags)", SignUpCategoryMandatory, 4, nil)

	c, err := item.Commit(&userID, "", 3, "will bring jasmine rice")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", c.Quantity)
	}
	if item.CommittedQuantity != 3 {
		t.Errorf("Expected committed 3, got %d", item.CommittedQuantity)
	}
	if item.RemainingQuantity() != 1 {
		t.Errorf("Expected remaining 1, got %d", item.RemainingQuantity())
	}

	// Exceeding the request fails and changes nothing
	_, err = item.Commit(&userID, "", 2, "")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}
	if item.CommittedQuantity != 3 {
		t.Errorf("Expected committed unchanged at 3, got %d", item.CommittedQuantity)
	}

	// Filling exactly to the request succeeds
	_, err = item.Commit(nil, "anon@example.com", 1, "")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if item.RemainingQuantity() != 0 {
		t.Errorf("Expected remaining 0, got %d", item.RemainingQuantity())
	}
}

func TestSignUpItem_Commit_Validation(t *testing.T) {
	item, _ := NewSignUpItem("list-123", "Rice", SignUpCategoryMandatory, 4, nil)

	_, err := item.Commit(nil, "", 1, "")
	if !errors.Is(err, ErrCommitterRequired) {
		t.Errorf("Expected ErrCommitterRequired, got %v", err)
	}

	userID := "user-123"
	_, err = item.Commit(&userID, "", 0, "")
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("Expected ErrInvalidQuantity, got %v", err)
	}
}

func TestSignUpItem_Uncommit(t *testing.T) {
	userID := "user-123"
	item, _ := NewSignUpItem("list-123", "Rice", SignUpCategoryMandatory, 4, nil)

	c, _ := item.Commit(&userID, "", 3, "")

	err := item.Uncommit(c.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item.CommittedQuantity != 0 {
		t.Errorf("Expected committed 0 after uncommit, got %d", item.CommittedQuantity)
	}
	if item.RemainingQuantity() != 4 {
		t.Errorf("Expected remaining 4, got %d", item.RemainingQuantity())
	}

	err = item.Uncommit("missing")
	if !errors.Is(err, ErrCommitmentNotFound) {
		t.Errorf("Expected ErrCommitmentNotFound, got %v", err)
	}
}

func TestSignUpItem_CanModify(t *testing.T) {
	creator := "user-123"

	organizerItem, _ := NewSignUpItem("list-123", "Rice", SignUpCategoryMandatory, 4, nil)
	if !organizerItem.CanModify("anyone") {
		t.Error("Organizer-category items are not creator-restricted")
	}

	openItem, _ := NewSignUpItem("list-123", "Dessert", SignUpCategoryOpen, 2, &creator)
	if !openItem.CanModify(creator) {
		t.Error("Creator should be able to modify their open item")
	}
	if openItem.CanModify("someone-else") {
		t.Error("Non-creator should not be able to modify an open item")
	}
}
