package repository

import (
	"context"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// EventRepository defines the interface for event and waiting list data access
type EventRepository interface {
	// GetByID retrieves an event by ID without its waiting list (nil when not found)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// GetByIDWithWaitingList retrieves an event with its active waiting
	// list entries ordered by position
	GetByIDWithWaitingList(ctx context.Context, id string) (*domain.Event, error)
	// Create persists a new event
	Create(ctx context.Context, event *domain.Event) error
	// Update persists event field changes (not counters)
	Update(ctx context.Context, event *domain.Event) error
	// ReserveCapacity atomically adds n to the registered count, failing
	// with domain.ErrNoCapacity when the capacity would be exceeded
	ReserveCapacity(ctx context.Context, eventID string, n int) error
	// ReleaseCapacity atomically subtracts n from the registered count,
	// never dropping below zero
	ReleaseCapacity(ctx context.Context, eventID string, n int) error
	// AddWaitingListEntry persists a waiting list entry
	AddWaitingListEntry(ctx context.Context, entry *domain.WaitingListEntry) error
	// RemoveWaitingListEntry removes a user's entry and resequences the
	// remaining positions; returns domain.ErrNotOnWaitingList when absent
	RemoveWaitingListEntry(ctx context.Context, eventID, userID string) error
	// GetWaitingListEntry retrieves a user's entry (nil when absent)
	GetWaitingListEntry(ctx context.Context, eventID, userID string) (*domain.WaitingListEntry, error)
	// NextInLine retrieves the earliest waiting list entry (nil when empty)
	NextInLine(ctx context.Context, eventID string) (*domain.WaitingListEntry, error)
}
