package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event and waiting list errors
var (
	ErrEventNotPublished    = errors.New("event is not published")
	ErrNoCapacity           = errors.New("event has no remaining capacity")
	ErrNotAtCapacity        = errors.New("event is not at capacity")
	ErrAlreadyOnWaitingList = errors.New("user already has an active waiting list entry")
	ErrNotOnWaitingList     = errors.New("user is not on the waiting list")
	ErrAlreadyRegistered    = errors.New("user already has an active registration")
)

// EventStatus constants
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// ChildAgeLimit is the age below which the child price applies.
const ChildAgeLimit = 12

// Event represents a community event with limited capacity, optional
// per-attendee pricing, and a waiting list for when it fills up.
type Event struct {
	ID              string    `json:"id"`
	OrganizerID     string    `json:"organizer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Capacity        int       `json:"capacity"`
	RegisteredCount int       `json:"registered_count"`
	AdultPrice      float64   `json:"adult_price"`
	ChildPrice      float64   `json:"child_price"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// WaitingList holds active entries ordered by position when loaded.
	WaitingList []WaitingListEntry `json:"waiting_list,omitempty"`
}

// WaitingListEntry is one user's place in an event's waiting list.
// Positions are 1-based insertion order.
type WaitingListEntry struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// IsFree reports whether the event charges nothing for any attendee.
func (e *Event) IsFree() bool {
	return e.AdultPrice == 0 && e.ChildPrice == 0
}

// IsPublished reports whether the event accepts registrations.
func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// IsAtCapacity reports whether active registrations have consumed all spots.
func (e *Event) IsAtCapacity() bool {
	return e.RegisteredCount >= e.Capacity
}

// HasCapacityFor reports whether n more attendees fit.
func (e *Event) HasCapacityFor(n int) bool {
	return e.RegisteredCount+n <= e.Capacity
}

// PriceFor returns the total price for a group of attendees. Attendees
// under the child age limit pay the child price.
func (e *Event) PriceFor(attendees []Attendee) float64 {
	var total float64
	for _, a := range attendees {
		if a.Age < ChildAgeLimit {
			total += e.ChildPrice
		} else {
			total += e.AdultPrice
		}
	}
	return total
}

// AddToWaitingList appends a user to the waiting list. Only allowed when
// the event is at capacity, and each user may hold at most one entry.
// The position is provisional; the store assigns the final one.
func (e *Event) AddToWaitingList(userID string) (*WaitingListEntry, error) {
	if !e.IsPublished() {
		return nil, ErrEventNotPublished
	}
	if !e.IsAtCapacity() {
		return nil, ErrNotAtCapacity
	}
	for _, entry := range e.WaitingList {
		if entry.UserID == userID {
			return nil, ErrAlreadyOnWaitingList
		}
	}

	entry := WaitingListEntry{
		ID:        uuid.New().String(),
		EventID:   e.ID,
		UserID:    userID,
		Position:  len(e.WaitingList) + 1,
		CreatedAt: time.Now().UTC(),
	}
	e.WaitingList = append(e.WaitingList, entry)
	return &entry, nil
}

// RemoveFromWaitingList drops a user's entry and resequences the
// remaining positions so they stay contiguous from 1.
func (e *Event) RemoveFromWaitingList(userID string) error {
	idx := -1
	for i, entry := range e.WaitingList {
		if entry.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotOnWaitingList
	}

	e.WaitingList = append(e.WaitingList[:idx], e.WaitingList[idx+1:]...)
	for i := range e.WaitingList {
		e.WaitingList[i].Position = i + 1
	}
	return nil
}

// NextInLine returns the earliest waiting list entry, or nil when empty.
func (e *Event) NextInLine() *WaitingListEntry {
	if len(e.WaitingList) == 0 {
		return nil
	}
	next := e.WaitingList[0]
	for _, entry := range e.WaitingList[1:] {
		if entry.Position < next.Position {
			next = entry
		}
	}
	return &next
}
