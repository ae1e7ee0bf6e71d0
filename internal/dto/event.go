package dto

import (
	"time"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// EventResponse represents an event
type EventResponse struct {
	ID              string    `json:"id"`
	OrganizerID     string    `json:"organizer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Capacity        int       `json:"capacity"`
	RegisteredCount int       `json:"registered_count"`
	SpotsLeft       int       `json:"spots_left"`
	AdultPrice      float64   `json:"adult_price"`
	ChildPrice      float64   `json:"child_price"`
	Currency        string    `json:"currency"`
	IsFree          bool      `json:"is_free"`
	Status          string    `json:"status"`
	WaitingListSize int       `json:"waiting_list_size"`
}

// FromEvent converts a domain Event to EventResponse
func FromEvent(event *domain.Event) *EventResponse {
	spotsLeft := event.Capacity - event.RegisteredCount
	if spotsLeft < 0 {
		spotsLeft = 0
	}
	return &EventResponse{
		ID:              event.ID,
		OrganizerID:     event.OrganizerID,
		Title:           event.Title,
		Description:     event.Description,
		Location:        event.Location,
		StartsAt:        event.StartsAt,
		EndsAt:          event.EndsAt,
		Capacity:        event.Capacity,
		RegisteredCount: event.RegisteredCount,
		SpotsLeft:       spotsLeft,
		AdultPrice:      event.AdultPrice,
		ChildPrice:      event.ChildPrice,
		Currency:        event.Currency,
		IsFree:          event.IsFree(),
		Status:          event.Status,
		WaitingListSize: len(event.WaitingList),
	}
}

// WaitingListEntryResponse represents a waiting list entry
type WaitingListEntryResponse struct {
	UserID   string `json:"user_id"`
	Position int    `json:"position"`
}

// PromoteRequest represents an organizer's request to promote a user off
// the waiting list into a confirmed registration
type PromoteRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	AttendeeName string `json:"attendee_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
}
