package domain

import (
	"errors"
	"testing"
	"time"
)

func newPublishedEvent(capacity, registered int) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:              "event-123",
		OrganizerID:     "organizer-123",
		Title:           "Community Dinner",
		Capacity:        capacity,
		RegisteredCount: registered,
		AdultPrice:      25.00,
		ChildPrice:      10.00,
		Currency:        "AUD",
		Status:          EventStatusPublished,
		StartsAt:        now.Add(7 * 24 * time.Hour),
		EndsAt:          now.Add(7*24*time.Hour + 3*time.Hour),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestEvent_Capacity(t *testing.T) {
	event := newPublishedEvent(10, 8)

	if event.IsAtCapacity() {
		t.Error("Event with 8/10 registered should not be at capacity")
	}
	if !event.HasCapacityFor(2) {
		t.Error("Expected capacity for 2 more attendees")
	}
	if event.HasCapacityFor(3) {
		t.Error("Expected no capacity for 3 more attendees")
	}

	event.RegisteredCount = 10
	if !event.IsAtCapacity() {
		t.Error("Event with 10/10 registered should be at capacity")
	}
}

func TestEvent_PriceFor(t *testing.T) {
	event := newPublishedEvent(10, 0)

	tests := []struct {
		name      string
		attendees []Attendee
		want      float64
	}{
		{
			name:      "single adult",
			attendees: []Attendee{{Name: "A", Age: 30}},
			want:      25.00,
		},
		{
			name:      "adult and child",
			attendees: []Attendee{{Name: "A", Age: 30}, {Name: "B", Age: 8}},
			want:      35.00,
		},
		{
			name:      "child age boundary",
			attendees: []Attendee{{Name: "A", Age: 12}, {Name: "B", Age: 11}},
			want:      35.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := event.PriceFor(tt.attendees)
			if got != tt.want {
				t.Errorf("PriceFor() = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestEvent_IsFree(t *testing.T) {
	event := newPublishedEvent(10, 0)
	if event.IsFree() {
		t.Error("Priced event should not be free")
	}

	event.AdultPrice = 0
	event.ChildPrice = 0
	if !event.IsFree() {
		t.Error("Zero-priced event should be free")
	}
}

func TestEvent_AddToWaitingList(t *testing.T) {
	event := newPublishedEvent(2, 2)

	entry, err := event.AddToWaitingList("user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entry.Position != 1 {
		t.Errorf("Expected position 1, got %d", entry.Position)
	}

	entry2, err := event.AddToWaitingList("user-2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entry2.Position != 2 {
		t.Errorf("Expected position 2, got %d", entry2.Position)
	}

	// Duplicate entry rejected
	_, err = event.AddToWaitingList("user-1")
	if !errors.Is(err, ErrAlreadyOnWaitingList) {
		t.Errorf("Expected ErrAlreadyOnWaitingList, got %v", err)
	}
}

func TestEvent_AddToWaitingList_NotAtCapacity(t *testing.T) {
	event := newPublishedEvent(10, 5)

	_, err := event.AddToWaitingList("user-1")
	if !errors.Is(err, ErrNotAtCapacity) {
		t.Errorf("Expected ErrNotAtCapacity, got %v", err)
	}
}

func TestEvent_AddToWaitingList_Unpublished(t *testing.T) {
	event := newPublishedEvent(2, 2)
	event.Status = EventStatusDraft

	_, err := event.AddToWaitingList("user-1")
	if !errors.Is(err, ErrEventNotPublished) {
		t.Errorf("Expected ErrEventNotPublished, got %v", err)
	}
}

func TestEvent_RemoveFromWaitingList(t *testing.T) {
	event := newPublishedEvent(2, 2)
	event.AddToWaitingList("user-1")
	event.AddToWaitingList("user-2")
	event.AddToWaitingList("user-3")

	err := event.RemoveFromWaitingList("user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(event.WaitingList) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(event.WaitingList))
	}

	// Positions resequence from 1
	for i, entry := range event.WaitingList {
		if entry.Position != i+1 {
			t.Errorf("Expected position %d, got %d", i+1, entry.Position)
		}
	}
	if event.WaitingList[0].UserID != "user-2" {
		t.Errorf("Expected user-2 first, got %s", event.WaitingList[0].UserID)
	}

	err = event.RemoveFromWaitingList("user-unknown")
	if !errors.Is(err, ErrNotOnWaitingList) {
		t.Errorf("Expected ErrNotOnWaitingList, got %v", err)
	}
}

func TestEvent_NextInLine(t *testing.T) {
	event := newPublishedEvent(2, 2)

	if event.NextInLine() != nil {
		t.Error("Expected nil for empty waiting list")
	}

	event.AddToWaitingList("user-1")
	event.AddToWaitingList("user-2")

	next := event.NextInLine()
	if next == nil || next.UserID != "user-1" {
		t.Errorf("Expected user-1 next in line, got %v", next)
	}

	event.RemoveFromWaitingList("user-1")
	next = event.NextInLine()
	if next == nil || next.UserID != "user-2" {
		t.Errorf("Expected user-2 next in line, got %v", next)
	}
}
