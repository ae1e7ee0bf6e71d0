package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/events"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

type eventFixture struct {
	eventsRepo    *MockEventRepository
	registrations *MockRegistrationRepository
	uow           *MockUnitOfWork
	service       EventService
}

func newEventFixture() *eventFixture {
	eventsRepo := NewMockEventRepository()
	regs := NewMockRegistrationRepository()
	uow := NewMockUnitOfWork(regs, eventsRepo, NewMockSignUpRepository(), NewMockOutboxRepository())
	return &eventFixture{
		eventsRepo:    eventsRepo,
		registrations: regs,
		uow:           uow,
		service:       NewEventService(eventsRepo, regs, uow, nil, 0, logger.Get()),
	}
}

func (f *eventFixture) outbox() *MockOutboxRepository {
	return f.uow.Repos.Outbox.(*MockOutboxRepository)
}

func (f *eventFixture) seedEvent(id string, capacity, registered int, adultPrice float64) {
	f.eventsRepo.Put(&domain.Event{
		ID:              id,
		Title:           "Melbourne Vesak Dansala",
		Capacity:        capacity,
		RegisteredCount: registered,
		AdultPrice:      adultPrice,
		ChildPrice:      adultPrice / 2,
		Currency:        "AUD",
		Status:          domain.EventStatusPublished,
	})
}

func registerRequest(names ...string) *dto.RegisterRequest {
	req := &dto.RegisterRequest{ContactEmail: "contact@example.com"}
	for _, name := range names {
		req.Attendees = append(req.Attendees, dto.AttendeeRequest{Name: name, Age: 30})
	}
	return req
}

func TestRegister_PaidEvent(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 25.00)
	userID := "user-1"

	resp, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("Nimal Perera", "Kamala Perera"))
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationStatusPreliminary, resp.Status)
	assert.Equal(t, domain.PaymentStatusPending, resp.PaymentStatus)
	assert.Equal(t, 50.00, resp.TotalAmount)
	assert.Equal(t, 2, f.eventsRepo.Stored("event-1").RegisteredCount)
}

func TestRegister_FreeEventConfirmsImmediately(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 0)
	userID := "user-1"

	resp, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("Nimal Perera"))
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationStatusConfirmed, resp.Status)
	assert.Equal(t, domain.PaymentStatusNotRequired, resp.PaymentStatus)
	assert.Equal(t, 0.0, resp.TotalAmount)
}

func TestRegister_ChildPricing(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 20.00)
	userID := "user-1"

	req := &dto.RegisterRequest{
		ContactEmail: "contact@example.com",
		Attendees: []dto.AttendeeRequest{
			{Name: "Kumari Silva", Age: 35},
			{Name: "Sahan Silva", Age: 8},
		},
	}
	resp, err := f.service.Register(context.Background(), "event-1", &userID, req)
	require.NoError(t, err)

	assert.Equal(t, 30.00, resp.TotalAmount)
}

func TestRegister_NoCapacity(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 10, 9, 25.00)
	userID := "user-1"

	_, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("A", "B"))
	assert.ErrorIs(t, err, domain.ErrNoCapacity)
	assert.Equal(t, 9, f.eventsRepo.Stored("event-1").RegisteredCount)
}

func TestRegister_EventNotPublished(t *testing.T) {
	f := newEventFixture()
	f.eventsRepo.Put(&domain.Event{ID: "event-1", Capacity: 100, Status: domain.EventStatusDraft})
	userID := "user-1"

	_, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("A"))
	assert.ErrorIs(t, err, domain.ErrEventNotPublished)
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 25.00)
	userID := "user-1"

	_, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("A"))
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), "event-1", &userID, registerRequest("A"))
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestRegister_AnonymousGuest(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 0)

	resp, err := f.service.Register(context.Background(), "event-1", nil, registerRequest("Guest"))
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusConfirmed, resp.Status)
}

func TestRegister_EventNotFound(t *testing.T) {
	f := newEventFixture()
	userID := "user-1"

	_, err := f.service.Register(context.Background(), "missing", &userID, registerRequest("A"))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCancelRegistration(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 0)
	userID := "user-1"
	_, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("A"))
	require.NoError(t, err)

	require.NoError(t, f.service.CancelRegistration(context.Background(), "event-1", userID))

	assert.Equal(t, 0, f.eventsRepo.Stored("event-1").RegisteredCount)
	assert.Empty(t, f.outbox().Enqueued)
}

func TestCancelRegistration_FullEventNotifiesWaitingList(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 1, 0, 0)
	userID := "user-1"
	_, err := f.service.Register(context.Background(), "event-1", &userID, registerRequest("A"))
	require.NoError(t, err)

	waiting := &domain.WaitingListEntry{ID: "wl-1", EventID: "event-1", UserID: "user-2", Position: 1}
	require.NoError(t, f.eventsRepo.AddWaitingListEntry(context.Background(), waiting))

	require.NoError(t, f.service.CancelRegistration(context.Background(), "event-1", userID))

	require.Len(t, f.outbox().Enqueued, 1)
	row := f.outbox().Enqueued[0]
	assert.Equal(t, events.TopicWaitingListAvailable, row.Topic)
	assert.Equal(t, "event-1", row.PartitionKey)
}

func TestCancelRegistration_NotRegistered(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 0, 0)

	err := f.service.CancelRegistration(context.Background(), "event-1", "user-1")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestJoinWaitingList(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 1, 1, 0)

	entry, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	require.NoError(t, err)

	assert.Equal(t, "user-2", entry.UserID)
	assert.Equal(t, 1, entry.Position)

	second, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-3")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position)
}

func TestJoinWaitingList_NotAtCapacity(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 10, 5, 0)

	_, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	assert.ErrorIs(t, err, domain.ErrNotAtCapacity)
}

func TestJoinWaitingList_Duplicate(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 1, 1, 0)

	_, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	require.NoError(t, err)

	_, err = f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	assert.ErrorIs(t, err, domain.ErrAlreadyOnWaitingList)
}

func TestLeaveWaitingList_Resequences(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 1, 1, 0)

	_, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	require.NoError(t, err)
	_, err = f.service.JoinWaitingList(context.Background(), "event-1", "user-3")
	require.NoError(t, err)

	require.NoError(t, f.service.LeaveWaitingList(context.Background(), "event-1", "user-2"))

	next, err := f.eventsRepo.NextInLine(context.Background(), "event-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "user-3", next.UserID)
	assert.Equal(t, 1, next.Position)
}

func TestLeaveWaitingList_NotOnList(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 1, 1, 0)

	err := f.service.LeaveWaitingList(context.Background(), "event-1", "user-9")
	assert.ErrorIs(t, err, domain.ErrNotOnWaitingList)
}

func TestPromoteFromWaitingList(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 2, 2, 25.00)

	_, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	require.NoError(t, err)

	// a cancellation freed one spot
	require.NoError(t, f.eventsRepo.ReleaseCapacity(context.Background(), "event-1", 1))

	resp, err := f.service.PromoteFromWaitingList(context.Background(), "event-1", &dto.PromoteRequest{
		UserID:       "user-2",
		AttendeeName: "Ruwan Fernando",
		ContactEmail: "ruwan@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationStatusConfirmed, resp.Status)
	assert.Equal(t, domain.PaymentStatusNotRequired, resp.PaymentStatus)
	assert.Equal(t, 2, f.eventsRepo.Stored("event-1").RegisteredCount)

	entry, err := f.eventsRepo.GetWaitingListEntry(context.Background(), "event-1", "user-2")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPromoteFromWaitingList_NotOnList(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 2, 1, 25.00)

	_, err := f.service.PromoteFromWaitingList(context.Background(), "event-1", &dto.PromoteRequest{
		UserID:       "user-9",
		AttendeeName: "Nobody",
		ContactEmail: "nobody@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrNotOnWaitingList)
}

func TestPromoteFromWaitingList_StillFull(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 2, 2, 25.00)

	_, err := f.service.JoinWaitingList(context.Background(), "event-1", "user-2")
	require.NoError(t, err)

	_, err = f.service.PromoteFromWaitingList(context.Background(), "event-1", &dto.PromoteRequest{
		UserID:       "user-2",
		AttendeeName: "Ruwan Fernando",
		ContactEmail: "ruwan@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrNoCapacity)

	// the entry survives a failed promotion
	entry, gerr := f.eventsRepo.GetWaitingListEntry(context.Background(), "event-1", "user-2")
	require.NoError(t, gerr)
	assert.NotNil(t, entry)
}

func TestGetEvent_NotFound(t *testing.T) {
	f := newEventFixture()

	_, err := f.service.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetEvent(t *testing.T) {
	f := newEventFixture()
	f.seedEvent("event-1", 100, 40, 25.00)

	resp, err := f.service.GetEvent(context.Background(), "event-1")
	require.NoError(t, err)

	assert.Equal(t, "event-1", resp.ID)
	assert.Equal(t, 60, resp.SpotsLeft)
	assert.False(t, resp.IsFree)
}

func TestNewEventService_CacheTTL(t *testing.T) {
	defaulted := NewEventService(nil, nil, nil, nil, 0, logger.Get())
	assert.Equal(t, defaultEventCacheTTL, defaulted.(*eventService).cacheTTL)

	tuned := NewEventService(nil, nil, nil, nil, 30*time.Second, logger.Get())
	assert.Equal(t, 30*time.Second, tuned.(*eventService).cacheTTL)
}
