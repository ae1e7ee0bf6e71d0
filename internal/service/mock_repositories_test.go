package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/gateway"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
)

// ErrMockFailure is returned when a mock is configured to fail
var ErrMockFailure = errors.New("mock failure")

// MockRegistrationRepository is an in-memory RegistrationRepository
type MockRegistrationRepository struct {
	mu            sync.RWMutex
	registrations map[string]*domain.Registration
	FailWith      error
	UpdateCalls   int
}

func NewMockRegistrationRepository() *MockRegistrationRepository {
	return &MockRegistrationRepository{registrations: make(map[string]*domain.Registration)}
}

func (m *MockRegistrationRepository) Put(reg *domain.Registration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *reg
	m.registrations[reg.ID] = &copied
}

func (m *MockRegistrationRepository) Stored(id string) *domain.Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registrations[id]
}

func (m *MockRegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Put(reg)
	return nil
}

func (m *MockRegistrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.registrations[id]
	if !ok {
		return nil, nil
	}
	copied := *reg
	return &copied, nil
}

func (m *MockRegistrationRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Registration, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, reg := range m.registrations {
		if reg.StripePaymentIntentID != nil && *reg.StripePaymentIntentID == paymentIntentID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockRegistrationRepository) Update(ctx context.Context, reg *domain.Registration) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	stored, ok := m.registrations[reg.ID]
	if !ok || stored.Version != reg.Version {
		return repository.ErrConcurrentModification
	}
	copied := *reg
	copied.Version++
	m.registrations[reg.ID] = &copied
	reg.Version++
	return nil
}

func (m *MockRegistrationRepository) ListByEvent(ctx context.Context, eventID string, page, limit int) ([]*domain.Registration, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Registration, 0)
	for _, reg := range m.registrations {
		if reg.EventID == eventID {
			copied := *reg
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (m *MockRegistrationRepository) HasActiveForUser(ctx context.Context, eventID, userID string) (bool, error) {
	reg, err := m.GetActiveByEventAndUser(ctx, eventID, userID)
	return reg != nil, err
}

func (m *MockRegistrationRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, reg := range m.registrations {
		if reg.EventID == eventID && reg.UserID != nil && *reg.UserID == userID && reg.IsActive() {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockRegistrationRepository) ListExpiredCheckouts(ctx context.Context, limit int) ([]*domain.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	out := make([]*domain.Registration, 0)
	for _, reg := range m.registrations {
		if reg.Status == domain.RegistrationStatusPreliminary && reg.CheckoutExpired(now) {
			copied := *reg
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MockEventRepository is an in-memory EventRepository
type MockEventRepository struct {
	mu       sync.RWMutex
	events   map[string]*domain.Event
	waitlist map[string][]domain.WaitingListEntry
	FailWith error
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{
		events:   make(map[string]*domain.Event),
		waitlist: make(map[string][]domain.WaitingListEntry),
	}
}

func (m *MockEventRepository) Put(event *domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *event
	m.events[event.ID] = &copied
}

func (m *MockEventRepository) Stored(id string) *domain.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events[id]
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (m *MockEventRepository) GetByIDWithWaitingList(ctx context.Context, id string) (*domain.Event, error) {
	event, err := m.GetByID(ctx, id)
	if err != nil || event == nil {
		return event, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	event.WaitingList = append([]domain.WaitingListEntry(nil), m.waitlist[id]...)
	return event, nil
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	m.Put(event)
	return nil
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	m.Put(event)
	return nil
}

func (m *MockEventRepository) ReserveCapacity(ctx context.Context, eventID string, n int) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok || event.RegisteredCount+n > event.Capacity {
		return domain.ErrNoCapacity
	}
	event.RegisteredCount += n
	return nil
}

func (m *MockEventRepository) ReleaseCapacity(ctx context.Context, eventID string, n int) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok || event.RegisteredCount-n < 0 {
		return repository.ErrCapacityGuardFailed
	}
	event.RegisteredCount -= n
	return nil
}

// AddWaitingListEntry assigns the next position the way the SQL insert
// does, ignoring whatever the caller computed.
func (m *MockEventRepository) AddWaitingListEntry(ctx context.Context, entry *domain.WaitingListEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, e := range m.waitlist[entry.EventID] {
		if e.Position > max {
			max = e.Position
		}
	}
	entry.Position = max + 1
	m.waitlist[entry.EventID] = append(m.waitlist[entry.EventID], *entry)
	return nil
}

func (m *MockEventRepository) RemoveWaitingListEntry(ctx context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.waitlist[eventID]
	idx := -1
	for i, e := range entries {
		if e.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.ErrNotOnWaitingList
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	for i := range entries {
		entries[i].Position = i + 1
	}
	m.waitlist[eventID] = entries
	return nil
}

func (m *MockEventRepository) GetWaitingListEntry(ctx context.Context, eventID, userID string) (*domain.WaitingListEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.waitlist[eventID] {
		if e.UserID == userID {
			copied := e
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockEventRepository) NextInLine(ctx context.Context, eventID string) (*domain.WaitingListEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.waitlist[eventID]
	if len(entries) == 0 {
		return nil, nil
	}
	copied := entries[0]
	return &copied, nil
}

// MockSignUpRepository is an in-memory SignUpRepository
type MockSignUpRepository struct {
	mu          sync.RWMutex
	items       map[string]*domain.SignUpItem
	commitments map[string]*domain.Commitment
	lists       map[string]*domain.SignUpList
	FailWith    error
}

func NewMockSignUpRepository() *MockSignUpRepository {
	return &MockSignUpRepository{
		items:       make(map[string]*domain.SignUpItem),
		commitments: make(map[string]*domain.Commitment),
		lists:       make(map[string]*domain.SignUpList),
	}
}

func (m *MockSignUpRepository) PutItem(item *domain.SignUpItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items[item.ID] = &copied
}

func (m *MockSignUpRepository) StoredItem(id string) *domain.SignUpItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id]
}

func (m *MockSignUpRepository) CreateList(ctx context.Context, list *domain.SignUpList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *list
	m.lists[list.ID] = &copied
	return nil
}

func (m *MockSignUpRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.SignUpList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SignUpList, 0)
	for _, list := range m.lists {
		if list.EventID == eventID {
			copied := *list
			for _, item := range m.items {
				if item.ListID == list.ID {
					copied.Items = append(copied.Items, *item)
				}
			}
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockSignUpRepository) CreateItem(ctx context.Context, item *domain.SignUpItem) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.PutItem(item)
	return nil
}

func (m *MockSignUpRepository) GetItemByID(ctx context.Context, id string) (*domain.SignUpItem, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *MockSignUpRepository) GetItemForUpdate(ctx context.Context, id string) (*domain.SignUpItem, error) {
	return m.GetItemByID(ctx, id)
}

func (m *MockSignUpRepository) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MockSignUpRepository) CreateCommitment(ctx context.Context, c *domain.Commitment) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[c.ItemID]
	if !ok || item.CommittedQuantity+c.Quantity > item.RequestedQuantity {
		return domain.ErrCapacityExceeded
	}
	item.CommittedQuantity += c.Quantity
	copied := *c
	m.commitments[c.ID] = &copied
	return nil
}

func (m *MockSignUpRepository) GetCommitment(ctx context.Context, id string) (*domain.Commitment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.commitments[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *MockSignUpRepository) DeleteCommitment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commitments[id]
	if !ok {
		return domain.ErrCommitmentNotFound
	}
	if item, ok := m.items[c.ItemID]; ok {
		item.CommittedQuantity -= c.Quantity
	}
	delete(m.commitments, id)
	return nil
}

// MockOutboxRepository records enqueued events in memory
type MockOutboxRepository struct {
	mu       sync.RWMutex
	Enqueued []*repository.OutboxEvent
	FailWith error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, evt *repository.OutboxEvent) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Enqueued = append(m.Enqueued, evt)
	return nil
}

func (m *MockOutboxRepository) FetchPending(ctx context.Context, limit, maxRetries int, baseDelay time.Duration) ([]*repository.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*repository.OutboxEvent, 0)
	for _, evt := range m.Enqueued {
		if evt.Status == repository.OutboxStatusPending {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkProcessed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.Enqueued {
		if evt.ID == id {
			evt.Status = repository.OutboxStatusProcessed
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkAttemptFailed(ctx context.Context, id string, maxRetries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.Enqueued {
		if evt.ID == id {
			evt.RetryCount++
			if evt.RetryCount >= maxRetries {
				evt.Status = repository.OutboxStatusFailed
			}
		}
	}
	return nil
}

// MockWebhookLedger is an in-memory WebhookEventRepository
type MockWebhookLedger struct {
	mu         sync.RWMutex
	events     map[string]*repository.WebhookEvent
	FailWith   error
	MarkFailed error
}

func NewMockWebhookLedger() *MockWebhookLedger {
	return &MockWebhookLedger{events: make(map[string]*repository.WebhookEvent)}
}

func (m *MockWebhookLedger) Record(ctx context.Context, stripeEventID, eventType string) (*repository.WebhookEvent, bool, error) {
	if m.FailWith != nil {
		return nil, false, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.events[stripeEventID]; ok {
		copied := *existing
		return &copied, true, nil
	}
	evt := &repository.WebhookEvent{StripeEventID: stripeEventID, EventType: eventType, ReceivedAt: time.Now()}
	m.events[stripeEventID] = evt
	copied := *evt
	return &copied, false, nil
}

func (m *MockWebhookLedger) MarkProcessed(ctx context.Context, stripeEventID string) error {
	if m.MarkFailed != nil {
		return m.MarkFailed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	evt, ok := m.events[stripeEventID]
	if !ok {
		return errors.New("webhook event not found")
	}
	now := time.Now()
	evt.ProcessedAt = &now
	return nil
}

func (m *MockWebhookLedger) IsProcessed(stripeEventID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evt, ok := m.events[stripeEventID]
	return ok && evt.ProcessedAt != nil
}

// MockPaymentGateway is a configurable PaymentGateway
type MockPaymentGateway struct {
	WebhookEvent    *gateway.WebhookEvent
	ParseErr        error
	Session         *gateway.CheckoutSessionResponse
	SessionErr      error
	RefundID        string
	RefundErr       error
	SessionRequests []*gateway.CheckoutSessionRequest
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, req *gateway.CheckoutSessionRequest) (*gateway.CheckoutSessionResponse, error) {
	m.SessionRequests = append(m.SessionRequests, req)
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	if m.Session != nil {
		return m.Session, nil
	}
	return &gateway.CheckoutSessionResponse{SessionID: "cs_mock", URL: "https://checkout.stripe.com/mock"}, nil
}

func (m *MockPaymentGateway) ParseWebhookEvent(payload []byte, signature string) (*gateway.WebhookEvent, error) {
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	return m.WebhookEvent, nil
}

func (m *MockPaymentGateway) Refund(ctx context.Context, paymentIntentID string) (string, error) {
	if m.RefundErr != nil {
		return "", m.RefundErr
	}
	return m.RefundID, nil
}

func (m *MockPaymentGateway) Name() string { return "mock" }

// MockUnitOfWork runs the callback against shared in-memory repositories.
// Rollback is not simulated; tests assert on observable state instead.
type MockUnitOfWork struct {
	Repos       *repository.TxRepositories
	FailWith    error
	CommitCalls int
}

func NewMockUnitOfWork(regs *MockRegistrationRepository, events *MockEventRepository, signups *MockSignUpRepository, outbox *MockOutboxRepository) *MockUnitOfWork {
	return &MockUnitOfWork{
		Repos: &repository.TxRepositories{
			Registrations: regs,
			Events:        events,
			SignUps:       signups,
			Outbox:        outbox,
		},
	}
}

func (m *MockUnitOfWork) Commit(ctx context.Context, fn func(ctx context.Context, repos *repository.TxRepositories) error) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.CommitCalls++
	return fn(ctx, m.Repos)
}
