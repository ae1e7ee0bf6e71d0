package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
)

type signUpFixture struct {
	signups *MockSignUpRepository
	service SignUpService
}

func newSignUpFixture() *signUpFixture {
	signups := NewMockSignUpRepository()
	uow := NewMockUnitOfWork(NewMockRegistrationRepository(), NewMockEventRepository(), signups, NewMockOutboxRepository())
	return &signUpFixture{
		signups: signups,
		service: NewSignUpService(signups, uow),
	}
}

func (f *signUpFixture) seedItem(t *testing.T, category string, requested int, createdBy *string) *domain.SignUpItem {
	t.Helper()
	item, err := domain.NewSignUpItem("list-1", "Rice and curry trays", category, requested, createdBy)
	require.NoError(t, err)
	f.signups.PutItem(item)
	return item
}

func TestSignUpCreateItem(t *testing.T) {
	f := newSignUpFixture()

	resp, err := f.service.CreateItem(context.Background(), nil, &dto.CreateSignUpItemRequest{
		ListID:            "list-1",
		Description:       "Paper plates",
		Category:          domain.SignUpCategoryPreferred,
		RequestedQuantity: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "Paper plates", resp.Description)
	assert.Equal(t, 50, resp.RemainingQuantity)
	assert.NotNil(t, f.signups.StoredItem(resp.ID))
}

func TestSignUpCreateItem_OpenRequiresCreator(t *testing.T) {
	f := newSignUpFixture()

	_, err := f.service.CreateItem(context.Background(), nil, &dto.CreateSignUpItemRequest{
		ListID:            "list-1",
		Description:       "Homemade kokis",
		Category:          domain.SignUpCategoryOpen,
		RequestedQuantity: 5,
	})
	assert.Error(t, err)
}

func TestSignUpCommit(t *testing.T) {
	f := newSignUpFixture()
	item := f.seedItem(t, domain.SignUpCategoryMandatory, 10, nil)
	userID := "user-1"

	c, err := f.service.Commit(context.Background(), item.ID, &userID, &dto.CommitRequest{Quantity: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, c.Quantity)
	assert.Equal(t, 4, f.signups.StoredItem(item.ID).CommittedQuantity)
}

func TestSignUpCommit_AnonymousByEmail(t *testing.T) {
	f := newSignUpFixture()
	item := f.seedItem(t, domain.SignUpCategorySuggested, 10, nil)

	c, err := f.service.Commit(context.Background(), item.ID, nil, &dto.CommitRequest{
		Quantity:     2,
		ContactEmail: "guest@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", c.ContactEmail)
}

func TestSignUpCommit_ExceedsRequested(t *testing.T) {
	f := newSignUpFixture()
	item := f.seedItem(t, domain.SignUpCategoryMandatory, 10, nil)
	userID := "user-1"

	_, err := f.service.Commit(context.Background(), item.ID, &userID, &dto.CommitRequest{Quantity: 8})
	require.NoError(t, err)

	_, err = f.service.Commit(context.Background(), item.ID, &userID, &dto.CommitRequest{Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 8, f.signups.StoredItem(item.ID).CommittedQuantity)
}

func TestSignUpCommit_ItemNotFound(t *testing.T) {
	f := newSignUpFixture()
	userID := "user-1"

	_, err := f.service.Commit(context.Background(), "missing", &userID, &dto.CommitRequest{Quantity: 1})
	assert.ErrorIs(t, err, ErrSignUpItemNotFound)
}

func TestSignUpCommit_NoCommitterIdentity(t *testing.T) {
	f := newSignUpFixture()
	item := f.seedItem(t, domain.SignUpCategoryMandatory, 10, nil)

	_, err := f.service.Commit(context.Background(), item.ID, nil, &dto.CommitRequest{Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrCommitterRequired)
}

func TestSignUpUncommit(t *testing.T) {
	f := newSignUpFixture()
	item := f.seedItem(t, domain.SignUpCategoryMandatory, 10, nil)
	userID := "user-1"

	c, err := f.service.Commit(context.Background(), item.ID, &userID, &dto.CommitRequest{Quantity: 4})
	require.NoError(t, err)

	require.NoError(t, f.service.Uncommit(context.Background(), c.ID, userID))
	assert.Equal(t, 0, f.signups.StoredItem(item.ID).CommittedQuantity)
}

func TestSignUpUncommit_OtherUsersCommitment(t *testing.T) {
	f := newSignUpFixture()
	item := f.seedItem(t, domain.SignUpCategoryMandatory, 10, nil)
	userID := "user-1"

	c, err := f.service.Commit(context.Background(), item.ID, &userID, &dto.CommitRequest{Quantity: 4})
	require.NoError(t, err)

	err = f.service.Uncommit(context.Background(), c.ID, "user-2")
	assert.ErrorIs(t, err, ErrCommitmentNotOwned)
}

func TestSignUpUncommit_NotFound(t *testing.T) {
	f := newSignUpFixture()

	err := f.service.Uncommit(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, domain.ErrCommitmentNotFound)
}

func TestSignUpDeleteItem_OpenOnlyByCreator(t *testing.T) {
	f := newSignUpFixture()
	creator := "user-1"
	item := f.seedItem(t, domain.SignUpCategoryOpen, 5, &creator)

	err := f.service.DeleteItem(context.Background(), item.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrNotItemCreator)

	require.NoError(t, f.service.DeleteItem(context.Background(), item.ID, creator))
	assert.Nil(t, f.signups.StoredItem(item.ID))
}

func TestSignUpListByEvent(t *testing.T) {
	f := newSignUpFixture()
	list := &domain.SignUpList{ID: "list-1", EventID: "event-1", Title: "Food"}
	require.NoError(t, f.signups.CreateList(context.Background(), list))
	f.seedItem(t, domain.SignUpCategoryMandatory, 10, nil)

	lists, err := f.service.ListByEvent(context.Background(), "event-1")
	require.NoError(t, err)

	require.Len(t, lists, 1)
	assert.Equal(t, "Food", lists[0].Title)
	require.Len(t, lists[0].Items, 1)
	assert.Equal(t, 10, lists[0].Items[0].RemainingQuantity)
}
