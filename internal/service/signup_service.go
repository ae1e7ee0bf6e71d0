package service

import (
	"context"
	"errors"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
)

var (
	ErrSignUpItemNotFound = errors.New("sign-up item not found")
	ErrCommitmentNotOwned = errors.New("commitment belongs to another user")
)

// SignUpService owns sign-up lists, items, and quantity commitments.
type SignUpService interface {
	// ListByEvent retrieves an event's sign-up lists with items and commitments
	ListByEvent(ctx context.Context, eventID string) ([]*dto.SignUpListResponse, error)
	// CreateItem adds an item to a list; open-category items record their creator
	CreateItem(ctx context.Context, userID *string, req *dto.CreateSignUpItemRequest) (*dto.SignUpItemResponse, error)
	// DeleteItem removes an item; open items only by their creator
	DeleteItem(ctx context.Context, itemID, userID string) error
	// Commit records a quantity commitment against an item
	Commit(ctx context.Context, itemID string, userID *string, req *dto.CommitRequest) (*domain.Commitment, error)
	// Uncommit removes a user's commitment and restores its quantity
	Uncommit(ctx context.Context, commitmentID, userID string) error
}

type signUpService struct {
	signups repository.SignUpRepository
	uow     repository.UnitOfWork
}

// NewSignUpService creates a new SignUpService
func NewSignUpService(signups repository.SignUpRepository, uow repository.UnitOfWork) SignUpService {
	return &signUpService{
		signups: signups,
		uow:     uow,
	}
}

// ListByEvent implements SignUpService
func (s *signUpService) ListByEvent(ctx context.Context, eventID string) ([]*dto.SignUpListResponse, error) {
	lists, err := s.signups.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SignUpListResponse, 0, len(lists))
	for _, list := range lists {
		responses = append(responses, dto.FromSignUpList(list))
	}
	return responses, nil
}

// CreateItem implements SignUpService
func (s *signUpService) CreateItem(ctx context.Context, userID *string, req *dto.CreateSignUpItemRequest) (*dto.SignUpItemResponse, error) {
	item, err := domain.NewSignUpItem(req.ListID, req.Description, req.Category, req.RequestedQuantity, userID)
	if err != nil {
		return nil, err
	}

	if err := s.signups.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return dto.FromSignUpItem(item), nil
}

// DeleteItem implements SignUpService
func (s *signUpService) DeleteItem(ctx context.Context, itemID, userID string) error {
	item, err := s.signups.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrSignUpItemNotFound
	}
	if !item.CanModify(userID) {
		return domain.ErrNotItemCreator
	}
	return s.signups.DeleteItem(ctx, itemID)
}

// Commit implements SignUpService. The item row is locked for the
// transaction, so the domain capacity check and the guarded insert see a
// stable committed total even under concurrent commits.
func (s *signUpService) Commit(ctx context.Context, itemID string, userID *string, req *dto.CommitRequest) (*domain.Commitment, error) {
	var created *domain.Commitment

	err := s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		item, err := repos.SignUps.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrSignUpItemNotFound
		}

		c, err := item.Commit(userID, req.ContactEmail, req.Quantity, req.Note)
		if err != nil {
			return err
		}
		if err := repos.SignUps.CreateCommitment(ctx, c); err != nil {
			return err
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Uncommit implements SignUpService
func (s *signUpService) Uncommit(ctx context.Context, commitmentID, userID string) error {
	return s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		c, err := repos.SignUps.GetCommitment(ctx, commitmentID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrCommitmentNotFound
		}
		if c.UserID == nil || *c.UserID != userID {
			return ErrCommitmentNotOwned
		}
		return repos.SignUps.DeleteCommitment(ctx, commitmentID)
	})
}
