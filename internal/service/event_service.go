package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/dto"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/events"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

var ErrEventNotFound = errors.New("event not found")

const defaultEventCacheTTL = 5 * time.Minute

// EventService owns event reads, registrations, and the waiting list.
type EventService interface {
	// GetEvent retrieves an event, read-through cached for published events
	GetEvent(ctx context.Context, id string) (*dto.EventResponse, error)
	// Register registers attendees for an event with a capacity check;
	// free events confirm immediately, paid events come back preliminary
	Register(ctx context.Context, eventID string, userID *string, req *dto.RegisterRequest) (*dto.RegistrationResponse, error)
	// CancelRegistration cancels a user's active registration, frees
	// capacity, and notifies the earliest waiting list entry when the
	// event was full
	CancelRegistration(ctx context.Context, eventID, userID string) error
	// JoinWaitingList adds a user to an at-capacity event's waiting list
	JoinWaitingList(ctx context.Context, eventID, userID string) (*dto.WaitingListEntryResponse, error)
	// LeaveWaitingList removes a user's entry and resequences positions
	LeaveWaitingList(ctx context.Context, eventID, userID string) error
	// PromoteFromWaitingList converts the user's waiting list entry into
	// a confirmed registration in the same commit
	PromoteFromWaitingList(ctx context.Context, eventID string, req *dto.PromoteRequest) (*dto.RegistrationResponse, error)
}

type eventService struct {
	eventsRepo    repository.EventRepository
	registrations repository.RegistrationRepository
	uow           repository.UnitOfWork
	cache         *redis.Client
	cacheTTL      time.Duration
	log           *logger.Logger
}

// NewEventService creates a new EventService. cacheTTL bounds how long a
// published event stays cached; zero falls back to the default.
func NewEventService(
	eventsRepo repository.EventRepository,
	registrations repository.RegistrationRepository,
	uow repository.UnitOfWork,
	cache *redis.Client,
	cacheTTL time.Duration,
	log *logger.Logger,
) EventService {
	if cacheTTL <= 0 {
		cacheTTL = defaultEventCacheTTL
	}
	return &eventService{
		eventsRepo:    eventsRepo,
		registrations: registrations,
		uow:           uow,
		cache:         cache,
		cacheTTL:      cacheTTL,
		log:           log,
	}
}

func eventCacheKey(id string) string {
	return fmt.Sprintf("event:%s", id)
}

// GetEvent retrieves an event, serving published events from Redis when possible
func (s *eventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, eventCacheKey(id)).Bytes()
		if err == nil {
			resp := &dto.EventResponse{}
			if err := json.Unmarshal(cached, resp); err == nil {
				return resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "event cache read failed", zap.String("event_id", id), zap.Error(err))
		}
	}

	event, err := s.eventsRepo.GetByIDWithWaitingList(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	resp := dto.FromEvent(event)
	if s.cache != nil && event.IsPublished() {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, eventCacheKey(id), data, s.cacheTTL).Err(); err != nil {
				s.log.WarnContext(ctx, "event cache write failed", zap.String("event_id", id), zap.Error(err))
			}
		}
	}
	return resp, nil
}

func (s *eventService) invalidateEventCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, eventCacheKey(eventID)).Err(); err != nil {
		s.log.WarnContext(ctx, "event cache invalidation failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

// Register implements EventService
func (s *eventService) Register(ctx context.Context, eventID string, userID *string, req *dto.RegisterRequest) (*dto.RegistrationResponse, error) {
	var created *domain.Registration

	err := s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		event, err := repos.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}
		if !event.IsPublished() {
			return domain.ErrEventNotPublished
		}

		if userID != nil {
			registered, err := repos.Registrations.HasActiveForUser(ctx, eventID, *userID)
			if err != nil {
				return err
			}
			if registered {
				return domain.ErrAlreadyRegistered
			}
		}

		attendees := req.ToAttendees()
		if err := repos.Events.ReserveCapacity(ctx, eventID, len(attendees)); err != nil {
			return err
		}

		total := event.PriceFor(attendees)
		reg, err := domain.NewRegistration(eventID, userID, attendees, req.ContactEmail, req.ContactPhone, total, event.Currency, !event.IsFree() && total > 0)
		if err != nil {
			return err
		}
		if err := repos.Registrations.Create(ctx, reg); err != nil {
			return err
		}

		created = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEventCache(ctx, eventID)
	return dto.FromRegistration(created), nil
}

// CancelRegistration implements EventService
func (s *eventService) CancelRegistration(ctx context.Context, eventID, userID string) error {
	err := s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		reg, err := repos.Registrations.GetActiveByEventAndUser(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if reg == nil {
			return ErrRegistrationNotFound
		}

		event, err := repos.Events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}
		wasFull := event.IsAtCapacity()

		if err := reg.Cancel(); err != nil {
			return err
		}
		if err := repos.Registrations.Update(ctx, reg); err != nil {
			return err
		}
		if err := repos.Events.ReleaseCapacity(ctx, eventID, reg.AttendeeCount()); err != nil {
			return err
		}

		if wasFull {
			next, err := repos.Events.NextInLine(ctx, eventID)
			if err != nil {
				return err
			}
			if next != nil {
				row, err := repository.NewOutboxEvent(&events.WaitingListSpotAvailableEvent{
					EventID:    eventID,
					UserID:     next.UserID,
					EventTitle: event.Title,
					Timestamp:  time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				if err := repos.Outbox.Enqueue(ctx, row); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateEventCache(ctx, eventID)
	return nil
}

// JoinWaitingList implements EventService
func (s *eventService) JoinWaitingList(ctx context.Context, eventID, userID string) (*dto.WaitingListEntryResponse, error) {
	var entry *domain.WaitingListEntry

	err := s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		event, err := repos.Events.GetByIDWithWaitingList(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}

		registered, err := repos.Registrations.HasActiveForUser(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if registered {
			return domain.ErrAlreadyRegistered
		}

		entry, err = event.AddToWaitingList(userID)
		if err != nil {
			return err
		}
		return repos.Events.AddWaitingListEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateEventCache(ctx, eventID)
	return &dto.WaitingListEntryResponse{UserID: entry.UserID, Position: entry.Position}, nil
}

// LeaveWaitingList implements EventService
func (s *eventService) LeaveWaitingList(ctx context.Context, eventID, userID string) error {
	err := s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		return repos.Events.RemoveWaitingListEntry(ctx, eventID, userID)
	})
	if err != nil {
		return err
	}

	s.invalidateEventCache(ctx, eventID)
	return nil
}

// PromoteFromWaitingList implements EventService. The entry removal,
// capacity reservation, and confirmed registration land in one commit;
// failure anywhere leaves the waiting list untouched.
func (s *eventService) PromoteFromWaitingList(ctx context.Context, eventID string, req *dto.PromoteRequest) (*dto.RegistrationResponse, error) {
	var created *domain.Registration

	err := s.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
		entry, err := repos.Events.GetWaitingListEntry(ctx, eventID, req.UserID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrNotOnWaitingList
		}

		if err := repos.Events.ReserveCapacity(ctx, eventID, 1); err != nil {
			return err
		}
		if err := repos.Events.RemoveWaitingListEntry(ctx, eventID, req.UserID); err != nil {
			return err
		}

		userID := req.UserID
		reg, err := domain.NewRegistration(
			eventID,
			&userID,
			[]domain.Attendee{{Name: req.AttendeeName}},
			req.ContactEmail,
			"",
			0,
			"",
			false,
		)
		if err != nil {
			return err
		}
		if err := repos.Registrations.Create(ctx, reg); err != nil {
			return err
		}

		created = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "promoted user from waiting list",
		zap.String("event_id", eventID),
		zap.String("user_id", req.UserID))
	s.invalidateEventCache(ctx, eventID)
	return dto.FromRegistration(created), nil
}
