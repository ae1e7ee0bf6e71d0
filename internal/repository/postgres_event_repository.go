package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	db DB
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(db DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

const eventColumns = `
	id, organizer_id, title, COALESCE(description, '') as description, COALESCE(location, '') as location,
	starts_at, ends_at, capacity, registered_count,
	adult_price, child_price, currency, status, created_at, updated_at
`

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	event := &domain.Event{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartsAt,
		&event.EndsAt,
		&event.Capacity,
		&event.RegisteredCount,
		&event.AdultPrice,
		&event.ChildPrice,
		&event.Currency,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// GetByIDWithWaitingList retrieves an event with its waiting list entries
func (r *PostgresEventRepository) GetByIDWithWaitingList(ctx context.Context, id string) (*domain.Event, error) {
	event, err := r.GetByID(ctx, id)
	if err != nil || event == nil {
		return event, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, event_id, user_id, position, created_at
		FROM waiting_list_entries
		WHERE event_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load waiting list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.WaitingListEntry
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.UserID, &entry.Position, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan waiting list entry: %w", err)
		}
		event.WaitingList = append(event.WaitingList, entry)
	}
	return event, nil
}

// Create persists a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (
			id, organizer_id, title, description, location, starts_at, ends_at,
			capacity, registered_count, adult_price, child_price, currency, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.OrganizerID,
		event.Title,
		nullStringOrValue(event.Description),
		nullStringOrValue(event.Location),
		event.StartsAt,
		event.EndsAt,
		event.Capacity,
		event.RegisteredCount,
		event.AdultPrice,
		event.ChildPrice,
		event.Currency,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update persists event field changes; counters go through the guarded methods
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6,
		    capacity = $7, adult_price = $8, child_price = $9, status = $10, updated_at = $11
		WHERE id = $1
	`
	event.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(ctx, query,
		event.ID,
		event.Title,
		nullStringOrValue(event.Description),
		nullStringOrValue(event.Location),
		event.StartsAt,
		event.EndsAt,
		event.Capacity,
		event.AdultPrice,
		event.ChildPrice,
		event.Status,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event not found")
	}
	return nil
}

// ReserveCapacity atomically adds n to the registered count. The WHERE
// guard makes concurrent reservations serialize on the row: the loser
// matches zero rows instead of overselling.
func (r *PostgresEventRepository) ReserveCapacity(ctx context.Context, eventID string, n int) error {
	query := `
		UPDATE events
		SET registered_count = registered_count + $2, updated_at = now()
		WHERE id = $1 AND registered_count + $2 <= capacity
	`
	result, err := r.db.Exec(ctx, query, eventID, n)
	if err != nil {
		return fmt.Errorf("reserve capacity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNoCapacity
	}
	return nil
}

// ReleaseCapacity atomically subtracts n from the registered count
func (r *PostgresEventRepository) ReleaseCapacity(ctx context.Context, eventID string, n int) error {
	query := `
		UPDATE events
		SET registered_count = registered_count - $2, updated_at = now()
		WHERE id = $1 AND registered_count - $2 >= 0
	`
	result, err := r.db.Exec(ctx, query, eventID, n)
	if err != nil {
		return fmt.Errorf("release capacity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCapacityGuardFailed
	}
	return nil
}

// lockEventRow serializes waiting list mutations for one event. The
// lock is held until the surrounding transaction commits. Reports
// whether the event exists.
func (r *PostgresEventRepository) lockEventRow(ctx context.Context, eventID string) (bool, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock event row: %w", err)
	}
	return true, nil
}

// AddWaitingListEntry persists a waiting list entry. The position is
// assigned inside the insert, under the event row lock, so two
// concurrent joins cannot both claim the same slot; entry.Position is
// overwritten with the assigned value.
func (r *PostgresEventRepository) AddWaitingListEntry(ctx context.Context, entry *domain.WaitingListEntry) error {
	found, err := r.lockEventRow(ctx, entry.EventID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("event %s not found", entry.EventID)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO waiting_list_entries (id, event_id, user_id, position, created_at)
		SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1, $4
		FROM waiting_list_entries
		WHERE event_id = $2
		RETURNING position
	`,
		entry.ID,
		entry.EventID,
		entry.UserID,
		entry.CreatedAt,
	).Scan(&entry.Position)
	if err != nil {
		return fmt.Errorf("insert waiting list entry: %w", err)
	}
	return nil
}

// RemoveWaitingListEntry removes a user's entry and closes the position gap
func (r *PostgresEventRepository) RemoveWaitingListEntry(ctx context.Context, eventID, userID string) error {
	found, err := r.lockEventRow(ctx, eventID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotOnWaitingList
	}

	var position int
	err = r.db.QueryRow(ctx, `
		DELETE FROM waiting_list_entries
		WHERE event_id = $1 AND user_id = $2
		RETURNING position
	`, eventID, userID).Scan(&position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotOnWaitingList
		}
		return fmt.Errorf("delete waiting list entry: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE waiting_list_entries
		SET position = position - 1
		WHERE event_id = $1 AND position > $2
	`, eventID, position)
	if err != nil {
		return fmt.Errorf("resequence waiting list: %w", err)
	}
	return nil
}

// GetWaitingListEntry retrieves a user's entry
func (r *PostgresEventRepository) GetWaitingListEntry(ctx context.Context, eventID, userID string) (*domain.WaitingListEntry, error) {
	entry := &domain.WaitingListEntry{}
	err := r.db.QueryRow(ctx, `
		SELECT id, event_id, user_id, position, created_at
		FROM waiting_list_entries
		WHERE event_id = $1 AND user_id = $2
	`, eventID, userID).Scan(&entry.ID, &entry.EventID, &entry.UserID, &entry.Position, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get waiting list entry: %w", err)
	}
	return entry, nil
}

// NextInLine retrieves the earliest waiting list entry
func (r *PostgresEventRepository) NextInLine(ctx context.Context, eventID string) (*domain.WaitingListEntry, error) {
	entry := &domain.WaitingListEntry{}
	err := r.db.QueryRow(ctx, `
		SELECT id, event_id, user_id, position, created_at
		FROM waiting_list_entries
		WHERE event_id = $1
		ORDER BY position
		LIMIT 1
	`, eventID).Scan(&entry.ID, &entry.EventID, &entry.UserID, &entry.Position, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get next in line: %w", err)
	}
	return entry, nil
}
