package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// PostgresSignUpRepository implements SignUpRepository using PostgreSQL
type PostgresSignUpRepository struct {
	db DB
}

// NewPostgresSignUpRepository creates a new PostgresSignUpRepository
func NewPostgresSignUpRepository(db DB) *PostgresSignUpRepository {
	return &PostgresSignUpRepository{db: db}
}

// CreateList persists a new sign-up list
func (r *PostgresSignUpRepository) CreateList(ctx context.Context, list *domain.SignUpList) error {
	query := `
		INSERT INTO signup_lists (id, event_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, list.ID, list.EventID, list.Title, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert signup list: %w", err)
	}
	return nil
}

// ListByEvent retrieves an event's sign-up lists with items and commitments
func (r *PostgresSignUpRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.SignUpList, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_id, title, created_at, updated_at
		FROM signup_lists
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list signup lists: %w", err)
	}
	defer rows.Close()

	lists := make([]*domain.SignUpList, 0)
	byID := make(map[string]*domain.SignUpList)
	for rows.Next() {
		list := &domain.SignUpList{}
		if err := rows.Scan(&list.ID, &list.EventID, &list.Title, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan signup list: %w", err)
		}
		lists = append(lists, list)
		byID[list.ID] = list
	}
	rows.Close()

	if len(lists) == 0 {
		return lists, nil
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT i.id, i.list_id, i.description, i.category, i.requested_quantity,
		       i.committed_quantity, i.created_by_user_id, i.created_at, i.updated_at
		FROM signup_items i
		JOIN signup_lists l ON l.id = i.list_id
		WHERE l.event_id = $1
		ORDER BY i.created_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list signup items: %w", err)
	}
	defer itemRows.Close()

	itemsByID := make(map[string]*domain.SignUpItem)
	order := make([]string, 0)
	for itemRows.Next() {
		item := &domain.SignUpItem{}
		if err := itemRows.Scan(
			&item.ID, &item.ListID, &item.Description, &item.Category,
			&item.RequestedQuantity, &item.CommittedQuantity,
			&item.CreatedByUserID, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan signup item: %w", err)
		}
		itemsByID[item.ID] = item
		order = append(order, item.ID)
	}
	itemRows.Close()

	commitmentRows, err := r.db.Query(ctx, `
		SELECT c.id, c.item_id, c.user_id, COALESCE(c.contact_email, '') as contact_email,
		       c.quantity, COALESCE(c.note, '') as note, c.created_at
		FROM signup_commitments c
		JOIN signup_items i ON i.id = c.item_id
		JOIN signup_lists l ON l.id = i.list_id
		WHERE l.event_id = $1
		ORDER BY c.created_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer commitmentRows.Close()

	for commitmentRows.Next() {
		var c domain.Commitment
		if err := commitmentRows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.ContactEmail, &c.Quantity, &c.Note, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		if item, ok := itemsByID[c.ItemID]; ok {
			item.Commitments = append(item.Commitments, c)
		}
	}

	for _, id := range order {
		item := itemsByID[id]
		if list, ok := byID[item.ListID]; ok {
			list.Items = append(list.Items, *item)
		}
	}
	return lists, nil
}

// CreateItem persists a new sign-up item
func (r *PostgresSignUpRepository) CreateItem(ctx context.Context, item *domain.SignUpItem) error {
	query := `
		INSERT INTO signup_items (
			id, list_id, description, category, requested_quantity,
			committed_quantity, created_by_user_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.ListID,
		item.Description,
		item.Category,
		item.RequestedQuantity,
		item.CommittedQuantity,
		item.CreatedByUserID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signup item: %w", err)
	}
	return nil
}

// GetItemByID retrieves an item with its commitments
func (r *PostgresSignUpRepository) GetItemByID(ctx context.Context, id string) (*domain.SignUpItem, error) {
	return r.getItem(ctx, id, false)
}

// GetItemForUpdate retrieves an item row-locked for the current transaction
func (r *PostgresSignUpRepository) GetItemForUpdate(ctx context.Context, id string) (*domain.SignUpItem, error) {
	return r.getItem(ctx, id, true)
}

func (r *PostgresSignUpRepository) getItem(ctx context.Context, id string, forUpdate bool) (*domain.SignUpItem, error) {
	query := `
		SELECT id, list_id, description, category, requested_quantity,
		       committed_quantity, created_by_user_id, created_at, updated_at
		FROM signup_items
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	item := &domain.SignUpItem{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.ListID, &item.Description, &item.Category,
		&item.RequestedQuantity, &item.CommittedQuantity,
		&item.CreatedByUserID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get signup item: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, item_id, user_id, COALESCE(contact_email, '') as contact_email,
		       quantity, COALESCE(note, '') as note, created_at
		FROM signup_commitments
		WHERE item_id = $1
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load commitments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Commitment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.ContactEmail, &c.Quantity, &c.Note, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		item.Commitments = append(item.Commitments, c)
	}
	return item, nil
}

// DeleteItem removes an item and its commitments
func (r *PostgresSignUpRepository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM signup_commitments WHERE item_id = $1`, id); err != nil {
		return fmt.Errorf("delete commitments: %w", err)
	}
	result, err := r.db.Exec(ctx, `DELETE FROM signup_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete signup item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("signup item not found")
	}
	return nil
}

// CreateCommitment persists a commitment. The guarded counter update is
// what enforces the capacity invariant under concurrent commits; the
// insert only happens once the guard passed.
func (r *PostgresSignUpRepository) CreateCommitment(ctx context.Context, c *domain.Commitment) error {
	result, err := r.db.Exec(ctx, `
		UPDATE signup_items
		SET committed_quantity = committed_quantity + $2, updated_at = now()
		WHERE id = $1 AND committed_quantity + $2 <= requested_quantity
	`, c.ItemID, c.Quantity)
	if err != nil {
		return fmt.Errorf("reserve item quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCapacityExceeded
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO signup_commitments (id, item_id, user_id, contact_email, quantity, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		c.ID,
		c.ItemID,
		c.UserID,
		nullStringOrValue(c.ContactEmail),
		c.Quantity,
		nullStringOrValue(c.Note),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert commitment: %w", err)
	}
	return nil
}

// GetCommitment retrieves a commitment by ID
func (r *PostgresSignUpRepository) GetCommitment(ctx context.Context, id string) (*domain.Commitment, error) {
	c := &domain.Commitment{}
	err := r.db.QueryRow(ctx, `
		SELECT id, item_id, user_id, COALESCE(contact_email, '') as contact_email,
		       quantity, COALESCE(note, '') as note, created_at
		FROM signup_commitments
		WHERE id = $1
	`, id).Scan(&c.ID, &c.ItemID, &c.UserID, &c.ContactEmail, &c.Quantity, &c.Note, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get commitment: %w", err)
	}
	return c, nil
}

// DeleteCommitment removes a commitment and restores its quantity
func (r *PostgresSignUpRepository) DeleteCommitment(ctx context.Context, id string) error {
	var itemID string
	var quantity int
	err := r.db.QueryRow(ctx, `
		DELETE FROM signup_commitments WHERE id = $1
		RETURNING item_id, quantity
	`, id).Scan(&itemID, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCommitmentNotFound
		}
		return fmt.Errorf("delete commitment: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE signup_items
		SET committed_quantity = committed_quantity - $2, updated_at = now()
		WHERE id = $1
	`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("restore item quantity: %w", err)
	}
	return nil
}
