package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the querying surface shared by *pgxpool.Pool and pgx.Tx, so the
// same repository code runs pooled or inside a unit-of-work transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRepositories bundles the repositories bound to one transaction.
type TxRepositories struct {
	Registrations RegistrationRepository
	Events        EventRepository
	SignUps       SignUpRepository
	Outbox        OutboxRepository
}

// UnitOfWork runs aggregate writes and outbox inserts in one transaction.
type UnitOfWork interface {
	// Commit begins a transaction, runs fn with transaction-bound
	// repositories, and commits; any error from fn rolls everything back.
	Commit(ctx context.Context, fn func(ctx context.Context, repos *TxRepositories) error) error
}

// PgxUnitOfWork implements UnitOfWork on a pgx connection pool.
type PgxUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewPgxUnitOfWork creates a new PgxUnitOfWork
func NewPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{pool: pool}
}

// Commit implements UnitOfWork
func (u *PgxUnitOfWork) Commit(ctx context.Context, fn func(ctx context.Context, repos *TxRepositories) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repos := &TxRepositories{
		Registrations: NewPostgresRegistrationRepository(tx),
		Events:        NewPostgresEventRepository(tx),
		SignUps:       NewPostgresSignUpRepository(tx),
		Outbox:        NewPostgresOutboxRepository(tx),
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
