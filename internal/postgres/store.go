// Package postgres implements the cart core persistence on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/dukerupert/larder/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs every cart core statement against one DBTX.
type Queries struct {
	db DBTX
}

// Compile-time check that Queries implements service.Querier.
var _ service.Querier = (*Queries)(nil)

// NewQueries wraps a pool or transaction.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// Store is the pool-backed service.Store.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

// Compile-time check that Store implements service.Store.
var _ service.Store = (*Store)(nil)

// New creates a Store on an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: NewQueries(pool),
		pool:    pool,
	}
}

// ExecTx runs fn inside a read-committed transaction. Row locks taken with
// LockCart are held until fn returns.
func (s *Store) ExecTx(ctx context.Context, fn func(q service.Querier) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(NewQueries(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks the pool for the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
