package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtaadao/treasury/cmd/treasury/service"
	"github.com/mtaadao/treasury/common/db"
)

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx, letting
// read helpers serve both transactional and pool-backed calls.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure Store implements the service port
var _ service.Store = (*Store)(nil)

// Store is the Postgres-backed persistence layer for the disbursement
// engine.
type Store struct {
	db *db.DB
}

// NewStore creates a new store
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// InTx runs fn inside a single database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx service.StoreTx) error) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&storeTx{q: tx})
	})
}

// storeTx implements service.StoreTx over a pgx transaction.
type storeTx struct {
	q pgx.Tx
}

var _ service.StoreTx = (*storeTx)(nil)
