package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out database transactions to the ledger service, which
// needs the wallet update, ledger entry, hold and settlement marker to land
// atomically. It exists as a port so tests can substitute a serialized
// in-memory variant.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor on top of the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a new transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
