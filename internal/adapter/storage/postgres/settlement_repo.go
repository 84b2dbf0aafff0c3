package postgres

import (
	"context"
	"errors"
	"fmt"

	"supplier-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// SettlementRepo implements ports.SettlementRepository.
type SettlementRepo struct {
	pool Pool
}

// NewSettlementRepo creates a new SettlementRepo.
func NewSettlementRepo(pool Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// Insert creates the settlement marker within a database transaction. The
// order id is the primary key; a replayed event hits the constraint and is
// surfaced as domain.ErrDuplicateSettlement.
func (r *SettlementRepo) Insert(ctx context.Context, tx pgx.Tx, s *domain.OrderSettlement) error {
	query := `INSERT INTO order_settlements (order_id, wallet_id, status, ledger_entry_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, s.OrderID, s.WalletID, s.Status, s.LedgerEntryID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateSettlement
		}
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// GetByOrderID fetches the settlement marker for an order.
func (r *SettlementRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.OrderSettlement, error) {
	query := `SELECT order_id, wallet_id, status, ledger_entry_id, created_at, updated_at
		FROM order_settlements WHERE order_id = $1`

	s := &domain.OrderSettlement{}
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&s.OrderID, &s.WalletID, &s.Status, &s.LedgerEntryID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement by order id: %w", err)
	}
	return s, nil
}

// MarkRefunded flips the marker from SETTLED to REFUNDED, recording the refund
// entry. The status condition makes a second refund of the same order fail
// with domain.ErrAlreadyRefunded instead of double-debiting.
func (r *SettlementRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entryID uuid.UUID) error {
	query := `UPDATE order_settlements SET status = $1, ledger_entry_id = $2, updated_at = NOW()
		WHERE order_id = $3 AND status = $4`

	tag, err := tx.Exec(ctx, query, domain.SettlementStatusRefunded, entryID, orderID, domain.SettlementStatusSettled)
	if err != nil {
		return fmt.Errorf("mark settlement refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyRefunded
	}
	return nil
}
