package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supplier-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const holdColumns = `id, wallet_id, order_id, amount, release_at, released_at, refunded_at, created_at`

// HoldRepo implements ports.HoldRepository.
type HoldRepo struct {
	pool Pool
}

// NewHoldRepo creates a new HoldRepo.
func NewHoldRepo(pool Pool) *HoldRepo {
	return &HoldRepo{pool: pool}
}

// Insert creates a pending hold within a database transaction.
func (r *HoldRepo) Insert(ctx context.Context, tx pgx.Tx, h *domain.PendingHold) error {
	query := `INSERT INTO pending_holds (id, wallet_id, order_id, amount, release_at, released_at, refunded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		h.ID, h.WalletID, h.OrderID, h.Amount, h.ReleaseAt, h.ReleasedAt, h.RefundedAt, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending hold: %w", err)
	}
	return nil
}

// GetByOrderID fetches the hold created for an order.
func (r *HoldRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PendingHold, error) {
	query := `SELECT ` + holdColumns + ` FROM pending_holds WHERE order_id = $1`

	h := &domain.PendingHold{}
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&h.ID, &h.WalletID, &h.OrderID, &h.Amount, &h.ReleaseAt, &h.ReleasedAt, &h.RefundedAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get hold by order id: %w", err)
	}
	return h, nil
}

// ListMatured returns unconsumed holds whose release time has passed, oldest
// first so a crashed run picks up where it left off.
func (r *HoldRepo) ListMatured(ctx context.Context, before time.Time, limit int) ([]domain.PendingHold, error) {
	query := `SELECT ` + holdColumns + ` FROM pending_holds
		WHERE release_at <= $1 AND released_at IS NULL AND refunded_at IS NULL
		ORDER BY release_at LIMIT $2`

	rows, err := r.pool.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list matured holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.PendingHold
	for rows.Next() {
		h := domain.PendingHold{}
		err := rows.Scan(
			&h.ID, &h.WalletID, &h.OrderID, &h.Amount, &h.ReleaseAt, &h.ReleasedAt, &h.RefundedAt, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan hold row: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hold rows: %w", err)
	}
	return holds, nil
}

// MarkReleased consumes the hold as released. The write is conditioned on the
// hold being unconsumed, so a hold can only ever be consumed once.
func (r *HoldRepo) MarkReleased(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, at time.Time) error {
	query := `UPDATE pending_holds SET released_at = $1
		WHERE id = $2 AND released_at IS NULL AND refunded_at IS NULL`

	tag, err := tx.Exec(ctx, query, at, holdID)
	if err != nil {
		return fmt.Errorf("mark hold released: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldConsumed
	}
	return nil
}

// MarkRefunded consumes the hold as refunded, under the same single-consumption
// condition as MarkReleased.
func (r *HoldRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, at time.Time) error {
	query := `UPDATE pending_holds SET refunded_at = $1
		WHERE id = $2 AND released_at IS NULL AND refunded_at IS NULL`

	tag, err := tx.Exec(ctx, query, at, holdID)
	if err != nil {
		return fmt.Errorf("mark hold refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldConsumed
	}
	return nil
}
