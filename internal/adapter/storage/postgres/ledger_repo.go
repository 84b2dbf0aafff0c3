package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, wallet_id, entry_type, amount, gross_amount, commission,
	available_after, pending_after, order_id, admin_id, description, created_at`

// LedgerRepo implements ports.LedgerRepository. Entries are append-only:
// there is no update or delete statement in this file on purpose.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Insert appends a ledger entry within a database transaction.
func (r *LedgerRepo) Insert(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, wallet_id, entry_type, amount, gross_amount, commission,
		available_after, pending_after, order_id, admin_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.WalletID, e.EntryType, e.Amount, e.GrossAmount, e.Commission,
		e.AvailableAfter, e.PendingAfter, e.OrderID, e.AdminID, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// List fetches ledger history with filtering and pagination.
func (r *LedgerRepo) List(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
	args = append(args, params.WalletID)
	argIdx++

	if params.EntryType != nil {
		conditions = append(conditions, fmt.Sprintf("entry_type = $%d", argIdx))
		args = append(args, *params.EntryType)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ledger_entries %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM ledger_entries %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		ledgerColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e := domain.LedgerEntry{}
		err := rows.Scan(
			&e.ID, &e.WalletID, &e.EntryType, &e.Amount, &e.GrossAmount, &e.Commission,
			&e.AvailableAfter, &e.PendingAfter, &e.OrderID, &e.AdminID, &e.Description, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return entries, total, nil
}

// GetPeriodSummary aggregates ledger entries over a time window.
func (r *LedgerRepo) GetPeriodSummary(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*ports.PeriodSummary, error) {
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'ORDER_EARNED'), 0) AS earned,
		COALESCE(SUM(commission) FILTER (WHERE entry_type = 'ORDER_EARNED'), 0) AS commission,
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'ORDER_REFUNDED'), 0) AS refunded,
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'PENDING_RELEASED'), 0) AS released,
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'WITHDRAWAL_DEBITED'), 0)
			- COALESCE(SUM(amount) FILTER (WHERE entry_type = 'WITHDRAWAL_REVERSED'), 0) AS withdrawn,
		COALESCE(SUM(amount) FILTER (WHERE entry_type = 'ADMIN_DEPOSIT'), 0)
			- COALESCE(SUM(amount) FILTER (WHERE entry_type IN ('ADMIN_DEDUCTION', 'PENALTY')), 0)
			+ COALESCE(SUM(CASE WHEN entry_type = 'ADJUSTMENT' THEN amount ELSE 0 END), 0) AS adjusted
		FROM ledger_entries WHERE wallet_id = $1 AND created_at >= $2 AND created_at < $3`

	summary := &ports.PeriodSummary{}
	err := r.pool.QueryRow(ctx, query, walletID, from, to).Scan(
		&summary.Earned, &summary.Commission, &summary.Refunded,
		&summary.Released, &summary.Withdrawn, &summary.Adjusted,
	)
	if err != nil {
		return nil, fmt.Errorf("get period summary: %w", err)
	}
	return summary, nil
}
