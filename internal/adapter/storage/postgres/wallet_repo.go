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

const walletColumns = `id, supplier_id, available_balance, pending_balance, total_earnings,
	total_withdrawn, total_refunded, monthly_earnings, current_period, last_withdrawal_at,
	status, version, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. A second wallet for the same supplier trips
// the unique index and comes back as domain.ErrWalletExists.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, supplier_id, available_balance, pending_balance, total_earnings,
		total_withdrawn, total_refunded, monthly_earnings, current_period, last_withdrawal_at,
		status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.SupplierID, w.AvailableBalance, w.PendingBalance, w.TotalEarnings,
		w.TotalWithdrawn, w.TotalRefunded, w.MonthlyEarnings, w.CurrentPeriod, w.LastWithdrawalAt,
		w.Status, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrWalletExists
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetBySupplierID fetches a wallet by its owning supplier.
func (r *WalletRepo) GetBySupplierID(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE supplier_id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, supplierID))
}

// GetByIDTx fetches a wallet inside an open transaction. The read is plain:
// concurrency control happens at write time via the version check, not here.
func (r *WalletRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// UpdateVersioned writes the full wallet state conditioned on the version the
// caller read. On success the row's version is incremented and the in-memory
// wallet is bumped to match; if the condition misses, the wallet changed under
// us and domain.ErrVersionConflict is returned so the caller can retry.
func (r *WalletRepo) UpdateVersioned(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets SET available_balance = $1, pending_balance = $2, total_earnings = $3,
		total_withdrawn = $4, total_refunded = $5, monthly_earnings = $6, current_period = $7,
		last_withdrawal_at = $8, status = $9, version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11`

	tag, err := tx.Exec(ctx, query,
		w.AvailableBalance, w.PendingBalance, w.TotalEarnings,
		w.TotalWithdrawn, w.TotalRefunded, w.MonthlyEarnings, w.CurrentPeriod,
		w.LastWithdrawalAt, w.Status,
		w.ID, w.Version,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	w.Version++
	return nil
}

// UpdateStatus transitions the wallet lifecycle status outside the ledger path.
func (r *WalletRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WalletStatus) error {
	query := `UPDATE wallets SET status = $1, version = version + 1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// ListForRollover returns active wallets whose period marker lags behind the
// given period and that hold funds or monthly counters to move.
func (r *WalletRepo) ListForRollover(ctx context.Context, period string, limit int) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE status = 'ACTIVE' AND current_period < $1 AND (available_balance > 0 OR monthly_earnings > 0)
		ORDER BY current_period, id LIMIT $2`

	rows, err := r.pool.Query(ctx, query, period, limit)
	if err != nil {
		return nil, fmt.Errorf("list wallets for rollover: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w := domain.Wallet{}
		err := rows.Scan(
			&w.ID, &w.SupplierID, &w.AvailableBalance, &w.PendingBalance, &w.TotalEarnings,
			&w.TotalWithdrawn, &w.TotalRefunded, &w.MonthlyEarnings, &w.CurrentPeriod, &w.LastWithdrawalAt,
			&w.Status, &w.Version, &w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// scanWallet is a helper to scan a single row into a Wallet.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.SupplierID, &w.AvailableBalance, &w.PendingBalance, &w.TotalEarnings,
		&w.TotalWithdrawn, &w.TotalRefunded, &w.MonthlyEarnings, &w.CurrentPeriod, &w.LastWithdrawalAt,
		&w.Status, &w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
