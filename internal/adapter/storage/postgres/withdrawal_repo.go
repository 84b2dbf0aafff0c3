package postgres

import (
	"context"
	"errors"
	"fmt"

	"supplier-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, wallet_id, amount, fee, net_amount, bank_name, bank_account_number,
	bank_account_holder, status, processed_by, processed_at, completed_at, bank_transaction_code,
	rejection_reason, debit_entry_id, reversal_entry_id, created_at, updated_at`

// WithdrawalRepo implements ports.WithdrawalRepository.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

// Insert creates a withdrawal request within a database transaction, alongside
// the ledger entry that reserved its funds.
func (r *WithdrawalRepo) Insert(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (id, wallet_id, amount, fee, net_amount, bank_name,
		bank_account_number, bank_account_holder, status, processed_by, processed_at, completed_at,
		bank_transaction_code, rejection_reason, debit_entry_id, reversal_entry_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := tx.Exec(ctx, query,
		req.ID, req.WalletID, req.Amount, req.Fee, req.NetAmount, req.BankName,
		req.BankAccountNumber, req.BankAccountHolder, req.Status, req.ProcessedBy, req.ProcessedAt,
		req.CompletedAt, req.BankTransactionCode, req.RejectionReason, req.DebitEntryID,
		req.ReversalEntryID, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal request by UUID.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`
	return scanWithdrawal(r.pool.QueryRow(ctx, query, id))
}

// UpdateState writes the request conditioned on its current status, outside
// any ledger transaction. Used for transitions with no balance effect.
func (r *WithdrawalRepo) UpdateState(ctx context.Context, req *domain.WithdrawalRequest, from domain.WithdrawalStatus) error {
	tag, err := r.pool.Exec(ctx, updateStateQuery, updateStateArgs(req, from)...)
	if err != nil {
		return fmt.Errorf("update withdrawal state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateConflict
	}
	return nil
}

// UpdateStateTx is UpdateState inside an open transaction, for transitions
// that must commit atomically with a reversal ledger entry.
func (r *WithdrawalRepo) UpdateStateTx(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest, from domain.WithdrawalStatus) error {
	tag, err := tx.Exec(ctx, updateStateQuery, updateStateArgs(req, from)...)
	if err != nil {
		return fmt.Errorf("update withdrawal state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateConflict
	}
	return nil
}

const updateStateQuery = `UPDATE withdrawal_requests SET status = $1, processed_by = $2, processed_at = $3,
	completed_at = $4, bank_transaction_code = $5, rejection_reason = $6, reversal_entry_id = $7,
	updated_at = NOW() WHERE id = $8 AND status = $9`

func updateStateArgs(req *domain.WithdrawalRequest, from domain.WithdrawalStatus) []any {
	return []any{
		req.Status, req.ProcessedBy, req.ProcessedAt,
		req.CompletedAt, req.BankTransactionCode, req.RejectionReason, req.ReversalEntryID,
		req.ID, from,
	}
}

// ListByWallet fetches a wallet's withdrawal requests, newest first.
func (r *WithdrawalRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.WithdrawalRequest, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests WHERE wallet_id = $1`, walletID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count withdrawal requests: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
		WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.WithdrawalRequest
	for rows.Next() {
		req := domain.WithdrawalRequest{}
		err := rows.Scan(
			&req.ID, &req.WalletID, &req.Amount, &req.Fee, &req.NetAmount, &req.BankName,
			&req.BankAccountNumber, &req.BankAccountHolder, &req.Status, &req.ProcessedBy,
			&req.ProcessedAt, &req.CompletedAt, &req.BankTransactionCode, &req.RejectionReason,
			&req.DebitEntryID, &req.ReversalEntryID, &req.CreatedAt, &req.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan withdrawal row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate withdrawal rows: %w", err)
	}
	return requests, total, nil
}

// scanWithdrawal is a helper to scan a single row into a WithdrawalRequest.
func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	req := &domain.WithdrawalRequest{}
	err := row.Scan(
		&req.ID, &req.WalletID, &req.Amount, &req.Fee, &req.NetAmount, &req.BankName,
		&req.BankAccountNumber, &req.BankAccountHolder, &req.Status, &req.ProcessedBy,
		&req.ProcessedAt, &req.CompletedAt, &req.BankTransactionCode, &req.RejectionReason,
		&req.DebitEntryID, &req.ReversalEntryID, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan withdrawal: %w", err)
	}
	return req, nil
}
