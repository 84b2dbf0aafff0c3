package ports

import (
	"context"
	"time"

	"supplier-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets. Methods
// accepting pgx.Tx run inside the ledger's transaction; UpdateVersioned is
// the only balance write path and fails with domain.ErrVersionConflict when
// the row's version no longer matches.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetBySupplierID(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateVersioned(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WalletStatus) error
	// ListForRollover returns active wallets holding available funds whose
	// period marker lags behind the given period.
	ListForRollover(ctx context.Context, period string, limit int) ([]domain.Wallet, error)
}

// LedgerRepository persists the append-only audit trail. There is
// deliberately no update or delete operation.
type LedgerRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	List(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
	GetPeriodSummary(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*PeriodSummary, error)
}

// LedgerListParams holds filter + pagination for ledger history.
type LedgerListParams struct {
	WalletID  uuid.UUID
	EntryType *domain.EntryType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// PeriodSummary aggregates ledger entries over one period.
type PeriodSummary struct {
	Earned     int64 // net order earnings credited
	Commission int64 // platform cut recorded on earning entries
	Refunded   int64
	Released   int64
	Withdrawn  int64
	Adjusted   int64 // admin deposits minus deductions/penalties
}

// HoldRepository tracks per-order pending holds through the hold window.
type HoldRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, hold *domain.PendingHold) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PendingHold, error)
	// ListMatured returns unconsumed holds whose release time has passed.
	ListMatured(ctx context.Context, before time.Time, limit int) ([]domain.PendingHold, error)
	// MarkReleased / MarkRefunded consume the hold; both fail with
	// domain.ErrHoldConsumed if it was consumed before.
	MarkReleased(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, at time.Time) error
	MarkRefunded(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, at time.Time) error
}

// SettlementRepository persists per-order idempotency markers. Insert fails
// with domain.ErrDuplicateSettlement on a replayed order; MarkRefunded fails
// with domain.ErrAlreadyRefunded when the marker already flipped.
type SettlementRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, settlement *domain.OrderSettlement) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.OrderSettlement, error)
	MarkRefunded(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entryID uuid.UUID) error
}

// WithdrawalRepository persists withdrawal requests.
type WithdrawalRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, request *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	// UpdateState writes the request conditioned on its current status and
	// fails with domain.ErrStateConflict when another transition won.
	UpdateState(ctx context.Context, request *domain.WithdrawalRequest, from domain.WithdrawalStatus) error
	UpdateStateTx(ctx context.Context, tx pgx.Tx, request *domain.WithdrawalRequest, from domain.WithdrawalStatus) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.WithdrawalRequest, int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
