package ports

import (
	"context"
	"time"

	"supplier-wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock abstracts time so schedulers and period logic are testable.
type Clock interface {
	Now() time.Time
}

// LedgerService is the sole authority over wallet balances. Every call is
// atomic: the wallet row is written with an optimistic version check and the
// matching ledger entry lands in the same database transaction. On version
// conflict the whole operation retries from the read, bounded before
// surfacing ConcurrentModification.
type LedgerService interface {
	CreateWallet(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error)
	RecordOrderEarning(ctx context.Context, req EarningRequest) (*domain.Wallet, *domain.LedgerEntry, error)
	ReleasePending(ctx context.Context, hold domain.PendingHold) (*domain.Wallet, error)
	RefundOrder(ctx context.Context, req RefundRequest) (*domain.Wallet, error)
	ApplyAdminTransaction(ctx context.Context, req AdminTransactionRequest) (*domain.Wallet, *domain.LedgerEntry, error)
	RolloverMonth(ctx context.Context, walletID uuid.UUID, period string) (*domain.Wallet, error)
	DebitWithdrawal(ctx context.Context, request *domain.WithdrawalRequest) (*domain.Wallet, error)
	ReverseWithdrawal(ctx context.Context, request *domain.WithdrawalRequest, from domain.WithdrawalStatus) (*domain.Wallet, error)
}

// EarningRequest holds validated input for settling a delivered order.
type EarningRequest struct {
	WalletID       uuid.UUID
	OrderID        uuid.UUID
	GrossAmount    int64
	CommissionRate decimal.Decimal // in [0,1]
	OccurredAt     time.Time
}

// RefundRequest holds validated input for refunding a settled order.
type RefundRequest struct {
	WalletID    uuid.UUID
	OrderID     uuid.UUID
	HoldID      *uuid.UUID // set when the hold must be consumed alongside
	Amount      int64
	FromPending bool
	Description string
}

// AdminTransactionRequest holds a manual balance correction.
type AdminTransactionRequest struct {
	WalletID uuid.UUID
	// Amount is a positive magnitude for deposits/deductions/penalties; an
	// ADJUSTMENT may carry a negative amount to move funds out.
	Amount    int64
	EntryType domain.EntryType
	AdminID   uuid.UUID
	Note      string
}

// SettlementOutcome describes how an order event was applied.
type SettlementOutcome string

const (
	OutcomeSettled   SettlementOutcome = "SETTLED"
	OutcomeRefunded  SettlementOutcome = "REFUNDED"
	OutcomeDuplicate SettlementOutcome = "DUPLICATE"
	OutcomeSkipped   SettlementOutcome = "SKIPPED"
)

// SettlementResult is returned (and cached) per order event.
type SettlementResult struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Outcome          SettlementOutcome `json:"outcome"`
	AvailableBalance int64             `json:"available_balance"`
	PendingBalance   int64             `json:"pending_balance"`
}

// SettlementService translates order lifecycle events into ledger calls.
// Handling is idempotent: replaying an event yields the same balances.
type SettlementService interface {
	HandleOrderEvent(ctx context.Context, event domain.OrderEvent) (*SettlementResult, error)
}

// CommissionProvider looks up the platform's cut for a supplier.
// Rates are decimals in [0,1].
type CommissionProvider interface {
	GetRate(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
}

// SettlementCache is the redis fast path that short-circuits replayed
// events before they reach the database.
type SettlementCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CommissionCache stores per-supplier commission rate overrides pushed by the
// platform. A miss falls back to the configured default rate.
type CommissionCache interface {
	GetRate(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, bool, error)
	SetRate(ctx context.Context, supplierID uuid.UUID, rate decimal.Decimal, ttl time.Duration) error
}

// WithdrawalService drives the supplier payout state machine.
type WithdrawalService interface {
	Create(ctx context.Context, req CreateWithdrawalRequest) (*domain.WithdrawalRequest, *domain.Wallet, error)
	MarkProcessing(ctx context.Context, requestID, adminID uuid.UUID) (*domain.WithdrawalRequest, error)
	Complete(ctx context.Context, requestID uuid.UUID, bankTransactionCode string) (*domain.WithdrawalRequest, *domain.Wallet, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (*domain.WithdrawalRequest, *domain.Wallet, error)
	Fail(ctx context.Context, requestID uuid.UUID, reason string) (*domain.WithdrawalRequest, *domain.Wallet, error)
	CancelBySupplier(ctx context.Context, requestID, walletID uuid.UUID) (*domain.WithdrawalRequest, *domain.Wallet, error)
}

// CreateWithdrawalRequest holds validated input for a new payout request.
type CreateWithdrawalRequest struct {
	WalletID          uuid.UUID
	Amount            int64
	BankName          string
	BankAccountNumber string
	BankAccountHolder string
}

// ReportingService exposes the read-only wallet query API.
type ReportingService interface {
	GetWalletBySupplier(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error)
	ListLedger(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
	GetPeriodSummary(ctx context.Context, walletID uuid.UUID, period string) (*PeriodSummary, error)
	ListWithdrawals(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.WithdrawalRequest, int64, error)
}

// Role values carried in dashboard tokens.
const (
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
)

// TokenService validates (and, for tooling, mints) dashboard JWTs.
// Identity issuance itself lives in the external auth subsystem.
type TokenService interface {
	Generate(subjectID uuid.UUID, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	SubjectID uuid.UUID
	Role      string
}

// SignatureService authenticates inbound order-event payloads.
type SignatureService interface {
	Sign(secretKey string, payload []byte) string
	Verify(secretKey string, payload []byte, signature string) bool
}
