package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletStatus represents the lifecycle state of a supplier wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusFrozen    WalletStatus = "FROZEN"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

// Wallet tracks a supplier's money across its states. Balances are held in
// the smallest currency unit and must never go negative. All mutations go
// through the ledger, which bumps Version on every write; the wallet row is
// never deleted, only transitioned to CLOSED.
type Wallet struct {
	ID               uuid.UUID    `json:"id"`
	SupplierID       uuid.UUID    `json:"supplier_id"`
	AvailableBalance int64        `json:"available_balance"`
	PendingBalance   int64        `json:"pending_balance"`
	TotalEarnings    int64        `json:"total_earnings"`
	TotalWithdrawn   int64        `json:"total_withdrawn"`
	TotalRefunded    int64        `json:"total_refunded"`
	MonthlyEarnings  int64        `json:"monthly_earnings"`
	CurrentPeriod    string       `json:"current_period"` // YYYY-MM the monthly counters apply to
	LastWithdrawalAt *time.Time   `json:"last_withdrawal_at,omitempty"`
	Status           WalletStatus `json:"status"`
	Version          int64        `json:"-"` // optimistic concurrency token
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// IsActive returns true if the wallet accepts earning and withdrawal operations.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// AcceptsAdminTransactions returns true unless the wallet is permanently closed.
// Corrections must remain possible on suspended and frozen wallets.
func (w *Wallet) AcceptsAdminTransactions() bool {
	return w.Status != WalletStatusClosed
}

// PeriodOf formats a point in time as the YYYY-MM period marker.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
