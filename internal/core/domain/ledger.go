package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	EntryTypeOrderEarned        EntryType = "ORDER_EARNED"
	EntryTypeOrderRefunded      EntryType = "ORDER_REFUNDED"
	EntryTypePendingReleased    EntryType = "PENDING_RELEASED"
	EntryTypeWithdrawalDebited  EntryType = "WITHDRAWAL_DEBITED"
	EntryTypeWithdrawalReversed EntryType = "WITHDRAWAL_REVERSED"
	EntryTypeAdminDeposit       EntryType = "ADMIN_DEPOSIT"
	EntryTypeAdminDeduction     EntryType = "ADMIN_DEDUCTION"
	EntryTypePenalty            EntryType = "PENALTY"
	EntryTypeAdjustment         EntryType = "ADJUSTMENT"
)

// LedgerEntry is the immutable audit record of one wallet mutation. Entries
// are append-only: the storage layer exposes no update or delete path, and
// the balance snapshots allow the wallet's state to be reconstructed from
// its entry history alone.
type LedgerEntry struct {
	ID             uuid.UUID  `json:"id"`
	WalletID       uuid.UUID  `json:"wallet_id"`
	EntryType      EntryType  `json:"entry_type"`
	Amount         int64      `json:"amount"` // positive magnitude; signed for ADJUSTMENT
	GrossAmount    *int64     `json:"gross_amount,omitempty"`
	Commission     *int64     `json:"commission,omitempty"`
	AvailableAfter int64      `json:"available_after"`
	PendingAfter   int64      `json:"pending_after"`
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
	AdminID        *uuid.UUID `json:"admin_id,omitempty"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AdminEntryTypes lists the entry types an admin transaction may carry.
var AdminEntryTypes = map[EntryType]bool{
	EntryTypeAdminDeposit:   true,
	EntryTypeAdminDeduction: true,
	EntryTypePenalty:        true,
	EntryTypeAdjustment:     true,
}
