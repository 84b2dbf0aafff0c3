package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus represents the state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "PENDING"
	WithdrawalStatusProcessing WithdrawalStatus = "PROCESSING"
	WithdrawalStatusCompleted  WithdrawalStatus = "COMPLETED"
	WithdrawalStatusFailed     WithdrawalStatus = "FAILED"
	WithdrawalStatusCancelled  WithdrawalStatus = "CANCELLED"
)

// WithdrawalRequest is a supplier's request to pay out available funds.
// The requested amount is debited from the wallet the moment the request is
// created, so a second concurrent request cannot overdraw the same balance.
type WithdrawalRequest struct {
	ID                  uuid.UUID        `json:"id"`
	WalletID            uuid.UUID        `json:"wallet_id"`
	Amount              int64            `json:"amount"`
	Fee                 int64            `json:"fee"`
	NetAmount           int64            `json:"net_amount"`
	BankName            string           `json:"bank_name"`
	BankAccountNumber   string           `json:"bank_account_number"`
	BankAccountHolder   string           `json:"bank_account_holder"`
	Status              WithdrawalStatus `json:"status"`
	ProcessedBy         *uuid.UUID       `json:"processed_by,omitempty"`
	ProcessedAt         *time.Time       `json:"processed_at,omitempty"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	BankTransactionCode *string          `json:"bank_transaction_code,omitempty"`
	RejectionReason     *string          `json:"rejection_reason,omitempty"`
	DebitEntryID        uuid.UUID        `json:"debit_entry_id"`
	ReversalEntryID     *uuid.UUID       `json:"reversal_entry_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// IsTerminal returns true once the request can no longer change state.
func (r *WithdrawalRequest) IsTerminal() bool {
	return r.Status == WithdrawalStatusCompleted ||
		r.Status == WithdrawalStatusFailed ||
		r.Status == WithdrawalStatusCancelled
}

// CanTransitionTo checks the withdrawal state machine:
// PENDING -> PROCESSING -> {COMPLETED | FAILED}, and CANCELLED/FAILED are
// reachable from PENDING or PROCESSING.
func (r *WithdrawalRequest) CanTransitionTo(next WithdrawalStatus) bool {
	switch next {
	case WithdrawalStatusProcessing:
		return r.Status == WithdrawalStatusPending
	case WithdrawalStatusCompleted:
		return r.Status == WithdrawalStatusProcessing
	case WithdrawalStatusFailed, WithdrawalStatusCancelled:
		return r.Status == WithdrawalStatusPending || r.Status == WithdrawalStatusProcessing
	default:
		return false
	}
}
