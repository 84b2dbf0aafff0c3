package dto

import (
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
)

// OrderEventRequest is the request body for inbound order lifecycle events.
type OrderEventRequest struct {
	OrderID     string    `json:"order_id" binding:"required,uuid"`
	SupplierID  string    `json:"supplier_id" binding:"required,uuid"`
	GrossAmount int64     `json:"gross_amount"`
	EventType   string    `json:"event_type" binding:"required,oneof=DELIVERED CANCELED RETURNED"`
	OccurredAt  time.Time `json:"occurred_at" binding:"required"`
}

// CreateWithdrawalRequest is the request body for opening a withdrawal.
type CreateWithdrawalRequest struct {
	Amount            int64  `json:"amount" binding:"required,gt=0"`
	BankName          string `json:"bank_name" binding:"required,max=100"`
	BankAccountNumber string `json:"bank_account_number" binding:"required,safe_id,max=34"`
	BankAccountHolder string `json:"bank_account_holder" binding:"required,max=100"`
}

// CreateWalletRequest provisions a wallet when a supplier is approved.
type CreateWalletRequest struct {
	SupplierID string `json:"supplier_id" binding:"required,uuid"`
}

// AdminTransactionRequest is the request body for manual balance corrections.
type AdminTransactionRequest struct {
	Amount    int64  `json:"amount" binding:"required"`
	EntryType string `json:"entry_type" binding:"required,oneof=ADMIN_DEPOSIT ADMIN_DEDUCTION PENALTY ADJUSTMENT"`
	Note      string `json:"note" binding:"max=500"`
}

// WalletStatusRequest is the request body for admin wallet status changes.
type WalletStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE SUSPENDED FROZEN CLOSED"`
}

// CompleteWithdrawalRequest carries the bank's transfer reference.
type CompleteWithdrawalRequest struct {
	BankTransactionCode string `json:"bank_transaction_code" binding:"required,safe_id,max=64"`
}

// ReasonRequest carries a mandatory reason for reject/fail transitions.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// WalletResponse is the wallet view returned to suppliers and admins.
type WalletResponse struct {
	ID               string  `json:"id"`
	SupplierID       string  `json:"supplier_id"`
	AvailableBalance int64   `json:"available_balance"`
	PendingBalance   int64   `json:"pending_balance"`
	TotalEarnings    int64   `json:"total_earnings"`
	TotalWithdrawn   int64   `json:"total_withdrawn"`
	TotalRefunded    int64   `json:"total_refunded"`
	MonthlyEarnings  int64   `json:"monthly_earnings"`
	CurrentPeriod    string  `json:"current_period"`
	LastWithdrawalAt *string `json:"last_withdrawal_at,omitempty"`
	Status           string  `json:"status"`
}

// LedgerEntryResponse is one row of the wallet's audit trail.
type LedgerEntryResponse struct {
	ID             string  `json:"id"`
	EntryType      string  `json:"entry_type"`
	Amount         int64   `json:"amount"`
	GrossAmount    *int64  `json:"gross_amount,omitempty"`
	Commission     *int64  `json:"commission,omitempty"`
	OrderID        *string `json:"order_id,omitempty"`
	AdminID        *string `json:"admin_id,omitempty"`
	Description    string  `json:"description,omitempty"`
	AvailableAfter int64   `json:"available_after"`
	PendingAfter   int64   `json:"pending_after"`
	CreatedAt      string  `json:"created_at"`
}

// WithdrawalResponse is the withdrawal request view.
type WithdrawalResponse struct {
	ID                  string  `json:"id"`
	Amount              int64   `json:"amount"`
	Fee                 int64   `json:"fee"`
	NetAmount           int64   `json:"net_amount"`
	BankName            string  `json:"bank_name"`
	BankAccountNumber   string  `json:"bank_account_number"`
	BankAccountHolder   string  `json:"bank_account_holder"`
	Status              string  `json:"status"`
	BankTransactionCode *string `json:"bank_transaction_code,omitempty"`
	RejectionReason     *string `json:"rejection_reason,omitempty"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

// PeriodSummaryResponse aggregates one month of ledger activity.
type PeriodSummaryResponse struct {
	Period     string `json:"period"`
	Earned     int64  `json:"earned"`
	Commission int64  `json:"commission"`
	Refunded   int64  `json:"refunded"`
	Released   int64  `json:"released"`
	Withdrawn  int64  `json:"withdrawn"`
	Adjusted   int64  `json:"adjusted"`
}

// ListResponse wraps a paginated collection.
type ListResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// FromWallet converts a domain wallet to its response form.
func FromWallet(w *domain.Wallet) WalletResponse {
	resp := WalletResponse{
		ID:               w.ID.String(),
		SupplierID:       w.SupplierID.String(),
		AvailableBalance: w.AvailableBalance,
		PendingBalance:   w.PendingBalance,
		TotalEarnings:    w.TotalEarnings,
		TotalWithdrawn:   w.TotalWithdrawn,
		TotalRefunded:    w.TotalRefunded,
		MonthlyEarnings:  w.MonthlyEarnings,
		CurrentPeriod:    w.CurrentPeriod,
		Status:           string(w.Status),
	}
	if w.LastWithdrawalAt != nil {
		s := w.LastWithdrawalAt.Format(time.RFC3339)
		resp.LastWithdrawalAt = &s
	}
	return resp
}

// FromLedgerEntry converts a domain ledger entry to its response form.
func FromLedgerEntry(e domain.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:             e.ID.String(),
		EntryType:      string(e.EntryType),
		Amount:         e.Amount,
		GrossAmount:    e.GrossAmount,
		Commission:     e.Commission,
		Description:    e.Description,
		AvailableAfter: e.AvailableAfter,
		PendingAfter:   e.PendingAfter,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
	if e.OrderID != nil {
		s := e.OrderID.String()
		resp.OrderID = &s
	}
	if e.AdminID != nil {
		s := e.AdminID.String()
		resp.AdminID = &s
	}
	return resp
}

// FromWithdrawal converts a domain withdrawal request to its response form.
func FromWithdrawal(r *domain.WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		ID:                  r.ID.String(),
		Amount:              r.Amount,
		Fee:                 r.Fee,
		NetAmount:           r.NetAmount,
		BankName:            r.BankName,
		BankAccountNumber:   r.BankAccountNumber,
		BankAccountHolder:   r.BankAccountHolder,
		Status:              string(r.Status),
		BankTransactionCode: r.BankTransactionCode,
		RejectionReason:     r.RejectionReason,
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           r.UpdatedAt.Format(time.RFC3339),
	}
}

// FromPeriodSummary converts an aggregate to its response form.
func FromPeriodSummary(period string, s *ports.PeriodSummary) PeriodSummaryResponse {
	return PeriodSummaryResponse{
		Period:     period,
		Earned:     s.Earned,
		Commission: s.Commission,
		Refunded:   s.Refunded,
		Released:   s.Released,
		Withdrawn:  s.Withdrawn,
		Adjusted:   s.Adjusted,
	}
}
