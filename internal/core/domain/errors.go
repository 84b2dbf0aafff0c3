package domain

import "errors"

// Sentinel errors used by repositories to report conditional-write outcomes.
// Services translate them into apperror values or no-op successes.
var (
	// ErrVersionConflict: the wallet row changed between read and write.
	ErrVersionConflict = errors.New("wallet version conflict")

	// ErrWalletExists: the supplier already has a wallet row.
	ErrWalletExists = errors.New("wallet already exists for supplier")

	// ErrDuplicateSettlement: the order already carries a settlement marker.
	ErrDuplicateSettlement = errors.New("order already settled")

	// ErrAlreadyRefunded: the settlement marker is already REFUNDED.
	ErrAlreadyRefunded = errors.New("order already refunded")

	// ErrHoldConsumed: the pending hold was already released or refunded.
	ErrHoldConsumed = errors.New("pending hold already consumed")

	// ErrStateConflict: the withdrawal row was not in the expected status.
	ErrStateConflict = errors.New("withdrawal state changed concurrently")
)
