package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet & Ledger (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrWalletNotActive(status string) *AppError {
	return New("WAL_002", fmt.Sprintf("Wallet is %s and cannot accept this operation", status), http.StatusForbidden)
}

func ErrInsufficientBalance() *AppError {
	return New("WAL_003", "Insufficient balance", http.StatusUnprocessableEntity)
}

// ErrNegativeBalanceViolation marks an internal invariant breach. The
// transaction is aborted with no partial write; callers must never clamp
// the balance and continue.
func ErrNegativeBalanceViolation(err error) *AppError {
	return Wrap("WAL_004", "Balance invariant violation", http.StatusInternalServerError, err)
}

func ErrConcurrentModification() *AppError {
	return New("WAL_005", "Wallet was modified concurrently, retry limit reached", http.StatusConflict)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_006", "Invalid amount", http.StatusBadRequest)
}

func ErrAdjustmentNoteRequired() *AppError {
	return New("WAL_007", "Adjustment requires a justification note", http.StatusBadRequest)
}

// ---- Withdrawal workflow (WDR) ----

func ErrMinimumWithdrawalNotMet(minimum int64) *AppError {
	return New("WDR_001", fmt.Sprintf("Withdrawal amount is below the minimum of %d", minimum), http.StatusBadRequest)
}

func ErrInvalidStateTransition(from, to string) *AppError {
	return New("WDR_002", fmt.Sprintf("Cannot transition withdrawal from %s to %s", from, to), http.StatusConflict)
}

func ErrWithdrawalNotFound() *AppError {
	return New("WDR_003", "Withdrawal request not found", http.StatusNotFound)
}

// ---- Authentication (SEC) ----

func ErrInvalidToken() *AppError {
	return New("SEC_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbiddenRole() *AppError {
	return New("SEC_002", "Insufficient role for this operation", http.StatusForbidden)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_003", "Invalid event signature", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("WAL_006", message, http.StatusBadRequest)
}
