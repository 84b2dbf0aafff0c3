package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWallet_IsActive(t *testing.T) {
	tests := []struct {
		status   WalletStatus
		expected bool
	}{
		{WalletStatusActive, true},
		{WalletStatusSuspended, false},
		{WalletStatusFrozen, false},
		{WalletStatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			w := &Wallet{Status: tt.status}
			assert.Equal(t, tt.expected, w.IsActive())
		})
	}
}

func TestWallet_AcceptsAdminTransactions(t *testing.T) {
	for _, status := range []WalletStatus{WalletStatusActive, WalletStatusSuspended, WalletStatusFrozen} {
		w := &Wallet{Status: status}
		assert.True(t, w.AcceptsAdminTransactions(), "status %s should accept admin transactions", status)
	}

	closed := &Wallet{Status: WalletStatusClosed}
	assert.False(t, closed.AcceptsAdminTransactions())
}

func TestPeriodOf(t *testing.T) {
	ts := time.Date(2026, time.August, 30, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-08", PeriodOf(ts))

	// Local times normalize to UTC before formatting.
	loc := time.FixedZone("UTC+7", 7*3600)
	early := time.Date(2026, time.September, 1, 3, 0, 0, 0, loc)
	assert.Equal(t, "2026-08", PeriodOf(early))
}

func TestWithdrawal_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    WithdrawalStatus
		to      WithdrawalStatus
		allowed bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusProcessing, true},
		{WithdrawalStatusPending, WithdrawalStatusCancelled, true},
		{WithdrawalStatusPending, WithdrawalStatusFailed, true},
		{WithdrawalStatusPending, WithdrawalStatusCompleted, false},
		{WithdrawalStatusProcessing, WithdrawalStatusCompleted, true},
		{WithdrawalStatusProcessing, WithdrawalStatusFailed, true},
		{WithdrawalStatusProcessing, WithdrawalStatusCancelled, true},
		{WithdrawalStatusProcessing, WithdrawalStatusProcessing, false},
		{WithdrawalStatusCompleted, WithdrawalStatusFailed, false},
		{WithdrawalStatusCancelled, WithdrawalStatusProcessing, false},
		{WithdrawalStatusFailed, WithdrawalStatusCompleted, false},
	}

	for _, tt := range tests {
		r := &WithdrawalRequest{Status: tt.from}
		assert.Equal(t, tt.allowed, r.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestWithdrawal_IsTerminal(t *testing.T) {
	terminal := []WithdrawalStatus{WithdrawalStatusCompleted, WithdrawalStatusFailed, WithdrawalStatusCancelled}
	for _, s := range terminal {
		r := &WithdrawalRequest{Status: s}
		assert.True(t, r.IsTerminal(), "%s should be terminal", s)
	}

	for _, s := range []WithdrawalStatus{WithdrawalStatusPending, WithdrawalStatusProcessing} {
		r := &WithdrawalRequest{Status: s}
		assert.False(t, r.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestPendingHold_Consumed(t *testing.T) {
	now := time.Now()

	h := &PendingHold{}
	assert.False(t, h.Consumed())

	released := &PendingHold{ReleasedAt: &now}
	assert.True(t, released.Consumed())

	refunded := &PendingHold{RefundedAt: &now}
	assert.True(t, refunded.Consumed())
}

func TestSettlementCacheKeys(t *testing.T) {
	orderID := uuid.New()
	assert.Equal(t, "settle:"+orderID.String(), SettlementCacheKey(orderID))
	assert.Equal(t, "refund:"+orderID.String(), RefundCacheKey(orderID))
	assert.NotEqual(t, SettlementCacheKey(orderID), RefundCacheKey(orderID))
}
