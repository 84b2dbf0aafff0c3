package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderEventType is the subset of order lifecycle events the ledger consumes.
type OrderEventType string

const (
	OrderEventDelivered OrderEventType = "DELIVERED"
	OrderEventCanceled  OrderEventType = "CANCELED"
	OrderEventReturned  OrderEventType = "RETURNED"
)

// OrderEvent is the inbound message from the order subsystem. Events may
// arrive duplicated or out of order; settlement markers make them safe to
// replay.
type OrderEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	SupplierID  uuid.UUID      `json:"supplier_id"`
	GrossAmount int64          `json:"gross_amount"`
	EventType   OrderEventType `json:"event_type"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// SettlementStatus marks how far an order has moved through settlement.
type SettlementStatus string

const (
	SettlementStatusSettled  SettlementStatus = "SETTLED"
	SettlementStatusRefunded SettlementStatus = "REFUNDED"
)

// OrderSettlement is the per-order idempotency marker. It is inserted in the
// same database transaction as the earning ledger entry, so a replayed
// DELIVERED event trips the primary key instead of double-crediting.
type OrderSettlement struct {
	OrderID       uuid.UUID        `json:"order_id"`
	WalletID      uuid.UUID        `json:"wallet_id"`
	Status        SettlementStatus `json:"status"`
	LedgerEntryID uuid.UUID        `json:"ledger_entry_id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// PendingHold tracks the net earning of one settled order through its hold
// window. A hold is consumed exactly once: released to the available balance
// after the window elapses, or refunded if the order comes back first.
type PendingHold struct {
	ID         uuid.UUID  `json:"id"`
	WalletID   uuid.UUID  `json:"wallet_id"`
	OrderID    uuid.UUID  `json:"order_id"`
	Amount     int64      `json:"amount"` // net of commission
	ReleaseAt  time.Time  `json:"release_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	RefundedAt *time.Time `json:"refunded_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Consumed returns true once the hold has been released or refunded.
func (h *PendingHold) Consumed() bool {
	return h.ReleasedAt != nil || h.RefundedAt != nil
}

// SettlementCacheKey builds the redis fast-path key for a DELIVERED event.
func SettlementCacheKey(orderID uuid.UUID) string {
	return "settle:" + orderID.String()
}

// RefundCacheKey builds the redis fast-path key for a refund event.
func RefundCacheKey(orderID uuid.UUID) string {
	return "refund:" + orderID.String()
}
