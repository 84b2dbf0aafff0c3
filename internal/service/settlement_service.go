package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const settlementCacheTTL = 24 * time.Hour

// SettlementServiceImpl implements ports.SettlementService. It translates
// order lifecycle events into ledger calls with two layers of idempotency:
// a redis fast path keyed per event, and the database settlement marker that
// travels in the ledger's transaction.
type SettlementServiceImpl struct {
	ledger     ports.LedgerService
	walletRepo ports.WalletRepository
	holdRepo   ports.HoldRepository
	settleRepo ports.SettlementRepository
	commission ports.CommissionProvider
	cache      ports.SettlementCache
	log        zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	ledger ports.LedgerService,
	walletRepo ports.WalletRepository,
	holdRepo ports.HoldRepository,
	settleRepo ports.SettlementRepository,
	commission ports.CommissionProvider,
	cache ports.SettlementCache,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		ledger:     ledger,
		walletRepo: walletRepo,
		holdRepo:   holdRepo,
		settleRepo: settleRepo,
		commission: commission,
		cache:      cache,
		log:        log,
	}
}

// HandleOrderEvent applies one order lifecycle event. Replaying any event
// yields the same result and balances.
func (s *SettlementServiceImpl) HandleOrderEvent(ctx context.Context, event domain.OrderEvent) (*ports.SettlementResult, error) {
	if event.OrderID == uuid.Nil || event.SupplierID == uuid.Nil {
		return nil, apperror.Validation("order_id and supplier_id are required")
	}

	switch event.EventType {
	case domain.OrderEventDelivered:
		return s.handleDelivered(ctx, event)
	case domain.OrderEventCanceled, domain.OrderEventReturned:
		return s.handleRefund(ctx, event)
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown event type %q", event.EventType))
	}
}

func (s *SettlementServiceImpl) handleDelivered(ctx context.Context, event domain.OrderEvent) (*ports.SettlementResult, error) {
	if event.GrossAmount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	cacheKey := domain.SettlementCacheKey(event.OrderID)
	if cached := s.cachedResult(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	// Provision lazily: the first delivered order creates the wallet.
	wallet, err := s.ledger.CreateWallet(ctx, event.SupplierID)
	if err != nil {
		return nil, err
	}

	rate, err := s.commission.GetRate(ctx, event.SupplierID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commission lookup: %w", err))
	}

	wallet, _, err = s.ledger.RecordOrderEarning(ctx, ports.EarningRequest{
		WalletID:       wallet.ID,
		OrderID:        event.OrderID,
		GrossAmount:    event.GrossAmount,
		CommissionRate: rate,
		OccurredAt:     event.OccurredAt,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSettlement) {
			s.log.Info().
				Str("order_id", event.OrderID.String()).
				Msg("delivered event replayed, settlement marker already present")
			return s.duplicateResult(ctx, event.OrderID, event.SupplierID)
		}
		return nil, err
	}

	result := &ports.SettlementResult{
		OrderID:          event.OrderID,
		Outcome:          ports.OutcomeSettled,
		AvailableBalance: wallet.AvailableBalance,
		PendingBalance:   wallet.PendingBalance,
	}
	s.cacheResult(ctx, cacheKey, result)
	return result, nil
}

func (s *SettlementServiceImpl) handleRefund(ctx context.Context, event domain.OrderEvent) (*ports.SettlementResult, error) {
	cacheKey := domain.RefundCacheKey(event.OrderID)
	if cached := s.cachedResult(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	settlement, err := s.settleRepo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("settlement lookup: %w", err))
	}
	if settlement == nil {
		// Canceled before delivery: no money ever moved, nothing to claw back.
		s.log.Info().
			Str("order_id", event.OrderID.String()).
			Str("event_type", string(event.EventType)).
			Msg("refund event for unsettled order, skipping")
		return &ports.SettlementResult{OrderID: event.OrderID, Outcome: ports.OutcomeSkipped}, nil
	}
	if settlement.Status == domain.SettlementStatusRefunded {
		return s.duplicateResult(ctx, event.OrderID, event.SupplierID)
	}

	hold, err := s.holdRepo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hold lookup: %w", err))
	}
	if hold == nil {
		return nil, apperror.InternalError(fmt.Errorf("settled order %s has no pending hold", event.OrderID))
	}

	req := ports.RefundRequest{
		WalletID:    settlement.WalletID,
		OrderID:     event.OrderID,
		Amount:      hold.Amount,
		FromPending: !hold.Consumed(),
		Description: "order " + string(event.EventType),
	}
	if req.FromPending {
		holdID := hold.ID
		req.HoldID = &holdID
	}

	wallet, err := s.ledger.RefundOrder(ctx, req)
	if errors.Is(err, domain.ErrHoldConsumed) {
		// The release job consumed the hold between our read and the refund
		// transaction, so the funds now sit on the available balance. Only a
		// REFUNDED marker means a replay; otherwise retry against available.
		settlement, rerr := s.settleRepo.GetByOrderID(ctx, event.OrderID)
		if rerr != nil {
			return nil, apperror.InternalError(fmt.Errorf("settlement recheck: %w", rerr))
		}
		if settlement != nil && settlement.Status == domain.SettlementStatusRefunded {
			return s.duplicateResult(ctx, event.OrderID, event.SupplierID)
		}
		s.log.Info().
			Str("order_id", event.OrderID.String()).
			Msg("hold released mid-refund, retrying against available balance")
		req.FromPending = false
		req.HoldID = nil
		wallet, err = s.ledger.RefundOrder(ctx, req)
	}
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRefunded) {
			s.log.Info().
				Str("order_id", event.OrderID.String()).
				Msg("refund event replayed, order already refunded")
			return s.duplicateResult(ctx, event.OrderID, event.SupplierID)
		}
		return nil, err
	}

	result := &ports.SettlementResult{
		OrderID:          event.OrderID,
		Outcome:          ports.OutcomeRefunded,
		AvailableBalance: wallet.AvailableBalance,
		PendingBalance:   wallet.PendingBalance,
	}
	s.cacheResult(ctx, cacheKey, result)
	return result, nil
}

// duplicateResult reports a replayed event as applied, with the wallet's
// current balances.
func (s *SettlementServiceImpl) duplicateResult(ctx context.Context, orderID, supplierID uuid.UUID) (*ports.SettlementResult, error) {
	result := &ports.SettlementResult{OrderID: orderID, Outcome: ports.OutcomeDuplicate}
	wallet, err := s.walletRepo.GetBySupplierID(ctx, supplierID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read wallet: %w", err))
	}
	if wallet != nil {
		result.AvailableBalance = wallet.AvailableBalance
		result.PendingBalance = wallet.PendingBalance
	}
	return result, nil
}

// cachedResult checks the redis fast path. Failures are logged and treated
// as misses; the database marker still protects correctness.
func (s *SettlementServiceImpl) cachedResult(ctx context.Context, key string) *ports.SettlementResult {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("settlement cache check failed, falling through to DB")
		return nil
	}
	if data == nil {
		return nil
	}
	result := &ports.SettlementResult{}
	if err := json.Unmarshal(data, result); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("corrupt settlement cache entry, falling through to DB")
		return nil
	}
	return result
}

func (s *SettlementServiceImpl) cacheResult(ctx context.Context, key string, result *ports.SettlementResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, settlementCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache settlement result")
	}
}
