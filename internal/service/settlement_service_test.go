package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc        *SettlementServiceImpl
	ledger     *mocks.MockLedgerService
	walletRepo *mocks.MockWalletRepository
	holdRepo   *mocks.MockHoldRepository
	settleRepo *mocks.MockSettlementRepository
	commission *mocks.MockCommissionProvider
	cache      *mocks.MockSettlementCache
	ctrl       *gomock.Controller
}

func setupSettlementService(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	d := &settlementTestDeps{
		ledger:     mocks.NewMockLedgerService(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		holdRepo:   mocks.NewMockHoldRepository(ctrl),
		settleRepo: mocks.NewMockSettlementRepository(ctrl),
		commission: mocks.NewMockCommissionProvider(ctrl),
		cache:      mocks.NewMockSettlementCache(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewSettlementService(
		d.ledger, d.walletRepo, d.holdRepo, d.settleRepo,
		d.commission, d.cache, zerolog.Nop(),
	)
	return d
}

func deliveredEvent(orderID, supplierID uuid.UUID, gross int64) domain.OrderEvent {
	return domain.OrderEvent{
		OrderID:     orderID,
		SupplierID:  supplierID,
		GrossAmount: gross,
		EventType:   domain.OrderEventDelivered,
		OccurredAt:  testNow,
	}
}

// ==================== Delivered Tests ====================

func TestSettlementService_Delivered_Settles(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()
	rate := decimal.RequireFromString("0.10")

	d.cache.EXPECT().Get(ctx, domain.SettlementCacheKey(orderID)).Return(nil, nil)
	d.ledger.EXPECT().CreateWallet(ctx, supplierID).Return(&domain.Wallet{
		ID:         walletID,
		SupplierID: supplierID,
		Status:     domain.WalletStatusActive,
	}, nil)
	d.commission.EXPECT().GetRate(ctx, supplierID).Return(rate, nil)
	d.ledger.EXPECT().RecordOrderEarning(ctx, ports.EarningRequest{
		WalletID:       walletID,
		OrderID:        orderID,
		GrossAmount:    100_000,
		CommissionRate: rate,
		OccurredAt:     testNow,
	}).Return(&domain.Wallet{
		ID:             walletID,
		PendingBalance: 90_000,
	}, &domain.LedgerEntry{}, nil)
	d.cache.EXPECT().Set(ctx, domain.SettlementCacheKey(orderID), gomock.Any(), settlementCacheTTL).Return(nil)

	result, err := d.svc.HandleOrderEvent(ctx, deliveredEvent(orderID, supplierID, 100_000))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeSettled, result.Outcome)
	assert.Equal(t, orderID, result.OrderID)
	assert.Equal(t, int64(90_000), result.PendingBalance)
	assert.Zero(t, result.AvailableBalance)
}

func TestSettlementService_Delivered_CacheHitSkipsLedger(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	cached, _ := json.Marshal(&ports.SettlementResult{
		OrderID:        orderID,
		Outcome:        ports.OutcomeSettled,
		PendingBalance: 90_000,
	})

	d.cache.EXPECT().Get(ctx, domain.SettlementCacheKey(orderID)).Return(cached, nil)

	result, err := d.svc.HandleOrderEvent(ctx, deliveredEvent(orderID, uuid.New(), 100_000))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeSettled, result.Outcome)
	assert.Equal(t, int64(90_000), result.PendingBalance)
}

func TestSettlementService_Delivered_ReplayHitsDBMarker(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()
	wallet := &domain.Wallet{ID: walletID, SupplierID: supplierID, PendingBalance: 90_000}

	d.cache.EXPECT().Get(ctx, domain.SettlementCacheKey(orderID)).Return(nil, nil)
	d.ledger.EXPECT().CreateWallet(ctx, supplierID).Return(wallet, nil)
	d.commission.EXPECT().GetRate(ctx, supplierID).Return(decimal.Zero, nil)
	d.ledger.EXPECT().RecordOrderEarning(ctx, gomock.Any()).Return(nil, nil, domain.ErrDuplicateSettlement)
	d.walletRepo.EXPECT().GetBySupplierID(ctx, supplierID).Return(wallet, nil)

	result, err := d.svc.HandleOrderEvent(ctx, deliveredEvent(orderID, supplierID, 100_000))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeDuplicate, result.Outcome)
	// Balances reflect the already-applied settlement, not a second credit.
	assert.Equal(t, int64(90_000), result.PendingBalance)
}

func TestSettlementService_Delivered_CacheErrorFallsThrough(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()

	d.cache.EXPECT().Get(ctx, domain.SettlementCacheKey(orderID)).Return(nil, errors.New("redis down"))
	d.ledger.EXPECT().CreateWallet(ctx, supplierID).Return(&domain.Wallet{ID: walletID}, nil)
	d.commission.EXPECT().GetRate(ctx, supplierID).Return(decimal.Zero, nil)
	d.ledger.EXPECT().RecordOrderEarning(ctx, gomock.Any()).Return(&domain.Wallet{ID: walletID}, &domain.LedgerEntry{}, nil)
	d.cache.EXPECT().Set(ctx, domain.SettlementCacheKey(orderID), gomock.Any(), settlementCacheTTL).Return(nil)

	result, err := d.svc.HandleOrderEvent(ctx, deliveredEvent(orderID, supplierID, 100_000))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeSettled, result.Outcome)
}

func TestSettlementService_Delivered_InvalidAmount(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.HandleOrderEvent(context.Background(), deliveredEvent(uuid.New(), uuid.New(), 0))
	assertAppCode(t, err, "WAL_006")
}

func TestSettlementService_MissingIdentifiers(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.HandleOrderEvent(context.Background(), domain.OrderEvent{
		EventType:   domain.OrderEventDelivered,
		GrossAmount: 1000,
	})
	assertAppCode(t, err, "WAL_006")
}

func TestSettlementService_UnknownEventType(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.HandleOrderEvent(context.Background(), domain.OrderEvent{
		OrderID:    uuid.New(),
		SupplierID: uuid.New(),
		EventType:  "SHIPPED",
	})
	assertAppCode(t, err, "WAL_006")
}

// ==================== Refund Tests ====================

func TestSettlementService_Refund_FromPendingHold(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()
	holdID := uuid.New()

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: supplierID,
		EventType:  domain.OrderEventReturned,
		OccurredAt: testNow,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusSettled,
	}, nil)
	d.holdRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.PendingHold{
		ID:       holdID,
		WalletID: walletID,
		OrderID:  orderID,
		Amount:   90_000,
	}, nil)
	d.ledger.EXPECT().RefundOrder(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RefundRequest) (*domain.Wallet, error) {
			assert.True(t, req.FromPending)
			require.NotNil(t, req.HoldID)
			assert.Equal(t, holdID, *req.HoldID)
			assert.Equal(t, int64(90_000), req.Amount)
			assert.Equal(t, "order RETURNED", req.Description)
			return &domain.Wallet{ID: walletID}, nil
		})
	d.cache.EXPECT().Set(ctx, domain.RefundCacheKey(orderID), gomock.Any(), settlementCacheTTL).Return(nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeRefunded, result.Outcome)
}

func TestSettlementService_Refund_AfterRelease_DebitsAvailable(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()
	releasedAt := testNow.Add(-time.Hour)

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: supplierID,
		EventType:  domain.OrderEventCanceled,
		OccurredAt: testNow,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusSettled,
	}, nil)
	d.holdRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.PendingHold{
		ID:         uuid.New(),
		WalletID:   walletID,
		OrderID:    orderID,
		Amount:     90_000,
		ReleasedAt: &releasedAt,
	}, nil)
	d.ledger.EXPECT().RefundOrder(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RefundRequest) (*domain.Wallet, error) {
			assert.False(t, req.FromPending)
			assert.Nil(t, req.HoldID)
			return &domain.Wallet{ID: walletID}, nil
		})
	d.cache.EXPECT().Set(ctx, domain.RefundCacheKey(orderID), gomock.Any(), settlementCacheTTL).Return(nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeRefunded, result.Outcome)
}

func TestSettlementService_Refund_UnsettledOrderSkips(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: uuid.New(),
		EventType:  domain.OrderEventCanceled,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(nil, nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	// Canceled before delivery: no money ever moved.
	assert.Equal(t, ports.OutcomeSkipped, result.Outcome)
}

func TestSettlementService_Refund_Replay(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: supplierID,
		EventType:  domain.OrderEventReturned,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID: orderID,
		Status:  domain.SettlementStatusRefunded,
	}, nil)
	d.walletRepo.EXPECT().GetBySupplierID(ctx, supplierID).Return(&domain.Wallet{
		AvailableBalance: 10_000,
	}, nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeDuplicate, result.Outcome)
	assert.Equal(t, int64(10_000), result.AvailableBalance)
}

func TestSettlementService_Refund_LostRaceTreatedAsDuplicate(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: supplierID,
		EventType:  domain.OrderEventReturned,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusSettled,
	}, nil)
	d.holdRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.PendingHold{
		ID:       uuid.New(),
		WalletID: walletID,
		OrderID:  orderID,
		Amount:   90_000,
	}, nil)
	// A concurrent replay won the transaction race.
	d.ledger.EXPECT().RefundOrder(ctx, gomock.Any()).Return(nil, domain.ErrAlreadyRefunded)
	d.walletRepo.EXPECT().GetBySupplierID(ctx, supplierID).Return(&domain.Wallet{ID: walletID}, nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeDuplicate, result.Outcome)
}

func TestSettlementService_Refund_ReleaseRaceRetriesFromAvailable(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()
	holdID := uuid.New()

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: supplierID,
		EventType:  domain.OrderEventReturned,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusSettled,
	}, nil)
	d.holdRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.PendingHold{
		ID:       holdID,
		WalletID: walletID,
		OrderID:  orderID,
		Amount:   90_000,
	}, nil)
	// The release job consumes the hold after our read; the first refund
	// attempt rolls back.
	d.ledger.EXPECT().RefundOrder(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RefundRequest) (*domain.Wallet, error) {
			assert.True(t, req.FromPending)
			return nil, domain.ErrHoldConsumed
		})
	// Marker is still SETTLED: the money was never clawed back, so the
	// refund must be retried against the available balance.
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusSettled,
	}, nil)
	d.ledger.EXPECT().RefundOrder(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.RefundRequest) (*domain.Wallet, error) {
			assert.False(t, req.FromPending)
			assert.Nil(t, req.HoldID)
			assert.Equal(t, int64(90_000), req.Amount)
			return &domain.Wallet{ID: walletID}, nil
		})
	d.cache.EXPECT().Set(ctx, domain.RefundCacheKey(orderID), gomock.Any(), settlementCacheTTL).Return(nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeRefunded, result.Outcome)
}

func TestSettlementService_Refund_ReleaseRaceAlreadyRefundedMarker(t *testing.T) {
	d := setupSettlementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	orderID := uuid.New()
	supplierID := uuid.New()
	walletID := uuid.New()

	event := domain.OrderEvent{
		OrderID:    orderID,
		SupplierID: supplierID,
		EventType:  domain.OrderEventCanceled,
	}

	d.cache.EXPECT().Get(ctx, domain.RefundCacheKey(orderID)).Return(nil, nil)
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusSettled,
	}, nil)
	d.holdRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.PendingHold{
		ID:       uuid.New(),
		WalletID: walletID,
		OrderID:  orderID,
		Amount:   90_000,
	}, nil)
	d.ledger.EXPECT().RefundOrder(ctx, gomock.Any()).Return(nil, domain.ErrHoldConsumed)
	// The recheck shows a concurrent replay already flipped the marker.
	d.settleRepo.EXPECT().GetByOrderID(ctx, orderID).Return(&domain.OrderSettlement{
		OrderID:  orderID,
		WalletID: walletID,
		Status:   domain.SettlementStatusRefunded,
	}, nil)
	d.walletRepo.EXPECT().GetBySupplierID(ctx, supplierID).Return(&domain.Wallet{ID: walletID}, nil)

	result, err := d.svc.HandleOrderEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeDuplicate, result.Outcome)
}
