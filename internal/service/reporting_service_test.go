package service

import (
	"context"
	"testing"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reportingTestDeps struct {
	svc        ports.ReportingService
	walletRepo *mocks.MockWalletRepository
	ledgerRepo *mocks.MockLedgerRepository
	wdRepo     *mocks.MockWithdrawalRepository
	ctrl       *gomock.Controller
}

func setupReportingService(t *testing.T) *reportingTestDeps {
	ctrl := gomock.NewController(t)
	d := &reportingTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		ledgerRepo: mocks.NewMockLedgerRepository(ctrl),
		wdRepo:     mocks.NewMockWithdrawalRepository(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewReportingService(d.walletRepo, d.ledgerRepo, d.wdRepo)
	return d
}

func TestReportingService_GetWalletBySupplier(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	supplierID := uuid.New()
	wallet := &domain.Wallet{ID: uuid.New(), SupplierID: supplierID, AvailableBalance: 5000}

	d.walletRepo.EXPECT().GetBySupplierID(ctx, supplierID).Return(wallet, nil)

	got, err := d.svc.GetWalletBySupplier(ctx, supplierID)
	require.NoError(t, err)
	assert.Equal(t, wallet, got)
}

func TestReportingService_GetWalletBySupplier_NotFound(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	supplierID := uuid.New()

	d.walletRepo.EXPECT().GetBySupplierID(ctx, supplierID).Return(nil, nil)

	_, err := d.svc.GetWalletBySupplier(ctx, supplierID)
	assertAppCode(t, err, "WAL_001")
}

func TestReportingService_ListLedger_ClampsPagination(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.ledgerRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, defaultPageSize, params.PageSize)
			return []domain.LedgerEntry{{WalletID: walletID}}, 1, nil
		})

	entries, total, err := d.svc.ListLedger(ctx, ports.LedgerListParams{
		WalletID: walletID,
		Page:     0,
		PageSize: -5,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, int64(1), total)
}

func TestReportingService_ListLedger_CapsPageSize(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.ledgerRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
			assert.Equal(t, maxPageSize, params.PageSize)
			return nil, 0, nil
		})

	_, _, err := d.svc.ListLedger(ctx, ports.LedgerListParams{
		WalletID: uuid.New(),
		Page:     1,
		PageSize: 10_000,
	})
	require.NoError(t, err)
}

func TestReportingService_GetPeriodSummary(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	summary := &ports.PeriodSummary{Earned: 90_000, Commission: 10_000}

	d.ledgerRepo.EXPECT().GetPeriodSummary(ctx, walletID, from, to).Return(summary, nil)

	got, err := d.svc.GetPeriodSummary(ctx, walletID, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, summary, got)
}

func TestReportingService_GetPeriodSummary_BadPeriod(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.GetPeriodSummary(context.Background(), uuid.New(), "March 2025")
	assertAppCode(t, err, "WAL_006")
}

func TestReportingService_ListWithdrawals(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.wdRepo.EXPECT().ListByWallet(ctx, walletID, 2, 10).Return(
		[]domain.WithdrawalRequest{{WalletID: walletID}}, int64(11), nil)

	requests, total, err := d.svc.ListWithdrawals(ctx, walletID, 2, 10)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, int64(11), total)
}
