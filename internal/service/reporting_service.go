package service

import (
	"context"
	"fmt"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// reportingService implements ports.ReportingService. Read-only: every write
// goes through the ledger.
type reportingService struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	wdRepo     ports.WithdrawalRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	wdRepo ports.WithdrawalRepository,
) ports.ReportingService {
	return &reportingService{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		wdRepo:     wdRepo,
	}
}

// GetWalletBySupplier returns the supplier's wallet with current balances.
func (s *reportingService) GetWalletBySupplier(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetBySupplierID(ctx, supplierID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

// ListLedger returns a paginated slice of the wallet's ledger history.
func (s *reportingService) ListLedger(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	params.Page, params.PageSize = clampPage(params.Page, params.PageSize)

	entries, total, err := s.ledgerRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return entries, total, nil
}

// GetPeriodSummary aggregates the wallet's ledger over one YYYY-MM period.
func (s *reportingService) GetPeriodSummary(ctx context.Context, walletID uuid.UUID, period string) (*ports.PeriodSummary, error) {
	from, err := time.Parse("2006-01", period)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("invalid period %q: expected YYYY-MM", period))
	}
	to := from.AddDate(0, 1, 0)

	summary, err := s.ledgerRepo.GetPeriodSummary(ctx, walletID, from, to)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return summary, nil
}

// ListWithdrawals returns the wallet's withdrawal requests, newest first.
func (s *reportingService) ListWithdrawals(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.WithdrawalRequest, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	requests, total, err := s.wdRepo.ListByWallet(ctx, walletID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return requests, total, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
