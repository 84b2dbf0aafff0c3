package service

import (
	"context"
	"errors"
	"fmt"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WithdrawalServiceImpl implements ports.WithdrawalService. Funds are
// reserved the moment a request is created and credited back only through a
// reversal entry, so the wallet's available balance always reflects what is
// actually withdrawable.
type WithdrawalServiceImpl struct {
	ledger        ports.LedgerService
	wdRepo        ports.WithdrawalRepository
	walletRepo    ports.WalletRepository
	clock         ports.Clock
	minWithdrawal int64
	fee           int64
	log           zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	ledger ports.LedgerService,
	wdRepo ports.WithdrawalRepository,
	walletRepo ports.WalletRepository,
	clock ports.Clock,
	minWithdrawal int64,
	fee int64,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		ledger:        ledger,
		wdRepo:        wdRepo,
		walletRepo:    walletRepo,
		clock:         clock,
		minWithdrawal: minWithdrawal,
		fee:           fee,
		log:           log,
	}
}

// Create opens a PENDING withdrawal request and immediately debits the
// requested amount from the wallet's available balance.
func (s *WithdrawalServiceImpl) Create(ctx context.Context, req ports.CreateWithdrawalRequest) (*domain.WithdrawalRequest, *domain.Wallet, error) {
	if req.Amount < s.minWithdrawal {
		return nil, nil, apperror.ErrMinimumWithdrawalNotMet(s.minWithdrawal)
	}
	if req.Amount <= s.fee {
		return nil, nil, apperror.Validation("amount does not cover the withdrawal fee")
	}
	if req.BankName == "" || req.BankAccountNumber == "" || req.BankAccountHolder == "" {
		return nil, nil, apperror.Validation("bank name, account number and account holder are required")
	}

	request := &domain.WithdrawalRequest{
		ID:                uuid.New(),
		WalletID:          req.WalletID,
		Amount:            req.Amount,
		Fee:               s.fee,
		NetAmount:         req.Amount - s.fee,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
		BankAccountHolder: req.BankAccountHolder,
		Status:            domain.WithdrawalStatusPending,
	}

	wallet, err := s.ledger.DebitWithdrawal(ctx, request)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("request_id", request.ID.String()).
		Str("wallet_id", req.WalletID.String()).
		Int64("amount", req.Amount).
		Int64("net_amount", request.NetAmount).
		Msg("withdrawal request created")

	return request, wallet, nil
}

// MarkProcessing moves a PENDING request to PROCESSING under the given admin.
func (s *WithdrawalServiceImpl) MarkProcessing(ctx context.Context, requestID, adminID uuid.UUID) (*domain.WithdrawalRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.CanTransitionTo(domain.WithdrawalStatusProcessing) {
		return nil, apperror.ErrInvalidStateTransition(string(request.Status), string(domain.WithdrawalStatusProcessing))
	}

	from := request.Status
	now := s.clock.Now().UTC()
	request.Status = domain.WithdrawalStatusProcessing
	request.ProcessedBy = &adminID
	request.ProcessedAt = &now

	if err := s.wdRepo.UpdateState(ctx, request, from); err != nil {
		return nil, s.mapStateErr(err, from, request.Status)
	}

	s.log.Info().
		Str("request_id", requestID.String()).
		Str("admin_id", adminID.String()).
		Msg("withdrawal marked processing")

	return request, nil
}

// Complete finishes a PROCESSING request. No ledger write happens here: the
// funds already left the wallet when the request was created.
func (s *WithdrawalServiceImpl) Complete(ctx context.Context, requestID uuid.UUID, bankTransactionCode string) (*domain.WithdrawalRequest, *domain.Wallet, error) {
	if bankTransactionCode == "" {
		return nil, nil, apperror.Validation("bank transaction code is required")
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if !request.CanTransitionTo(domain.WithdrawalStatusCompleted) {
		return nil, nil, apperror.ErrInvalidStateTransition(string(request.Status), string(domain.WithdrawalStatusCompleted))
	}

	from := request.Status
	now := s.clock.Now().UTC()
	request.Status = domain.WithdrawalStatusCompleted
	request.CompletedAt = &now
	request.BankTransactionCode = &bankTransactionCode

	if err := s.wdRepo.UpdateState(ctx, request, from); err != nil {
		return nil, nil, s.mapStateErr(err, from, request.Status)
	}

	wallet, err := s.walletRepo.GetByID(ctx, request.WalletID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("read wallet: %w", err))
	}

	s.log.Info().
		Str("request_id", requestID.String()).
		Str("bank_transaction_code", bankTransactionCode).
		Int64("net_amount", request.NetAmount).
		Msg("withdrawal completed")

	return request, wallet, nil
}

// Reject cancels a request on admin decision and reverses the reservation.
func (s *WithdrawalServiceImpl) Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (*domain.WithdrawalRequest, *domain.Wallet, error) {
	if reason == "" {
		return nil, nil, apperror.Validation("rejection reason is required")
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return s.reverse(ctx, request, domain.WithdrawalStatusCancelled, &adminID, reason)
}

// Fail marks a request FAILED (e.g. the bank transfer bounced) and reverses
// the reservation.
func (s *WithdrawalServiceImpl) Fail(ctx context.Context, requestID uuid.UUID, reason string) (*domain.WithdrawalRequest, *domain.Wallet, error) {
	if reason == "" {
		return nil, nil, apperror.Validation("failure reason is required")
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return s.reverse(ctx, request, domain.WithdrawalStatusFailed, nil, reason)
}

// CancelBySupplier lets the owning supplier withdraw a request that no admin
// has picked up yet.
func (s *WithdrawalServiceImpl) CancelBySupplier(ctx context.Context, requestID, walletID uuid.UUID) (*domain.WithdrawalRequest, *domain.Wallet, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	// Ownership check doubles as existence: foreign requests look not-found.
	if request.WalletID != walletID {
		return nil, nil, apperror.ErrWithdrawalNotFound()
	}
	if request.Status != domain.WithdrawalStatusPending {
		return nil, nil, apperror.ErrInvalidStateTransition(string(request.Status), string(domain.WithdrawalStatusCancelled))
	}
	return s.reverse(ctx, request, domain.WithdrawalStatusCancelled, nil, "cancelled by supplier")
}

func (s *WithdrawalServiceImpl) reverse(ctx context.Context, request *domain.WithdrawalRequest, to domain.WithdrawalStatus, adminID *uuid.UUID, reason string) (*domain.WithdrawalRequest, *domain.Wallet, error) {
	if !request.CanTransitionTo(to) {
		return nil, nil, apperror.ErrInvalidStateTransition(string(request.Status), string(to))
	}

	from := request.Status
	now := s.clock.Now().UTC()
	request.Status = to
	request.RejectionReason = &reason
	if adminID != nil {
		request.ProcessedBy = adminID
		request.ProcessedAt = &now
	}

	wallet, err := s.ledger.ReverseWithdrawal(ctx, request, from)
	if err != nil {
		return nil, nil, s.mapStateErr(err, from, to)
	}

	s.log.Info().
		Str("request_id", request.ID.String()).
		Str("status", string(to)).
		Str("reason", reason).
		Int64("amount", request.Amount).
		Msg("withdrawal reversed")

	return request, wallet, nil
}

func (s *WithdrawalServiceImpl) getRequest(ctx context.Context, requestID uuid.UUID) (*domain.WithdrawalRequest, error) {
	request, err := s.wdRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read withdrawal request: %w", err))
	}
	if request == nil {
		return nil, apperror.ErrWithdrawalNotFound()
	}
	return request, nil
}

// mapStateErr translates a lost status race into the client-facing
// transition error.
func (s *WithdrawalServiceImpl) mapStateErr(err error, from, to domain.WithdrawalStatus) error {
	if errors.Is(err, domain.ErrStateConflict) {
		return apperror.ErrInvalidStateTransition(string(from), string(to))
	}
	return err
}
