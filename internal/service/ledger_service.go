package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// maxVersionRetries bounds the optimistic retry loop. Conflicts on a single
// wallet are rare; three attempts is enough to absorb a concurrent writer
// without masking a livelock.
const maxVersionRetries = 3

// LedgerServiceImpl implements ports.LedgerService. It is the only code path
// that writes balance fields: each operation reads the wallet inside a
// transaction, computes the new state, writes it conditioned on the version
// it read, and appends the matching ledger entry before committing.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	holdRepo   ports.HoldRepository
	settleRepo ports.SettlementRepository
	wdRepo     ports.WithdrawalRepository
	transactor ports.DBTransactor
	clock      ports.Clock
	holdPeriod time.Duration
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	holdRepo ports.HoldRepository,
	settleRepo ports.SettlementRepository,
	wdRepo ports.WithdrawalRepository,
	transactor ports.DBTransactor,
	clock ports.Clock,
	holdPeriod time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		holdRepo:   holdRepo,
		settleRepo: settleRepo,
		wdRepo:     wdRepo,
		transactor: transactor,
		clock:      clock,
		holdPeriod: holdPeriod,
		log:        log,
	}
}

// CreateWallet provisions the wallet for a supplier. Calling it again for the
// same supplier returns the existing wallet unchanged.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error) {
	existing, err := s.walletRepo.GetBySupplierID(ctx, supplierID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing wallet: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now().UTC()
	wallet := &domain.Wallet{
		ID:            uuid.New(),
		SupplierID:    supplierID,
		CurrentPeriod: domain.PeriodOf(now),
		Status:        domain.WalletStatusActive,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, domain.ErrWalletExists) {
			// Two first-ever events for the same supplier raced; converge on
			// the row the winner inserted.
			winner, rerr := s.walletRepo.GetBySupplierID(ctx, supplierID)
			if rerr != nil {
				return nil, apperror.InternalError(fmt.Errorf("reread wallet after create race: %w", rerr))
			}
			if winner == nil {
				return nil, apperror.InternalError(fmt.Errorf("wallet for supplier %s exists but cannot be read", supplierID))
			}
			return winner, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("supplier_id", supplierID.String()).
		Msg("wallet created")

	return wallet, nil
}

// RecordOrderEarning credits a delivered order: the net amount (gross minus
// commission) lands on the pending balance, a hold tracks it through the
// release window, and the settlement marker inserted in the same transaction
// makes a replayed event fail with domain.ErrDuplicateSettlement.
func (s *LedgerServiceImpl) RecordOrderEarning(ctx context.Context, req ports.EarningRequest) (*domain.Wallet, *domain.LedgerEntry, error) {
	if req.GrossAmount <= 0 {
		return nil, nil, apperror.ErrInvalidAmount()
	}

	commission := commissionOf(req.GrossAmount, req.CommissionRate)
	net := req.GrossAmount - commission

	var entry *domain.LedgerEntry
	wallet, err := s.runVersioned(ctx, req.WalletID, func(tx pgx.Tx, w *domain.Wallet) error {
		if !w.IsActive() {
			return apperror.ErrWalletNotActive(string(w.Status))
		}

		w.PendingBalance += net
		w.TotalEarnings += net
		w.MonthlyEarnings += net

		now := s.clock.Now().UTC()
		gross := req.GrossAmount
		fee := commission
		orderID := req.OrderID
		entry = s.newEntry(w, domain.EntryTypeOrderEarned, net, now)
		entry.GrossAmount = &gross
		entry.Commission = &fee
		entry.OrderID = &orderID
		entry.Description = "order delivered"
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return apperror.InternalError(err)
		}

		hold := &domain.PendingHold{
			ID:        uuid.New(),
			WalletID:  w.ID,
			OrderID:   req.OrderID,
			Amount:    net,
			ReleaseAt: req.OccurredAt.UTC().Add(s.holdPeriod),
			CreatedAt: now,
		}
		if err := s.holdRepo.Insert(ctx, tx, hold); err != nil {
			return apperror.InternalError(err)
		}

		settlement := &domain.OrderSettlement{
			OrderID:       req.OrderID,
			WalletID:      w.ID,
			Status:        domain.SettlementStatusSettled,
			LedgerEntryID: entry.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return s.settleRepo.Insert(ctx, tx, settlement)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("order_id", req.OrderID.String()).
		Int64("gross", req.GrossAmount).
		Int64("commission", commission).
		Int64("net", net).
		Msg("order earning recorded")

	return wallet, entry, nil
}

// ReleasePending moves a matured hold's amount from pending to available.
// A hold that was already consumed surfaces domain.ErrHoldConsumed so the
// scheduler can skip it. A pending balance smaller than the hold amount is a
// bug upstream and fails hard rather than being clamped.
func (s *LedgerServiceImpl) ReleasePending(ctx context.Context, hold domain.PendingHold) (*domain.Wallet, error) {
	wallet, err := s.runVersioned(ctx, hold.WalletID, func(tx pgx.Tx, w *domain.Wallet) error {
		now := s.clock.Now().UTC()
		if err := s.holdRepo.MarkReleased(ctx, tx, hold.ID, now); err != nil {
			return err
		}

		if w.PendingBalance < hold.Amount {
			err := fmt.Errorf("pending balance %d below hold amount %d for wallet %s order %s",
				w.PendingBalance, hold.Amount, w.ID, hold.OrderID)
			s.log.Error().Err(err).Msg("release would drive pending balance negative")
			return apperror.ErrNegativeBalanceViolation(err)
		}

		w.PendingBalance -= hold.Amount
		w.AvailableBalance += hold.Amount

		orderID := hold.OrderID
		entry := s.newEntry(w, domain.EntryTypePendingReleased, hold.Amount, now)
		entry.OrderID = &orderID
		entry.Description = "hold period elapsed"
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return apperror.InternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("order_id", hold.OrderID.String()).
		Int64("amount", hold.Amount).
		Msg("pending funds released")

	return wallet, nil
}

// RefundOrder claws back a settled order's net earning, from the pending or
// available balance depending on whether the hold already released. The
// settlement marker flips to REFUNDED in the same transaction; a second
// refund of the same order fails with domain.ErrAlreadyRefunded.
func (s *LedgerServiceImpl) RefundOrder(ctx context.Context, req ports.RefundRequest) (*domain.Wallet, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.runVersioned(ctx, req.WalletID, func(tx pgx.Tx, w *domain.Wallet) error {
		now := s.clock.Now().UTC()

		if req.FromPending {
			if w.PendingBalance < req.Amount {
				return apperror.ErrInsufficientBalance()
			}
			w.PendingBalance -= req.Amount
		} else {
			if w.AvailableBalance < req.Amount {
				return apperror.ErrInsufficientBalance()
			}
			w.AvailableBalance -= req.Amount
		}

		w.TotalEarnings -= req.Amount
		w.MonthlyEarnings -= req.Amount
		w.TotalRefunded += req.Amount

		orderID := req.OrderID
		entry := s.newEntry(w, domain.EntryTypeOrderRefunded, req.Amount, now)
		entry.OrderID = &orderID
		entry.Description = req.Description
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return apperror.InternalError(err)
		}

		if err := s.settleRepo.MarkRefunded(ctx, tx, req.OrderID, entry.ID); err != nil {
			return err
		}
		if req.HoldID != nil {
			if err := s.holdRepo.MarkRefunded(ctx, tx, *req.HoldID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("order_id", req.OrderID.String()).
		Int64("amount", req.Amount).
		Bool("from_pending", req.FromPending).
		Msg("order refunded")

	return wallet, nil
}

// ApplyAdminTransaction applies a manual correction to the available balance.
// Deductions and penalties are rejected rather than clamped when they would
// overdraw; adjustments carry a signed amount and a mandatory note.
func (s *LedgerServiceImpl) ApplyAdminTransaction(ctx context.Context, req ports.AdminTransactionRequest) (*domain.Wallet, *domain.LedgerEntry, error) {
	if !domain.AdminEntryTypes[req.EntryType] {
		return nil, nil, apperror.Validation(fmt.Sprintf("entry type %s is not an admin transaction", req.EntryType))
	}
	if req.EntryType == domain.EntryTypeAdjustment {
		if req.Note == "" {
			return nil, nil, apperror.ErrAdjustmentNoteRequired()
		}
		if req.Amount == 0 {
			return nil, nil, apperror.ErrInvalidAmount()
		}
	} else if req.Amount <= 0 {
		return nil, nil, apperror.ErrInvalidAmount()
	}

	var entry *domain.LedgerEntry
	wallet, err := s.runVersioned(ctx, req.WalletID, func(tx pgx.Tx, w *domain.Wallet) error {
		if !w.AcceptsAdminTransactions() {
			return apperror.ErrWalletNotActive(string(w.Status))
		}

		switch req.EntryType {
		case domain.EntryTypeAdminDeposit:
			w.AvailableBalance += req.Amount
		case domain.EntryTypeAdminDeduction, domain.EntryTypePenalty:
			if w.AvailableBalance < req.Amount {
				return apperror.ErrInsufficientBalance()
			}
			w.AvailableBalance -= req.Amount
		case domain.EntryTypeAdjustment:
			if w.AvailableBalance+req.Amount < 0 {
				return apperror.ErrInsufficientBalance()
			}
			w.AvailableBalance += req.Amount
		}

		now := s.clock.Now().UTC()
		adminID := req.AdminID
		entry = s.newEntry(w, req.EntryType, req.Amount, now)
		entry.AdminID = &adminID
		entry.Description = req.Note
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return apperror.InternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("admin_id", req.AdminID.String()).
		Str("entry_type", string(req.EntryType)).
		Int64("amount", req.Amount).
		Msg("admin transaction applied")

	return wallet, entry, nil
}

// RolloverMonth closes the wallet's books for periods before the given one:
// the whole available balance moves to the withdrawn total, monthly earnings
// reset, and the period marker advances. Re-running for the same period is a
// no-op thanks to the marker guard.
func (s *LedgerServiceImpl) RolloverMonth(ctx context.Context, walletID uuid.UUID, period string) (*domain.Wallet, error) {
	var moved int64
	var applied bool
	wallet, err := s.runVersioned(ctx, walletID, func(tx pgx.Tx, w *domain.Wallet) error {
		applied = false
		if w.CurrentPeriod >= period {
			return nil
		}
		applied = true

		now := s.clock.Now().UTC()
		moved = w.AvailableBalance
		w.TotalWithdrawn += moved
		w.AvailableBalance = 0
		w.MonthlyEarnings = 0
		w.CurrentPeriod = period
		w.LastWithdrawalAt = &now

		if moved > 0 {
			entry := s.newEntry(w, domain.EntryTypeWithdrawalDebited, moved, now)
			entry.Description = "monthly rollover"
			if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
				return apperror.InternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.log.Info().
			Str("wallet_id", walletID.String()).
			Str("period", period).
			Int64("moved", moved).
			Msg("monthly rollover applied")
	}
	return wallet, nil
}

// DebitWithdrawal reserves a withdrawal's funds: the amount leaves the
// available balance the moment the request is created, and the request row is
// persisted in the same transaction as the debit entry.
func (s *LedgerServiceImpl) DebitWithdrawal(ctx context.Context, request *domain.WithdrawalRequest) (*domain.Wallet, error) {
	wallet, err := s.runVersioned(ctx, request.WalletID, func(tx pgx.Tx, w *domain.Wallet) error {
		if !w.IsActive() {
			return apperror.ErrWalletNotActive(string(w.Status))
		}
		if w.AvailableBalance < request.Amount {
			return apperror.ErrInsufficientBalance()
		}

		now := s.clock.Now().UTC()
		w.AvailableBalance -= request.Amount
		w.TotalWithdrawn += request.Amount
		w.LastWithdrawalAt = &now

		entry := s.newEntry(w, domain.EntryTypeWithdrawalDebited, request.Amount, now)
		entry.Description = "withdrawal requested"
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return apperror.InternalError(err)
		}

		request.DebitEntryID = entry.ID
		request.CreatedAt = now
		request.UpdatedAt = now
		if err := s.wdRepo.Insert(ctx, tx, request); err != nil {
			return apperror.InternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("request_id", request.ID.String()).
		Int64("amount", request.Amount).
		Msg("withdrawal funds reserved")

	return wallet, nil
}

// ReverseWithdrawal credits a rejected or failed withdrawal's amount back to
// the available balance and commits the state transition atomically with the
// reversal entry. The transition is conditioned on the status the caller
// observed; losing that race surfaces domain.ErrStateConflict.
func (s *LedgerServiceImpl) ReverseWithdrawal(ctx context.Context, request *domain.WithdrawalRequest, from domain.WithdrawalStatus) (*domain.Wallet, error) {
	wallet, err := s.runVersioned(ctx, request.WalletID, func(tx pgx.Tx, w *domain.Wallet) error {
		now := s.clock.Now().UTC()
		w.AvailableBalance += request.Amount
		w.TotalWithdrawn -= request.Amount

		entry := s.newEntry(w, domain.EntryTypeWithdrawalReversed, request.Amount, now)
		entry.Description = "withdrawal " + string(request.Status)
		if err := s.ledgerRepo.Insert(ctx, tx, entry); err != nil {
			return apperror.InternalError(err)
		}

		entryID := entry.ID
		request.ReversalEntryID = &entryID
		request.UpdatedAt = now
		return s.wdRepo.UpdateStateTx(ctx, tx, request, from)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("request_id", request.ID.String()).
		Str("status", string(request.Status)).
		Int64("amount", request.Amount).
		Msg("withdrawal reservation reversed")

	return wallet, nil
}

// runVersioned executes fn against the freshly read wallet inside a database
// transaction and commits it together with the versioned wallet write. On a
// version conflict the whole read-compute-write cycle retries from scratch.
func (s *LedgerServiceImpl) runVersioned(ctx context.Context, walletID uuid.UUID, fn func(tx pgx.Tx, w *domain.Wallet) error) (*domain.Wallet, error) {
	for attempt := 1; ; attempt++ {
		wallet, err := s.attemptVersioned(ctx, walletID, fn)
		if err == nil {
			return wallet, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= maxVersionRetries {
			s.log.Warn().
				Str("wallet_id", walletID.String()).
				Int("attempts", attempt).
				Msg("giving up after repeated wallet version conflicts")
			return nil, apperror.ErrConcurrentModification()
		}
		s.log.Debug().
			Str("wallet_id", walletID.String()).
			Int("attempt", attempt).
			Msg("wallet version conflict, retrying")
	}
}

func (s *LedgerServiceImpl) attemptVersioned(ctx context.Context, walletID uuid.UUID, fn func(tx pgx.Tx, w *domain.Wallet) error) (*domain.Wallet, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDTx(ctx, dbTx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	before := *wallet
	if err := fn(dbTx, wallet); err != nil {
		return nil, err
	}

	// Nothing changed (e.g. an already rolled-over wallet): skip the write.
	if *wallet == before {
		return wallet, nil
	}

	if wallet.AvailableBalance < 0 || wallet.PendingBalance < 0 {
		err := fmt.Errorf("computed negative balance for wallet %s: available=%d pending=%d",
			wallet.ID, wallet.AvailableBalance, wallet.PendingBalance)
		s.log.Error().Err(err).Msg("balance invariant violated")
		return nil, apperror.ErrNegativeBalanceViolation(err)
	}

	if err := s.walletRepo.UpdateVersioned(ctx, dbTx, wallet); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return wallet, nil
}

// newEntry builds a ledger entry snapshotting the wallet's post-mutation
// balances.
func (s *LedgerServiceImpl) newEntry(w *domain.Wallet, entryType domain.EntryType, amount int64, at time.Time) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:             uuid.New(),
		WalletID:       w.ID,
		EntryType:      entryType,
		Amount:         amount,
		AvailableAfter: w.AvailableBalance,
		PendingAfter:   w.PendingBalance,
		CreatedAt:      at,
	}
}
