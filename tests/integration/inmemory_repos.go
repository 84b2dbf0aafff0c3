package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.SupplierID == w.SupplierID {
			return domain.ErrWalletExists
		}
	}
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetBySupplierID(ctx context.Context, supplierID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.SupplierID == supplierID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateVersioned(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.wallets[w.ID]
	if !ok || stored.Version != w.Version {
		return domain.ErrVersionConflict
	}
	w.Version++
	w.UpdatedAt = time.Now().UTC()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WalletStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Status = status
	w.Version++
	return nil
}

func (r *inMemoryWalletRepo) ListForRollover(ctx context.Context, period string, limit int) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.Status != domain.WalletStatusActive || w.CurrentPeriod >= period {
			continue
		}
		if w.AvailableBalance == 0 && w.MonthlyEarnings == 0 {
			continue
		}
		result = append(result, *w)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Insert(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryLedgerRepo) List(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.LedgerEntry
	for _, e := range r.entries {
		if e.WalletID != params.WalletID {
			continue
		}
		if params.EntryType != nil && e.EntryType != *params.EntryType {
			continue
		}
		if params.From != nil && e.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && e.CreatedAt.After(*params.To) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.LedgerEntry{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *inMemoryLedgerRepo) GetPeriodSummary(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*ports.PeriodSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary := &ports.PeriodSummary{}
	for _, e := range r.entries {
		if e.WalletID != walletID || e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		switch e.EntryType {
		case domain.EntryTypeOrderEarned:
			summary.Earned += e.Amount
			if e.Commission != nil {
				summary.Commission += *e.Commission
			}
		case domain.EntryTypeOrderRefunded:
			summary.Refunded += e.Amount
		case domain.EntryTypePendingReleased:
			summary.Released += e.Amount
		case domain.EntryTypeWithdrawalDebited:
			summary.Withdrawn += e.Amount
		case domain.EntryTypeWithdrawalReversed:
			summary.Withdrawn -= e.Amount
		case domain.EntryTypeAdminDeposit:
			summary.Adjusted += e.Amount
		case domain.EntryTypeAdminDeduction, domain.EntryTypePenalty:
			summary.Adjusted -= e.Amount
		case domain.EntryTypeAdjustment:
			summary.Adjusted += e.Amount
		}
	}
	return summary, nil
}

// --- In-Memory Hold Repo ---

type inMemoryHoldRepo struct {
	mu    sync.RWMutex
	holds map[uuid.UUID]*domain.PendingHold
}

func newInMemoryHoldRepo() *inMemoryHoldRepo {
	return &inMemoryHoldRepo{holds: make(map[uuid.UUID]*domain.PendingHold)}
}

func (r *inMemoryHoldRepo) Insert(ctx context.Context, tx pgx.Tx, h *domain.PendingHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *h
	r.holds[h.ID] = &cp
	return nil
}

func (r *inMemoryHoldRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PendingHold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.holds {
		if h.OrderID == orderID {
			cp := *h
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryHoldRepo) ListMatured(ctx context.Context, before time.Time, limit int) ([]domain.PendingHold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PendingHold
	for _, h := range r.holds {
		if h.Consumed() || h.ReleaseAt.After(before) {
			continue
		}
		result = append(result, *h)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *inMemoryHoldRepo) MarkReleased(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[holdID]
	if !ok {
		return fmt.Errorf("hold not found")
	}
	if h.Consumed() {
		return domain.ErrHoldConsumed
	}
	h.ReleasedAt = &at
	return nil
}

func (r *inMemoryHoldRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[holdID]
	if !ok {
		return fmt.Errorf("hold not found")
	}
	if h.Consumed() {
		return domain.ErrHoldConsumed
	}
	h.RefundedAt = &at
	return nil
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu          sync.RWMutex
	settlements map[uuid.UUID]*domain.OrderSettlement
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{settlements: make(map[uuid.UUID]*domain.OrderSettlement)}
}

func (r *inMemorySettlementRepo) Insert(ctx context.Context, tx pgx.Tx, s *domain.OrderSettlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.settlements[s.OrderID]; exists {
		return domain.ErrDuplicateSettlement
	}
	cp := *s
	r.settlements[s.OrderID] = &cp
	return nil
}

func (r *inMemorySettlementRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.OrderSettlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settlements[orderID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *inMemorySettlementRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[orderID]
	if !ok {
		return fmt.Errorf("settlement not found")
	}
	if s.Status == domain.SettlementStatusRefunded {
		return domain.ErrAlreadyRefunded
	}
	s.Status = domain.SettlementStatusRefunded
	s.LedgerEntryID = entryID
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.WithdrawalRequest
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{requests: make(map[uuid.UUID]*domain.WithdrawalRequest)}
}

func (r *inMemoryWithdrawalRepo) Insert(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) UpdateState(ctx context.Context, req *domain.WithdrawalRequest, from domain.WithdrawalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[req.ID]
	if !ok {
		return fmt.Errorf("withdrawal request not found")
	}
	if stored.Status != from {
		return domain.ErrStateConflict
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) UpdateStateTx(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest, from domain.WithdrawalStatus) error {
	return r.UpdateState(ctx, req, from)
}

func (r *inMemoryWithdrawalRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, page, pageSize int) ([]domain.WithdrawalRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.WithdrawalRequest
	for _, req := range r.requests {
		if req.WalletID == walletID {
			matched = append(matched, *req)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.WithdrawalRequest{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes ledger transactions behind one mutex so a
// multi-step write (entry + marker + versioned wallet update) lands atomically,
// matching what a real database transaction guarantees.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{release: &t.mu}, nil
}

// serialTx holds the transactor lock until Commit or Rollback.
type serialTx struct {
	mu       sync.Mutex
	release  *sync.Mutex
	finished bool
}

func (t *serialTx) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.finished {
		t.finished = true
		t.release.Unlock()
	}
}

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serialTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *serialTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serialTx) Conn() *pgx.Conn { return nil }
