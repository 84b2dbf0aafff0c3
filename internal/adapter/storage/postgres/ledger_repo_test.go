package postgres

import (
	"context"
	"testing"
	"time"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(walletID uuid.UUID) *domain.LedgerEntry {
	gross := int64(100000)
	commission := int64(10000)
	orderID := uuid.New()
	return &domain.LedgerEntry{
		ID:             uuid.New(),
		WalletID:       walletID,
		EntryType:      domain.EntryTypeOrderEarned,
		Amount:         90000,
		GrossAmount:    &gross,
		Commission:     &commission,
		AvailableAfter: 0,
		PendingAfter:   90000,
		OrderID:        &orderID,
		Description:    "order earning",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func ledgerTestColumns() []string {
	return []string{"id", "wallet_id", "entry_type", "amount", "gross_amount", "commission",
		"available_after", "pending_after", "order_id", "admin_id", "description", "created_at"}
}

func TestLedgerRepo_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := newTestEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(e.ID, e.WalletID, e.EntryType, e.Amount, e.GrossAmount, e.Commission,
			e.AvailableAfter, e.PendingAfter, e.OrderID, e.AdminID, e.Description, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Insert(context.Background(), tx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()
	e := newTestEntry(walletID)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ledger_entries").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE wallet_id .+ ORDER BY created_at DESC").
		WithArgs(walletID, 20, 0).
		WillReturnRows(pgxmock.NewRows(ledgerTestColumns()).AddRow(
			e.ID, e.WalletID, e.EntryType, e.Amount, e.GrossAmount, e.Commission,
			e.AvailableAfter, e.PendingAfter, e.OrderID, e.AdminID, e.Description, e.CreatedAt,
		))

	entries, total, err := repo.List(context.Background(), ports.LedgerListParams{
		WalletID: walletID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_List_FilterByType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()
	entryType := domain.EntryTypeWithdrawalDebited

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ledger_entries").
		WithArgs(walletID, entryType).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE wallet_id .+ entry_type").
		WithArgs(walletID, entryType, 20, 0).
		WillReturnRows(pgxmock.NewRows(ledgerTestColumns()))

	entries, total, err := repo.List(context.Background(), ports.LedgerListParams{
		WalletID:  walletID,
		EntryType: &entryType,
		Page:      1,
		PageSize:  20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetPeriodSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery("SELECT\\s+COALESCE").
		WithArgs(walletID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"earned", "commission", "refunded", "released", "withdrawn", "adjusted"}).
			AddRow(int64(90000), int64(10000), int64(0), int64(90000), int64(50000), int64(-2000)))

	summary, err := repo.GetPeriodSummary(context.Background(), walletID, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(90000), summary.Earned)
	assert.Equal(t, int64(10000), summary.Commission)
	assert.Equal(t, int64(50000), summary.Withdrawn)
	assert.Equal(t, int64(-2000), summary.Adjusted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
