package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func rawTxn(lmID int64, date core.Date, cents int64) core.RawTransaction {
	return core.RawTransaction{
		LMID:       lmID,
		DatePosted: date,
		Amount:     core.Money{Cents: cents},
		Currency:   "USD",
		Payee:      "Acme",
		Note:       "initial",
	}
}

func TestUpsertRawCreatesWorkingCopy(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res, err := repo.UpsertRaw(ctx, rawTxn(1, core.NewDate(2026, 3, 10), -1250))
	require.NoError(t, err)
	assert.True(t, res.Created)

	got, err := repo.GetTransaction(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1250), got.Amount.Cents)
	assert.Equal(t, "Acme", got.Payee)
	assert.Equal(t, "", got.Category)
	assert.False(t, got.Ignored)
}

func TestUpsertRawIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	raw := rawTxn(1, core.NewDate(2026, 3, 10), -1250)

	res, err := repo.UpsertRaw(ctx, raw)
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = repo.UpsertRaw(ctx, raw)
	require.NoError(t, err)
	assert.False(t, res.Created)

	n, err := repo.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertRawRefreshesProviderFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertRaw(ctx, rawTxn(1, core.NewDate(2026, 3, 10), -1250))
	require.NoError(t, err)

	updated := rawTxn(1, core.NewDate(2026, 3, 11), -1300)
	updated.Payee = "Acme Corp"
	_, err = repo.UpsertRaw(ctx, updated)
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", got.DatePosted.String())
	assert.Equal(t, int64(-1300), got.Amount.Cents)
	assert.Equal(t, "Acme Corp", got.Payee)
}

func TestUpsertRawKeepsEditedFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertRaw(ctx, rawTxn(1, core.NewDate(2026, 3, 10), -1250))
	require.NoError(t, err)

	_, err = repo.RecordEdit(ctx, 1, core.FieldPayee, "My Landlord", "Acme", "My Landlord")
	require.NoError(t, err)
	_, err = repo.RecordEdit(ctx, 1, core.FieldCategory, "rent", "", "rent")
	require.NoError(t, err)

	updated := rawTxn(1, core.NewDate(2026, 3, 10), -1250)
	updated.Payee = "ACME*PAYMENTS"
	updated.Note = "provider note"
	_, err = repo.UpsertRaw(ctx, updated)
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "My Landlord", got.Payee, "edited payee must survive resync")
	assert.Equal(t, "provider note", got.Note, "unedited note follows provider")
	assert.Equal(t, "rent", got.Category)
}

func TestRecordEditAppendsAudit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.UpsertRaw(ctx, rawTxn(1, core.NewDate(2026, 3, 10), -1250))
	require.NoError(t, err)

	rec, err := repo.RecordEdit(ctx, 1, core.FieldIgnored, true, "false", "true")
	require.NoError(t, err)
	assert.Equal(t, core.FieldIgnored, rec.Field)

	got, err := repo.GetTransaction(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Ignored)

	changes, err := repo.ListChanges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "false", changes[0].OldValue)
	assert.Equal(t, "true", changes[0].NewValue)

	has, err := repo.HasChange(ctx, 1, core.FieldIgnored)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRecordEditUnknownRow(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.RecordEdit(context.Background(), 99, core.FieldNote, "x", "", "x")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, d := range []core.Date{
		core.NewDate(2026, 3, 1),
		core.NewDate(2026, 3, 15),
		core.NewDate(2026, 4, 1),
	} {
		_, err := repo.UpsertRaw(ctx, rawTxn(int64(i+1), d, -100))
		require.NoError(t, err)
	}
	_, err := repo.RecordEdit(ctx, 2, core.FieldIgnored, true, "false", "true")
	require.NoError(t, err)

	march, err := repo.ListTransactions(ctx, TransactionFilter{
		From: core.NewDate(2026, 3, 1),
		To:   core.NewDate(2026, 3, 31),
	})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	ignored := true
	only, err := repo.ListTransactions(ctx, TransactionFilter{Ignored: &ignored})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, int64(2), only[0].LMID)
}

func TestSpentByCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateCategory(ctx, core.Category{
		ID: "groceries", Name: "Groceries", AffectsCashflow: true, Budgetable: true,
	}))
	require.NoError(t, repo.CreateCategory(ctx, core.Category{
		ID: "transfers", Name: "Transfers", AffectsCashflow: false, Budgetable: false,
	}))

	seed := []struct {
		lmID     int64
		cents    int64
		category string
		ignored  bool
	}{
		{1, -5000, "groceries", false},
		{2, -2500, "groceries", false},
		{3, 10000, "groceries", false}, // inflow, never offsets spending
		{4, -9999, "transfers", false}, // excluded from cashflow
		{5, -1111, "groceries", true},  // ignored
	}
	for _, s := range seed {
		_, err := repo.UpsertRaw(ctx, rawTxn(s.lmID, core.NewDate(2026, 3, 10), s.cents))
		require.NoError(t, err)
		if s.category != "" {
			_, err = repo.RecordEdit(ctx, s.lmID, core.FieldCategory, s.category, "", s.category)
			require.NoError(t, err)
		}
		if s.ignored {
			_, err = repo.RecordEdit(ctx, s.lmID, core.FieldIgnored, true, "false", "true")
			require.NoError(t, err)
		}
	}

	spent, err := repo.SpentByCategory(ctx, core.NewDate(2026, 3, 1), core.NewDate(2026, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(7500), spent["groceries"].Cents)
	_, excluded := spent["transfers"]
	assert.False(t, excluded)
}

func TestBudgetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateCategory(ctx, core.Category{
		ID: "groceries", Name: "Groceries", AffectsCashflow: true, Budgetable: true,
	}))

	b := core.Budget{CategoryID: "groceries", Year: 2026, Month: 3, Amount: core.Money{Cents: 40000}}
	require.NoError(t, repo.SetBudget(ctx, b))

	b.Amount.Cents = 45000
	require.NoError(t, repo.SetBudget(ctx, b))

	got, err := repo.GetBudget(ctx, "groceries", 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), got.Amount.Cents)

	_, err = repo.GetBudget(ctx, "groceries", 2026, 4)
	assert.ErrorIs(t, err, core.ErrNotFound, "budgets do not carry over")
}

func TestBillLedgerAppendOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bill := core.Bill{
		ID: "rent", Name: "Rent", Amount: core.Money{Cents: 100000},
		Currency: "USD", Frequency: core.Monthly, DayOfMonth: 1,
	}
	require.NoError(t, repo.CreateBill(ctx, bill))
	assert.ErrorIs(t, repo.CreateBill(ctx, bill), core.ErrConflict)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, cents := range []int64{50000, 50000, -100000} {
		_, err := repo.AppendLedgerEntry(ctx, "rent", core.Money{Cents: cents}, base.AddDate(0, 0, i), "")
		require.NoError(t, err)
	}

	entries, err := repo.LedgerEntries(ctx, "rent", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(-100000), entries[2].Amount.Cents)

	windowed, err := repo.LedgerEntries(ctx, "rent", base.AddDate(0, 0, 1), time.Time{})
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	_, err = repo.AppendLedgerEntry(ctx, "nope", core.Money{Cents: 1}, base, "")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedgerOrderWithinSecond(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bill := core.Bill{
		ID: "rent", Name: "Rent", Amount: core.Money{Cents: 100000},
		Currency: "USD", Frequency: core.Monthly, DayOfMonth: 1,
	}
	require.NoError(t, repo.CreateBill(ctx, bill))

	// Sub-second timestamps whose trimmed encodings (".12" vs ".1205")
	// would sort against chronological order.
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	first := base.Add(120 * time.Millisecond)
	second := base.Add(120*time.Millisecond + 500*time.Microsecond)

	_, err := repo.AppendLedgerEntry(ctx, "rent", core.Money{Cents: 1000}, second, "later")
	require.NoError(t, err)
	_, err = repo.AppendLedgerEntry(ctx, "rent", core.Money{Cents: 2000}, first, "earlier")
	require.NoError(t, err)

	entries, err := repo.LedgerEntries(ctx, "rent", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "earlier", entries[0].Note)
	assert.Equal(t, "later", entries[1].Note)
	assert.True(t, entries[0].OccurredAt.Before(entries[1].OccurredAt))
}

func TestLatestBalances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAccount(ctx, core.Account{ID: "chk", Name: "Checking", IsLiquid: true}))
	require.NoError(t, repo.UpsertAccount(ctx, core.Account{ID: "sav", Name: "Savings", IsLiquid: true}))
	require.NoError(t, repo.UpsertAccount(ctx, core.Account{ID: "nosnap", Name: "New", IsLiquid: true}))

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	snaps := []core.BalanceSnapshot{
		{AccountID: "chk", Balance: core.Money{Cents: 10000}, Currency: "USD", AsOf: asOf.AddDate(0, 0, -5)},
		{AccountID: "chk", Balance: core.Money{Cents: 12000}, Currency: "USD", AsOf: asOf.AddDate(0, 0, -1)},
		{AccountID: "chk", Balance: core.Money{Cents: 99999}, Currency: "USD", AsOf: asOf.AddDate(0, 0, 3)}, // future
		{AccountID: "sav", Balance: core.Money{Cents: 50000}, Currency: "EUR", AsOf: asOf.AddDate(0, 0, -2)},
	}
	for _, s := range snaps {
		_, err := repo.InsertSnapshot(ctx, s)
		require.NoError(t, err)
	}

	balances, err := repo.LatestBalances(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, balances, 2, "snapshot-less accounts are absent, not zero")

	byID := map[string]AccountBalance{}
	for _, b := range balances {
		byID[b.Account.ID] = b
	}
	assert.Equal(t, int64(12000), byID["chk"].Balance.Cents)
	assert.Equal(t, "EUR", byID["sav"].Currency)
}

func TestUpsertAccountPreservesLiquidity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAccount(ctx, core.Account{ID: "chk", Name: "Checking", IsLiquid: true}))
	require.NoError(t, repo.SetAccountLiquid(ctx, "chk", false))

	// A later sync refreshes metadata but not the liquidity flag.
	require.NoError(t, repo.UpsertAccount(ctx, core.Account{ID: "chk", Name: "Checking Plus", IsLiquid: true}))

	got, err := repo.GetAccount(ctx, "chk")
	require.NoError(t, err)
	assert.Equal(t, "Checking Plus", got.Name)
	assert.False(t, got.IsLiquid)
}
