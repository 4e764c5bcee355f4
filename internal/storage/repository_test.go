package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestSQLiteRepository_ReplaceAndListTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	txs := []core.Transaction{
		{ID: "t1", Title: "Groceries", Amount: dec(t, "42.50"), Category: "Food", Date: core.Date{Year: 2024, Month: 1, Day: 15}},
		{ID: "t2", Title: "Bus pass", Amount: dec(t, "19.99"), Category: "", Date: core.Date{Year: 2024, Month: 2, Day: 1}},
	}

	require.NoError(t, repo.ReplaceTransactions(ctx, "u1", txs))

	got, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "t2", got[0].ID)
	assert.Equal(t, "t1", got[1].ID)
	assert.True(t, got[1].Amount.Equal(dec(t, "42.50")), "amount should round-trip exactly, got %s", got[1].Amount)
	assert.Equal(t, "Food", got[1].Category)
	assert.Equal(t, core.Date{Year: 2024, Month: 1, Day: 15}, got[1].Date)
	assert.Equal(t, "u1", got[1].OwnerID)
}

func TestSQLiteRepository_ReplaceTransactionsIsFullSwap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.Transaction{
		{ID: "t1", Title: "Old", Amount: dec(t, "1"), Date: core.Date{Year: 2024, Month: 1, Day: 1}},
	}
	require.NoError(t, repo.ReplaceTransactions(ctx, "u1", first))

	second := []core.Transaction{
		{ID: "t2", Title: "New", Amount: dec(t, "2"), Date: core.Date{Year: 2024, Month: 1, Day: 2}},
	}
	require.NoError(t, repo.ReplaceTransactions(ctx, "u1", second))

	got, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].ID)
}

func TestSQLiteRepository_TransactionsScopedByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceTransactions(ctx, "u1", []core.Transaction{
		{ID: "t1", Title: "Mine", Amount: dec(t, "5"), Date: core.Date{Year: 2024, Month: 3, Day: 1}},
	}))
	require.NoError(t, repo.ReplaceTransactions(ctx, "u2", []core.Transaction{
		{ID: "t2", Title: "Theirs", Amount: dec(t, "7"), Date: core.Date{Year: 2024, Month: 3, Day: 2}},
	}))

	got, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)

	// Replacing one owner's set leaves the other untouched.
	require.NoError(t, repo.ReplaceTransactions(ctx, "u1", nil))
	got, err = repo.ListTransactions(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteRepository_ReplaceAndListEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []core.LendBorrowEntry{
		{
			ID:               "e1",
			CounterpartyName: "Alice",
			CounterpartyID:   "u9",
			Amount:           dec(t, "100"),
			Type:             core.TypeLent,
			Reason:           "Concert tickets",
			Date:             core.Date{Year: 2024, Month: 4, Day: 10},
			Status:           core.StatusPending,
		},
		{
			ID:               "e2",
			CounterpartyName: "Bob",
			Amount:           dec(t, "30"),
			Type:             core.TypeBorrowed,
			Date:             core.Date{Year: 2024, Month: 4, Day: 12},
			// Empty status is normalized to pending on write.
		},
	}

	require.NoError(t, repo.ReplaceEntries(ctx, "u1", entries))

	got, err := repo.ListEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, core.StatusPending, got[0].Status)
	assert.Equal(t, core.TypeBorrowed, got[0].Type)

	assert.Equal(t, "Alice", got[1].CounterpartyName)
	assert.Equal(t, "u9", got[1].CounterpartyID)
	assert.True(t, got[1].Amount.Equal(dec(t, "100")))
	assert.Equal(t, "Concert tickets", got[1].Reason)
}

func TestSQLiteRepository_SyncState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	state, err := repo.GetSyncState(ctx, ResourceExpenses)
	require.NoError(t, err)
	assert.Nil(t, state, "never-synced resource has no state")

	require.NoError(t, repo.SetSyncState(ctx, ResourceExpenses, 3))

	state, err = repo.GetSyncState(ctx, ResourceExpenses)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ResourceExpenses, state.Resource)
	assert.Equal(t, uint64(3), state.Sequence)
	assert.False(t, state.SyncedAt.IsZero())

	// Upsert replaces the sequence.
	require.NoError(t, repo.SetSyncState(ctx, ResourceExpenses, 7))
	state, err = repo.GetSyncState(ctx, ResourceExpenses)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), state.Sequence)
}

func TestSQLiteRepository_EmptyMirror(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	txs, err := repo.ListTransactions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, txs)

	entries, err := repo.ListEntries(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
