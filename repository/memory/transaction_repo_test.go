package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/moneytracker/domain"
)

func seedTransactions(t *testing.T, repo *TransactionRepository, n int) {
	t.Helper()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		tx := domain.RestoreTransaction(
			fmt.Sprintf("t%02d", i), decimal.NewFromInt(int64(i)), domain.TransactionExpense,
			"c1", "p1", base.Add(time.Duration(i)*time.Hour), "", base,
		)
		require.NoError(t, repo.Add(context.Background(), tx))
	}
}

func TestTransactionRepositoryList(t *testing.T) {
	repo := NewTransactionRepository()
	seedTransactions(t, repo, 25)

	page, err := repo.List(context.Background(), domain.TransactionQuery{CategoryID: "c1"}, domain.PageRequest{Number: 2, Size: 10})
	require.NoError(t, err)

	require.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasPrevious())
	assert.True(t, page.HasNext())
	assert.Equal(t, "t15", page.Items[0].ID())
	assert.Equal(t, "t06", page.Items[9].ID())

	count, err := repo.Count(context.Background(), domain.TransactionQuery{CategoryID: "missing"})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	seedTransactions(t, repo, 1)

	deleted, err := repo.Delete(ctx, "t01")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, "t01")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	deleted, err = repo.Delete(ctx, "t01")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTransactionRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	seedTransactions(t, repo, 1)

	got, err := repo.GetByID(ctx, "t01")
	require.NoError(t, err)
	desc := "changed"
	require.NoError(t, got.Patch(domain.TransactionPatch{Description: &desc}))

	again, err := repo.GetByID(ctx, "t01")
	require.NoError(t, err)
	assert.Empty(t, again.Description())
}

func TestSummarizeByPerson(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	now := time.Now()
	require.NoError(t, repo.Add(ctx, domain.RestoreTransaction("a", decimal.RequireFromString("1000"), domain.TransactionIncome, "c", "p1", now, "", now)))
	require.NoError(t, repo.Add(ctx, domain.RestoreTransaction("b", decimal.RequireFromString("250.25"), domain.TransactionExpense, "c", "p1", now, "", now)))
	require.NoError(t, repo.Add(ctx, domain.RestoreTransaction("c", decimal.RequireFromString("5"), domain.TransactionExpense, "c", "p2", now, "", now)))

	summary, err := repo.SummarizeByPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("749.75")))
}

func TestSummaryRepositoryApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSummaryRepository()
	event := domain.TransactionCreated{
		TransactionID: "t1",
		Amount:        decimal.RequireFromString("12.50"),
		Type:          domain.TransactionExpense,
		CategoryID:    "food",
		Date:          time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}

	applied, err := repo.Apply(ctx, event)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Apply(ctx, event)
	require.NoError(t, err)
	assert.False(t, applied)

	summary, err := repo.Monthly(ctx, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.True(t, summary.TotalExpense.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, summary.ExpenseByCategory["food"].Equal(decimal.RequireFromString("12.50")))
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("-12.50")))
}
