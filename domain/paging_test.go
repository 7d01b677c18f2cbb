package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecificationComposition(t *testing.T) {
	var empty Specification[int]
	assert.True(t, empty.IsSatisfiedBy(42))

	even := empty.Where(func(v int) bool { return v%2 == 0 })
	big := even.Where(func(v int) bool { return v > 10 })

	assert.True(t, even.IsSatisfiedBy(4))
	assert.False(t, big.IsSatisfiedBy(4), "second criterion must be ANDed, not replace the first")
	assert.False(t, big.IsSatisfiedBy(13))
	assert.True(t, big.IsSatisfiedBy(12))
	assert.Equal(t, 1, even.Len(), "Where must not modify the receiver")

	positive := empty.Where(func(v int) bool { return v > 0 })
	left := even.And(big).And(positive)
	right := even.And(big.And(positive))
	for _, v := range []int{-12, 3, 4, 12, 13} {
		assert.Equal(t, left.IsSatisfiedBy(v), right.IsSatisfiedBy(v), "value %d", v)
	}
}

func TestPaginateTransactions(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var items []*Transaction
	for i := 1; i <= 25; i++ {
		items = append(items, RestoreTransaction(
			fmt.Sprintf("t%02d", i), decimal.NewFromInt(int64(i)), TransactionExpense,
			"c1", "p1", base.AddDate(0, 0, i), "", base,
		))
	}
	// Noise that the filter must drop.
	items = append(items, RestoreTransaction("other", decimal.NewFromInt(1), TransactionExpense, "c2", "p1", base, "", base))

	spec := TransactionQuery{CategoryID: "c1"}.Specification()
	page := Paginate(items, spec, TransactionsByDateDesc, PageRequest{Number: 2, Size: 10})

	require.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasPrevious())
	assert.True(t, page.HasNext())
	// Newest first: page 2 holds the 11th..20th newest, i.e. days 15 down to 6.
	assert.Equal(t, "t15", page.Items[0].ID())
	assert.Equal(t, "t06", page.Items[9].ID())
}

func TestPaginateBeyondLastPage(t *testing.T) {
	page := Paginate([]int{1, 2, 3}, Specification[int]{}, nil, PageRequest{Number: 5, Size: 2})
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages())
	assert.False(t, page.HasNext())
}

func TestPageRequest(t *testing.T) {
	p := PageRequest{}.Normalize()
	assert.Equal(t, PageRequest{Number: 1, Size: 50}, p)
	assert.NoError(t, p.Validate())

	assert.Error(t, PageRequest{Number: 1, Size: 201}.Validate())
	assert.Error(t, PageRequest{Number: -1, Size: 10}.Validate())
	assert.Equal(t, 20, PageRequest{Number: 3, Size: 10}.Offset())
}

func TestMapPaged(t *testing.T) {
	in := NewPagedResult([]int{1, 2}, PageRequest{Number: 1, Size: 2}, 5)
	out := MapPaged(in, func(v int) string { return fmt.Sprint(v * 10) })
	assert.Equal(t, []string{"10", "20"}, out.Items)
	assert.Equal(t, 5, out.TotalCount)
	assert.Equal(t, 3, out.TotalPages())
}

func TestPersonAndCategoryQueries(t *testing.T) {
	now := time.Now()
	persons := []*Person{
		RestorePerson("1", "Zoe", 20, now),
		RestorePerson("2", "adam", 30, now),
		RestorePerson("3", "Adele", 30, now),
	}
	age := 30
	page := Paginate(persons, PersonQuery{NameContains: "AD", Age: &age}.Specification(), PersonsByName, PageRequest{Number: 1, Size: 10})
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Adele", page.Items[0].Name())

	kind := CategoryIncome
	cats := []*Category{
		RestoreCategory("1", "Salary", CategoryIncome, decimal.Zero, now),
		RestoreCategory("2", "Rent", CategoryExpense, decimal.NewFromInt(900), now),
	}
	got := Paginate(cats, CategoryQuery{Type: &kind}.Specification(), CategoriesByName, PageRequest{Number: 1, Size: 10})
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Salary", got.Items[0].Name())
}
