package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCategory(t *testing.T, kind CategoryType) *Category {
	t.Helper()
	c, err := NewCategory("Groceries", kind)
	require.NoError(t, err)
	return c
}

func mustPerson(t *testing.T, age int) *Person {
	t.Helper()
	p, err := NewPerson("Ada", age)
	require.NoError(t, err)
	return p
}

func TestNewCategory(t *testing.T) {
	_, err := NewCategory("   ", CategoryExpense)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	_, err = NewCategory("Food", CategoryType("other"))
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	c, err := NewCategory("  Food ", CategoryBoth)
	require.NoError(t, err)
	assert.Equal(t, "Food", c.Name())
	assert.NotEmpty(t, c.ID())
}

func TestCategoryPatch(t *testing.T) {
	c := mustCategory(t, CategoryExpense)

	empty := ""
	require.Error(t, c.Patch(&empty, nil, nil))
	assert.Equal(t, "Groceries", c.Name())

	kind := CategoryBoth
	require.NoError(t, c.Patch(nil, &kind, nil))
	assert.Equal(t, "Groceries", c.Name())
	assert.Equal(t, CategoryBoth, c.Type())

	name := "Food"
	negative := decimal.NewFromInt(-1)
	err := c.Patch(&name, nil, &negative)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Equal(t, "Groceries", c.Name())
	assert.True(t, c.MonthlyLimit().IsZero())
}

func TestCategoryMonthlyLimit(t *testing.T) {
	c := mustCategory(t, CategoryExpense)
	assert.True(t, c.MonthlyLimit().IsZero())

	tests := []struct {
		name    string
		limit   string
		wantErr bool
	}{
		{name: "zero clears the budget", limit: "0"},
		{name: "whole amount", limit: "500"},
		{name: "cents", limit: "499.99"},
		{name: "negative", limit: "-10", wantErr: true},
		{name: "sub-cent digits", limit: "100.555", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := decimal.RequireFromString(tt.limit)
			err := c.SetMonthlyLimit(limit)
			if tt.wantErr {
				assert.True(t, IsDomainError(err, ErrCodeInvalid))
				return
			}
			require.NoError(t, err)
			assert.True(t, limit.Equal(c.MonthlyLimit()))
		})
	}

	require.NoError(t, c.Update("Rent", CategoryExpense, decimal.NewFromInt(1200)))
	err := c.Update("Rent v2", CategoryExpense, decimal.NewFromInt(-1))
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Equal(t, "Rent", c.Name())
	assert.True(t, decimal.NewFromInt(1200).Equal(c.MonthlyLimit()))
}

func TestMonthlySummaryApplyBudgets(t *testing.T) {
	now := time.Now()
	food := RestoreCategory("food", "Food", CategoryExpense, decimal.NewFromInt(300), now)
	rent := RestoreCategory("rent", "Rent", CategoryExpense, decimal.NewFromInt(1000), now)
	misc := RestoreCategory("misc", "Misc", CategoryBoth, decimal.Zero, now)

	var s MonthlySummary
	s.Add(TransactionExpense, "food", decimal.RequireFromString("120.50"))
	s.Add(TransactionExpense, "rent", decimal.NewFromInt(1100))
	s.Add(TransactionExpense, "misc", decimal.NewFromInt(40))
	s.ApplyBudgets([]*Category{food, rent, misc})

	require.Len(t, s.RemainingByCategory, 2)
	assert.Equal(t, "179.5", s.RemainingByCategory["food"].String())
	assert.Equal(t, "-100", s.RemainingByCategory["rent"].String())
	assert.NotContains(t, s.RemainingByCategory, "misc")
}

func TestNewPerson(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		age     int
		wantErr bool
	}{
		{name: "valid", input: "Ada", age: 30},
		{name: "newborn", input: "Ada", age: 0},
		{name: "empty name", input: " ", age: 30, wantErr: true},
		{name: "name too long", input: strings.Repeat("a", 201), age: 30, wantErr: true},
		{name: "name at limit", input: strings.Repeat("a", 200), age: 30},
		{name: "negative age", input: "Ada", age: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPerson(tt.input, tt.age)
			if tt.wantErr {
				assert.True(t, IsDomainError(err, ErrCodeInvalid))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPersonPatchIgnoresNonPositiveAge(t *testing.T) {
	p := mustPerson(t, 30)

	zero := 0
	require.NoError(t, p.Patch(nil, &zero))
	assert.Equal(t, 30, p.Age())

	age := 31
	name := "Grace"
	require.NoError(t, p.Patch(&name, &age))
	assert.Equal(t, 31, p.Age())
	assert.Equal(t, "Grace", p.Name())
}

func TestNewTransactionBusinessRules(t *testing.T) {
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("100.50")

	tests := []struct {
		name     string
		category CategoryType
		age      int
		kind     TransactionType
		rule     string
	}{
		{name: "minor income", category: CategoryBoth, age: 16, kind: TransactionIncome, rule: RuleMinorIncome},
		{name: "minor expense", category: CategoryBoth, age: 16, kind: TransactionExpense},
		{name: "expense category income", category: CategoryExpense, age: 30, kind: TransactionIncome, rule: RuleCategoryType},
		{name: "income category expense", category: CategoryIncome, age: 30, kind: TransactionExpense, rule: RuleCategoryType},
		{name: "both accepts income", category: CategoryBoth, age: 30, kind: TransactionIncome},
		{name: "both accepts expense", category: CategoryBoth, age: 30, kind: TransactionExpense},
		{name: "adult at boundary", category: CategoryIncome, age: 18, kind: TransactionIncome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction(amount, tt.kind, mustCategory(t, tt.category), mustPerson(t, tt.age), date, "x")
			if tt.rule != "" {
				require.Error(t, err)
				assert.True(t, IsDomainError(err, ErrCodeBusinessRule))
				assert.Contains(t, err.Error(), tt.rule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tx.Type())
		})
	}
}

func TestNewTransaction(t *testing.T) {
	category := mustCategory(t, CategoryExpense)
	person := mustPerson(t, 30)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := NewTransaction(decimal.Zero, TransactionExpense, category, person, date, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	tx, err := NewTransaction(decimal.RequireFromString("100.50"), TransactionExpense, category, person, date, "  lunch  ")
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID())
	assert.Equal(t, "lunch", tx.Description())
	assert.Equal(t, category.ID(), tx.CategoryID())
	assert.Equal(t, person.ID(), tx.PersonID())
	assert.True(t, tx.Amount().Value().Equal(decimal.RequireFromString("100.50")))
}

func TestTransactionUpdate(t *testing.T) {
	tx := RestoreTransaction("t1", decimal.NewFromInt(10), TransactionExpense, "c1", "p1", time.Now(), "", time.Now())

	err := tx.Update(decimal.NewFromInt(5), TransactionExpense, " ", "p1", time.Now(), "")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Equal(t, "c1", tx.CategoryID())

	err = tx.Update(decimal.Zero, TransactionExpense, "c2", "p1", time.Now(), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Update does not consult the category or person, so any non-empty ids are accepted.
	require.NoError(t, tx.Update(decimal.NewFromInt(7), TransactionIncome, "c2", "p2", time.Now(), " note "))
	assert.Equal(t, "c2", tx.CategoryID())
	assert.Equal(t, TransactionIncome, tx.Type())
	assert.Equal(t, "note", tx.Description())
}

func TestTransactionPatchDescriptionOnly(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tx := RestoreTransaction("t1", decimal.RequireFromString("9.99"), TransactionExpense, "c1", "p1", date, "old", date)

	desc := "  new  "
	require.NoError(t, tx.Patch(TransactionPatch{Description: &desc}))

	assert.Equal(t, "new", tx.Description())
	assert.True(t, tx.Amount().Value().Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, TransactionExpense, tx.Type())
	assert.Equal(t, "c1", tx.CategoryID())
	assert.Equal(t, date, tx.Date())
}

func TestTransactionPatchIsAtomic(t *testing.T) {
	tx := RestoreTransaction("t1", decimal.NewFromInt(1), TransactionExpense, "c1", "p1", time.Now(), "old", time.Now())

	amount := decimal.NewFromInt(3)
	empty := ""
	err := tx.Patch(TransactionPatch{Amount: &amount, CategoryID: &empty})
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.True(t, tx.Amount().Value().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "c1", tx.CategoryID())
}

func TestTransactionDescriptionLength(t *testing.T) {
	category := mustCategory(t, CategoryExpense)
	person := mustPerson(t, 30)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	longest := strings.Repeat("é", MaxDescriptionLength)
	tooLong := longest + "x"

	tx, err := NewTransaction(decimal.NewFromInt(5), TransactionExpense, category, person, date, "  "+longest+"  ")
	require.NoError(t, err)
	assert.Equal(t, longest, tx.Description())

	_, err = NewTransaction(decimal.NewFromInt(5), TransactionExpense, category, person, date, tooLong)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	err = tx.Update(decimal.NewFromInt(5), TransactionExpense, "c1", "p1", date, tooLong)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Equal(t, longest, tx.Description())

	err = tx.Patch(TransactionPatch{Description: &tooLong})
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Equal(t, longest, tx.Description())
}
