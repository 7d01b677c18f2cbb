package domain

import "github.com/shopspring/decimal"

// PersonSummary totals a person's transactions.
type PersonSummary struct {
	PersonID     string          `json:"personId"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int             `json:"count"`
}

// MonthlySummary is the projection maintained by the transaction worker.
// RemainingByCategory is limit minus spent for every budgeted category and goes
// negative once a budget is overspent.
type MonthlySummary struct {
	Year                int                        `json:"year"`
	Month               int                        `json:"month"`
	TotalIncome         decimal.Decimal            `json:"totalIncome"`
	TotalExpense        decimal.Decimal            `json:"totalExpense"`
	Balance             decimal.Decimal            `json:"balance"`
	Count               int                        `json:"count"`
	ExpenseByCategory   map[string]decimal.Decimal `json:"expenseByCategory"`
	RemainingByCategory map[string]decimal.Decimal `json:"remainingByCategory"`
}

// Add folds one transaction into the summary.
func (s *MonthlySummary) Add(kind TransactionType, categoryID string, amount decimal.Decimal) {
	if s.ExpenseByCategory == nil {
		s.ExpenseByCategory = make(map[string]decimal.Decimal)
	}
	switch kind {
	case TransactionIncome:
		s.TotalIncome = s.TotalIncome.Add(amount)
	case TransactionExpense:
		s.TotalExpense = s.TotalExpense.Add(amount)
		s.ExpenseByCategory[categoryID] = s.ExpenseByCategory[categoryID].Add(amount)
	}
	s.Count++
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
}

// ApplyBudgets fills RemainingByCategory from the categories' monthly limits.
// Categories without a limit are left out.
func (s *MonthlySummary) ApplyBudgets(categories []*Category) {
	s.RemainingByCategory = make(map[string]decimal.Decimal)
	for _, c := range categories {
		if !c.MonthlyLimit().IsPositive() {
			continue
		}
		s.RemainingByCategory[c.ID()] = c.MonthlyLimit().Sub(s.ExpenseByCategory[c.ID()])
	}
}

// ValidateMonth rejects out-of-range periods.
func ValidateMonth(year, month int) error {
	if year < 1 {
		return NewInvalidArgument("year", "must be positive")
	}
	if month < 1 || month > 12 {
		return NewInvalidArgument("month", "must be between 1 and 12")
	}
	return nil
}
