package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

type monthKey struct {
	year  int
	month int
}

// SummaryRepository is the in-process projection store used by tests and the memory profile.
type SummaryRepository struct {
	mu     sync.Mutex
	months map[monthKey]*domain.MonthlySummary
	seen   map[string]struct{}
}

func NewSummaryRepository() *SummaryRepository {
	return &SummaryRepository{
		months: make(map[monthKey]*domain.MonthlySummary),
		seen:   make(map[string]struct{}),
	}
}

func (r *SummaryRepository) Apply(_ context.Context, event domain.TransactionCreated) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[event.TransactionID]; ok {
		return false, nil
	}
	date := event.Date.UTC()
	key := monthKey{year: date.Year(), month: int(date.Month())}
	summary, ok := r.months[key]
	if !ok {
		summary = &domain.MonthlySummary{Year: key.year, Month: key.month}
		r.months[key] = summary
	}
	summary.Add(event.Type, event.CategoryID, event.Amount)
	r.seen[event.TransactionID] = struct{}{}
	return true, nil
}

func (r *SummaryRepository) Monthly(_ context.Context, year, month int) (domain.MonthlySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary, ok := r.months[monthKey{year: year, month: month}]
	if !ok {
		return domain.MonthlySummary{
			Year:              year,
			Month:             month,
			TotalIncome:       decimal.Zero,
			TotalExpense:      decimal.Zero,
			Balance:           decimal.Zero,
			ExpenseByCategory: map[string]decimal.Decimal{},
		}, nil
	}
	out := *summary
	out.ExpenseByCategory = make(map[string]decimal.Decimal, len(summary.ExpenseByCategory))
	for k, v := range summary.ExpenseByCategory {
		out.ExpenseByCategory[k] = v
	}
	return out, nil
}

var _ repository.SummaryRepository = (*SummaryRepository)(nil)
