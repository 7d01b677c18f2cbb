package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

// TransactionRepository keeps transactions in a map and evaluates queries
// through their specifications.
type TransactionRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{items: make(map[string]domain.Transaction)}
}

func (r *TransactionRepository) Add(_ context.Context, tx *domain.Transaction) error {
	if tx == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[tx.ID()]; ok {
		return domain.NewError(domain.ErrCodeConflict, "transaction already exists")
	}
	r.items[tx.ID()] = *tx
	return nil
}

func (r *TransactionRepository) Update(_ context.Context, tx *domain.Transaction) error {
	if tx == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[tx.ID()]; !ok {
		return domain.ErrTransactionNotFound
	}
	r.items[tx.ID()] = *tx
	return nil
}

func (r *TransactionRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.items[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &tx, nil
}

func (r *TransactionRepository) List(_ context.Context, query domain.TransactionQuery, page domain.PageRequest) (domain.PagedResult[*domain.Transaction], error) {
	return domain.Paginate(r.snapshot(), query.Specification(), domain.TransactionsByDateDesc, page), nil
}

func (r *TransactionRepository) Count(_ context.Context, query domain.TransactionQuery) (int, error) {
	spec := query.Specification()
	count := 0
	for _, tx := range r.snapshot() {
		if spec.IsSatisfiedBy(tx) {
			count++
		}
	}
	return count, nil
}

func (r *TransactionRepository) SummarizeByPerson(_ context.Context, personID string) (domain.PersonSummary, error) {
	summary := domain.PersonSummary{
		PersonID:     personID,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, tx := range r.snapshot() {
		if tx.PersonID() != personID {
			continue
		}
		switch tx.Type() {
		case domain.TransactionIncome:
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount().Value())
		case domain.TransactionExpense:
			summary.TotalExpense = summary.TotalExpense.Add(tx.Amount().Value())
		}
		summary.Count++
	}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)
	return summary, nil
}

func (r *TransactionRepository) snapshot() []*domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(r.items))
	for _, tx := range r.items {
		tx := tx
		out = append(out, &tx)
	}
	return out
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
