package repository

import (
	"context"

	"github.com/fastygo/moneytracker/domain"
)

// TransactionRepository persists transactions. GetByID returns
// domain.ErrTransactionNotFound when the id is absent.
type TransactionRepository interface {
	Add(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	List(ctx context.Context, query domain.TransactionQuery, page domain.PageRequest) (domain.PagedResult[*domain.Transaction], error)
	Count(ctx context.Context, query domain.TransactionQuery) (int, error)
	SummarizeByPerson(ctx context.Context, personID string) (domain.PersonSummary, error)
}
