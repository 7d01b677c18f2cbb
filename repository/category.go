package repository

import (
	"context"

	"github.com/fastygo/moneytracker/domain"
)

// CategoryLookup resolves a category reference.
type CategoryLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

// CategoryLister pages through categories matching a query.
type CategoryLister interface {
	List(ctx context.Context, query domain.CategoryQuery, page domain.PageRequest) (domain.PagedResult[*domain.Category], error)
}

type CategoryRepository interface {
	CategoryLookup
	CategoryLister
	Add(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) (bool, error)
}
