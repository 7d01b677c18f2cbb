package repository

import (
	"context"

	"github.com/fastygo/moneytracker/domain"
)

// PersonLookup resolves a person reference.
type PersonLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
}

type PersonRepository interface {
	PersonLookup
	Add(ctx context.Context, person *domain.Person) error
	Update(ctx context.Context, person *domain.Person) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, query domain.PersonQuery, page domain.PageRequest) (domain.PagedResult[*domain.Person], error)
}
