package memory

import (
	"context"
	"sync"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

type PersonRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Person
}

func NewPersonRepository() *PersonRepository {
	return &PersonRepository{items: make(map[string]domain.Person)}
}

func (r *PersonRepository) Add(_ context.Context, person *domain.Person) error {
	if person == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[person.ID()]; ok {
		return domain.NewError(domain.ErrCodeConflict, "person already exists")
	}
	r.items[person.ID()] = *person
	return nil
}

func (r *PersonRepository) Update(_ context.Context, person *domain.Person) error {
	if person == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[person.ID()]; !ok {
		return domain.ErrPersonNotFound
	}
	r.items[person.ID()] = *person
	return nil
}

func (r *PersonRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *PersonRepository) GetByID(_ context.Context, id string) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	person, ok := r.items[id]
	if !ok {
		return nil, domain.ErrPersonNotFound
	}
	return &person, nil
}

func (r *PersonRepository) List(_ context.Context, query domain.PersonQuery, page domain.PageRequest) (domain.PagedResult[*domain.Person], error) {
	r.mu.RLock()
	all := make([]*domain.Person, 0, len(r.items))
	for _, p := range r.items {
		p := p
		all = append(all, &p)
	}
	r.mu.RUnlock()
	return domain.Paginate(all, query.Specification(), domain.PersonsByName, page), nil
}

var _ repository.PersonRepository = (*PersonRepository)(nil)
