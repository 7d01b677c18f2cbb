package memory

import (
	"context"
	"sync"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

type CategoryRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Category
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{items: make(map[string]domain.Category)}
}

func (r *CategoryRepository) Add(_ context.Context, category *domain.Category) error {
	if category == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[category.ID()]; ok {
		return domain.NewError(domain.ErrCodeConflict, "category already exists")
	}
	r.items[category.ID()] = *category
	return nil
}

func (r *CategoryRepository) Update(_ context.Context, category *domain.Category) error {
	if category == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[category.ID()]; !ok {
		return domain.ErrCategoryNotFound
	}
	r.items[category.ID()] = *category
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *CategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	category, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &category, nil
}

func (r *CategoryRepository) List(_ context.Context, query domain.CategoryQuery, page domain.PageRequest) (domain.PagedResult[*domain.Category], error) {
	r.mu.RLock()
	all := make([]*domain.Category, 0, len(r.items))
	for _, c := range r.items {
		c := c
		all = append(all, &c)
	}
	r.mu.RUnlock()
	return domain.Paginate(all, query.Specification(), domain.CategoriesByName, page), nil
}

var _ repository.CategoryRepository = (*CategoryRepository)(nil)
