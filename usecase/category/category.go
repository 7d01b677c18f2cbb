package category

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
	"github.com/fastygo/moneytracker/usecase/transaction"
)

// View is the external representation of a category.
type View struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         domain.CategoryType `json:"type"`
	MonthlyLimit decimal.Decimal     `json:"monthlyLimit"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func NewView(c *domain.Category) View {
	return View{
		ID:           c.ID(),
		Name:         c.Name(),
		Type:         c.Type(),
		MonthlyLimit: c.MonthlyLimit(),
		CreatedAt:    c.CreatedAt(),
	}
}

type UseCase struct {
	categories   repository.CategoryRepository
	transactions repository.TransactionRepository
	logger       *zap.Logger
}

func New(categories repository.CategoryRepository, transactions repository.TransactionRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		categories:   categories,
		transactions: transactions,
		logger:       logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, name string, kind domain.CategoryType, monthlyLimit decimal.Decimal) (*View, error) {
	category, err := domain.NewCategory(name, kind)
	if err != nil {
		return nil, err
	}
	if err := category.SetMonthlyLimit(monthlyLimit); err != nil {
		return nil, err
	}
	if err := uc.categories.Add(ctx, category); err != nil {
		return nil, err
	}
	view := NewView(category)
	return &view, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*View, error) {
	category, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewView(category)
	return &view, nil
}

func (uc *UseCase) Update(ctx context.Context, id, name string, kind domain.CategoryType, monthlyLimit decimal.Decimal) (*View, error) {
	category, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(name, kind, monthlyLimit); err != nil {
		return nil, err
	}
	if err := uc.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	view := NewView(category)
	return &view, nil
}

func (uc *UseCase) Patch(ctx context.Context, id string, name *string, kind *domain.CategoryType, monthlyLimit *decimal.Decimal) (*View, error) {
	category, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Patch(name, kind, monthlyLimit); err != nil {
		return nil, err
	}
	if err := uc.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	view := NewView(category)
	return &view, nil
}

// Delete refuses to remove a category that transactions still reference.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.categories.GetByID(ctx, id); err != nil {
		return err
	}
	inUse, err := uc.transactions.Count(ctx, domain.TransactionQuery{CategoryID: id})
	if err != nil {
		return err
	}
	if inUse > 0 {
		return domain.ErrCategoryInUse
	}
	deleted, err := uc.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrCategoryNotFound
	}
	uc.logger.Info("category deleted", zap.String("category_id", id))
	return nil
}

func (uc *UseCase) List(ctx context.Context, query domain.CategoryQuery, page domain.PageRequest) (domain.PagedResult[View], error) {
	page = page.Normalize()
	if err := page.Validate(); err != nil {
		return domain.PagedResult[View]{}, err
	}
	result, err := uc.categories.List(ctx, query, page)
	if err != nil {
		return domain.PagedResult[View]{}, err
	}
	return domain.MapPaged(result, NewView), nil
}

// Transactions lists the transactions filed under the category.
func (uc *UseCase) Transactions(ctx context.Context, id string, page domain.PageRequest) (domain.PagedResult[transaction.View], error) {
	if _, err := uc.categories.GetByID(ctx, id); err != nil {
		return domain.PagedResult[transaction.View]{}, err
	}
	page = page.Normalize()
	if err := page.Validate(); err != nil {
		return domain.PagedResult[transaction.View]{}, err
	}
	result, err := uc.transactions.List(ctx, domain.TransactionQuery{CategoryID: id}, page)
	if err != nil {
		return domain.PagedResult[transaction.View]{}, err
	}
	return domain.MapPaged(result, transaction.NewView), nil
}
