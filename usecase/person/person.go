package person

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
	"github.com/fastygo/moneytracker/usecase/transaction"
)

// View is the external representation of a person.
type View struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewView(p *domain.Person) View {
	return View{ID: p.ID(), Name: p.Name(), Age: p.Age(), CreatedAt: p.CreatedAt()}
}

type UseCase struct {
	persons      repository.PersonRepository
	transactions repository.TransactionRepository
	logger       *zap.Logger
}

func New(persons repository.PersonRepository, transactions repository.TransactionRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		persons:      persons,
		transactions: transactions,
		logger:       logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, name string, age int) (*View, error) {
	person, err := domain.NewPerson(name, age)
	if err != nil {
		return nil, err
	}
	if err := uc.persons.Add(ctx, person); err != nil {
		return nil, err
	}
	view := NewView(person)
	return &view, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*View, error) {
	person, err := uc.persons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewView(person)
	return &view, nil
}

func (uc *UseCase) Update(ctx context.Context, id, name string, age int) (*View, error) {
	person, err := uc.persons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := person.Update(name, age); err != nil {
		return nil, err
	}
	if err := uc.persons.Update(ctx, person); err != nil {
		return nil, err
	}
	view := NewView(person)
	return &view, nil
}

func (uc *UseCase) Patch(ctx context.Context, id string, name *string, age *int) (*View, error) {
	person, err := uc.persons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := person.Patch(name, age); err != nil {
		return nil, err
	}
	if err := uc.persons.Update(ctx, person); err != nil {
		return nil, err
	}
	view := NewView(person)
	return &view, nil
}

// Delete refuses to remove a person that transactions still reference.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.persons.GetByID(ctx, id); err != nil {
		return err
	}
	inUse, err := uc.transactions.Count(ctx, domain.TransactionQuery{PersonID: id})
	if err != nil {
		return err
	}
	if inUse > 0 {
		return domain.ErrPersonInUse
	}
	deleted, err := uc.persons.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrPersonNotFound
	}
	uc.logger.Info("person deleted", zap.String("person_id", id))
	return nil
}

func (uc *UseCase) List(ctx context.Context, query domain.PersonQuery, page domain.PageRequest) (domain.PagedResult[View], error) {
	page = page.Normalize()
	if err := page.Validate(); err != nil {
		return domain.PagedResult[View]{}, err
	}
	result, err := uc.persons.List(ctx, query, page)
	if err != nil {
		return domain.PagedResult[View]{}, err
	}
	return domain.MapPaged(result, NewView), nil
}

// Transactions lists the transactions owned by the person.
func (uc *UseCase) Transactions(ctx context.Context, id string, page domain.PageRequest) (domain.PagedResult[transaction.View], error) {
	if _, err := uc.persons.GetByID(ctx, id); err != nil {
		return domain.PagedResult[transaction.View]{}, err
	}
	page = page.Normalize()
	if err := page.Validate(); err != nil {
		return domain.PagedResult[transaction.View]{}, err
	}
	result, err := uc.transactions.List(ctx, domain.TransactionQuery{PersonID: id}, page)
	if err != nil {
		return domain.PagedResult[transaction.View]{}, err
	}
	return domain.MapPaged(result, transaction.NewView), nil
}

// Summary totals the person's income and expense.
func (uc *UseCase) Summary(ctx context.Context, id string) (domain.PersonSummary, error) {
	if _, err := uc.persons.GetByID(ctx, id); err != nil {
		return domain.PersonSummary{}, err
	}
	return uc.transactions.SummarizeByPerson(ctx, id)
}
