package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository/memory"
)

type published struct {
	topic    string
	envelope domain.Envelope
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, topic string, envelope domain.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, envelope: envelope})
	return nil
}

type fakeBuffer struct {
	parked []published
}

func (b *fakeBuffer) BufferEvent(_ context.Context, topic string, envelope domain.Envelope) error {
	b.parked = append(b.parked, published{topic: topic, envelope: envelope})
	return nil
}

type fixture struct {
	uc           *UseCase
	transactions *memory.TransactionRepository
	publisher    *fakePublisher
	buffer       *fakeBuffer
	expense      *domain.Category
	income       *domain.Category
	adult        *domain.Person
	minor        *domain.Person
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	categories := memory.NewCategoryRepository()
	persons := memory.NewPersonRepository()
	f := &fixture{
		transactions: memory.NewTransactionRepository(),
		publisher:    &fakePublisher{},
		buffer:       &fakeBuffer{},
	}

	var err error
	f.expense, err = domain.NewCategory("Rent", domain.CategoryExpense)
	require.NoError(t, err)
	f.income, err = domain.NewCategory("Salary", domain.CategoryIncome)
	require.NoError(t, err)
	f.adult, err = domain.NewPerson("Ada", 30)
	require.NoError(t, err)
	f.minor, err = domain.NewPerson("Tim", 16)
	require.NoError(t, err)

	require.NoError(t, categories.Add(ctx, f.expense))
	require.NoError(t, categories.Add(ctx, f.income))
	require.NoError(t, persons.Add(ctx, f.adult))
	require.NoError(t, persons.Add(ctx, f.minor))

	f.uc = New(f.transactions, categories, persons, f.publisher, nil, WithBuffer(f.buffer))
	return f
}

func (f *fixture) input(category *domain.Category, person *domain.Person, kind domain.TransactionType) Input {
	return Input{
		Amount:      decimal.RequireFromString("100.50"),
		Type:        kind,
		CategoryID:  category.ID(),
		PersonID:    person.ID(),
		Date:        time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		Description: " rent ",
	}
}

func TestCreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionExpense))
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("100.50")))
	assert.Equal(t, domain.TransactionExpense, got.Type)
	assert.Equal(t, "rent", got.Description)

	require.Len(t, f.publisher.sent, 1)
	msg := f.publisher.sent[0]
	assert.Equal(t, domain.TopicTransactionCreated, msg.topic)
	assert.Equal(t, domain.MessageTypeTransactionCreated, msg.envelope.MessageType)
	assert.Equal(t, time.UTC, msg.envelope.OccurredAt.Location())
	payload, ok := msg.envelope.Payload.(domain.TransactionCreated)
	require.True(t, ok)
	assert.Equal(t, created.ID, payload.TransactionID)
	assert.Equal(t, f.expense.ID(), payload.CategoryID)
}

func TestCreateInvalidReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*Input)
		entity string
	}{
		{name: "unknown category", mutate: func(in *Input) { in.CategoryID = "nope" }, entity: "Category"},
		{name: "unknown person", mutate: func(in *Input) { in.PersonID = "nope" }, entity: "Person"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input(f.expense, f.adult, domain.TransactionExpense)
			tt.mutate(&in)

			_, err := f.uc.Create(ctx, in)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidReference))
			assert.Contains(t, err.Error(), tt.entity)

			count, err := f.transactions.Count(ctx, domain.TransactionQuery{})
			require.NoError(t, err)
			assert.Zero(t, count)
			assert.Empty(t, f.publisher.sent)
		})
	}
}

func TestCreateBusinessRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	both, err := domain.NewCategory("Misc", domain.CategoryBoth)
	require.NoError(t, err)
	categories := memory.NewCategoryRepository()
	require.NoError(t, categories.Add(ctx, both))
	require.NoError(t, categories.Add(ctx, f.expense))
	f.uc.categories = categories

	_, err = f.uc.Create(ctx, f.input(both, f.minor, domain.TransactionIncome))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeBusinessRule))

	_, err = f.uc.Create(ctx, f.input(both, f.minor, domain.TransactionExpense))
	assert.NoError(t, err)

	_, err = f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionIncome))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeBusinessRule))
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publisher.err = domain.NewTransient("publish", errors.New("broker down"))

	created, err := f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionExpense))
	require.NoError(t, err)

	_, err = f.uc.Get(ctx, created.ID)
	require.NoError(t, err, "persisted transaction must not be rolled back")

	require.Len(t, f.buffer.parked, 1)
	assert.Equal(t, domain.TopicTransactionCreated, f.buffer.parked[0].topic)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionExpense))
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, "missing", f.input(f.expense, f.adult, domain.TransactionExpense))
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = f.uc.Update(ctx, created.ID, f.input(f.income, f.minor, domain.TransactionIncome))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeBusinessRule))

	in := f.input(f.income, f.adult, domain.TransactionIncome)
	in.Amount = decimal.NewFromInt(2500)
	updated, err := f.uc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionIncome, updated.Type)
	assert.Equal(t, f.income.ID(), updated.CategoryID)

	stored, err := f.uc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(2500)))
}

func TestPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionExpense))
	require.NoError(t, err)

	desc := "new description"
	patched, err := f.uc.Patch(ctx, created.ID, domain.TransactionPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, patched.Description)
	assert.True(t, patched.Amount.Equal(created.Amount))
	assert.Equal(t, created.Type, patched.Type)
	assert.Equal(t, created.CategoryID, patched.CategoryID)
	assert.Equal(t, created.Date, patched.Date)

	empty := ""
	_, err = f.uc.Patch(ctx, created.ID, domain.TransactionPatch{CategoryID: &empty})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	unknown := "nope"
	_, err = f.uc.Patch(ctx, created.ID, domain.TransactionPatch{CategoryID: &unknown})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidReference))

	_, err = f.uc.Patch(ctx, "missing", domain.TransactionPatch{Description: &desc})
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionExpense))
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(ctx, created.ID))
	_, err = f.uc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	assert.ErrorIs(t, f.uc.Delete(ctx, created.ID), domain.ErrTransactionNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		in := f.input(f.expense, f.adult, domain.TransactionExpense)
		in.Date = in.Date.AddDate(0, 0, i)
		_, err := f.uc.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := f.uc.List(ctx, domain.TransactionQuery{PersonID: f.adult.ID()}, domain.PageRequest{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Date.After(page.Items[1].Date))

	_, err = f.uc.List(ctx, domain.TransactionQuery{}, domain.PageRequest{Number: 1, Size: 500})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Create(ctx, f.input(f.expense, f.adult, domain.TransactionExpense))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := f.transactions.Count(ctx, domain.TransactionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 20, count)
	assert.Len(t, f.publisher.sent, 20)
}
