package transaction

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/pkg/logger"
	"github.com/fastygo/moneytracker/repository"
	"github.com/fastygo/moneytracker/usecase"
)

type UseCase struct {
	transactions repository.TransactionRepository
	categories   repository.CategoryLookup
	persons      repository.PersonLookup
	publisher    usecase.EventPublisher
	buffer       usecase.EventBuffer
	topic        string
	logger       *zap.Logger
}

// Option customizes a UseCase.
type Option func(*UseCase)

// WithTopic overrides the topic transaction created events are published to.
func WithTopic(topic string) Option {
	return func(uc *UseCase) {
		if topic != "" {
			uc.topic = topic
		}
	}
}

// WithBuffer parks events whose publication failed.
func WithBuffer(buffer usecase.EventBuffer) Option {
	return func(uc *UseCase) {
		uc.buffer = buffer
	}
}

func New(
	transactions repository.TransactionRepository,
	categories repository.CategoryLookup,
	persons repository.PersonLookup,
	publisher usecase.EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		transactions: transactions,
		categories:   categories,
		persons:      persons,
		publisher:    publisher,
		topic:        domain.TopicTransactionCreated,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Create resolves the category and person, applies the business rules,
// persists the transaction and announces it. A failed announcement does not
// undo the write.
func (uc *UseCase) Create(ctx context.Context, in Input) (*View, error) {
	category, err := uc.resolveCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	person, err := uc.resolvePerson(ctx, in.PersonID)
	if err != nil {
		return nil, err
	}

	tx, err := domain.NewTransaction(in.Amount, in.Type, category, person, in.Date, in.Description)
	if err != nil {
		return nil, err
	}
	if err := uc.transactions.Add(ctx, tx); err != nil {
		return nil, err
	}

	uc.announce(ctx, tx)

	view := NewView(tx)
	return &view, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*View, error) {
	tx, err := uc.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewView(tx)
	return &view, nil
}

// Update replaces every mutable field, then re-resolves the references and
// re-runs the business rules against them.
func (uc *UseCase) Update(ctx context.Context, id string, in Input) (*View, error) {
	tx, err := uc.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Update(in.Amount, in.Type, in.CategoryID, in.PersonID, in.Date, in.Description); err != nil {
		return nil, err
	}
	if err := uc.checkRules(ctx, tx); err != nil {
		return nil, err
	}
	if err := uc.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}
	view := NewView(tx)
	return &view, nil
}

// Patch applies the supplied fields. References and business rules are
// checked again only when the patch touches type, category or person.
func (uc *UseCase) Patch(ctx context.Context, id string, patch domain.TransactionPatch) (*View, error) {
	tx, err := uc.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Patch(patch); err != nil {
		return nil, err
	}
	if patch.TouchesRules() {
		if err := uc.checkRules(ctx, tx); err != nil {
			return nil, err
		}
	}
	if err := uc.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}
	view := NewView(tx)
	return &view, nil
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	deleted, err := uc.transactions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (uc *UseCase) List(ctx context.Context, query domain.TransactionQuery, page domain.PageRequest) (domain.PagedResult[View], error) {
	page = page.Normalize()
	if err := page.Validate(); err != nil {
		return domain.PagedResult[View]{}, err
	}
	if err := query.Validate(); err != nil {
		return domain.PagedResult[View]{}, err
	}
	result, err := uc.transactions.List(ctx, query, page)
	if err != nil {
		return domain.PagedResult[View]{}, err
	}
	return domain.MapPaged(result, NewView), nil
}

func (uc *UseCase) checkRules(ctx context.Context, tx *domain.Transaction) error {
	category, err := uc.resolveCategory(ctx, tx.CategoryID())
	if err != nil {
		return err
	}
	person, err := uc.resolvePerson(ctx, tx.PersonID())
	if err != nil {
		return err
	}
	return domain.CheckBusinessRules(tx.Type(), category, person)
}

func (uc *UseCase) resolveCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.NewInvalidReference("Category", id)
		}
		return nil, err
	}
	return category, nil
}

func (uc *UseCase) resolvePerson(ctx context.Context, id string) (*domain.Person, error) {
	person, err := uc.persons.GetByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.NewInvalidReference("Person", id)
		}
		return nil, err
	}
	return person, nil
}

func (uc *UseCase) announce(ctx context.Context, tx *domain.Transaction) {
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("transaction_id", tx.ID()))
	envelope := domain.NewEnvelope(domain.MessageTypeTransactionCreated, domain.NewTransactionCreated(tx))

	if uc.publisher == nil {
		log.Warn("no event publisher configured, transaction created event dropped")
		return
	}
	err := uc.publisher.Publish(ctx, uc.topic, envelope)
	if err == nil {
		return
	}
	log.Error("failed to publish transaction created event", zap.String("topic", uc.topic), zap.Error(err))
	uc.shouldBuffer(ctx, envelope, log)
}

func (uc *UseCase) shouldBuffer(ctx context.Context, envelope domain.Envelope, log *zap.Logger) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferEvent(ctx, uc.topic, envelope); err != nil {
		log.Error("failed to buffer transaction created event", zap.Error(err))
		return false
	}
	log.Warn("transaction created event buffered for relay")
	return true
}
