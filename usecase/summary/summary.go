package summary

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

// UseCase maintains and serves the monthly summary projection.
type UseCase struct {
	summaries  repository.SummaryRepository
	categories repository.CategoryLister
	logger     *zap.Logger
}

// New builds the use case. categories may be nil where only events are
// applied; Monthly then leaves RemainingByCategory empty.
func New(summaries repository.SummaryRepository, categories repository.CategoryLister, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{summaries: summaries, categories: categories, logger: logger}
}

// ApplyTransactionCreated folds the event into its month. Redelivered events
// are recognised by transaction id and skipped.
func (uc *UseCase) ApplyTransactionCreated(ctx context.Context, event domain.TransactionCreated) error {
	if err := event.Validate(); err != nil {
		return err
	}
	applied, err := uc.summaries.Apply(ctx, event)
	if err != nil {
		return err
	}
	if !applied {
		uc.logger.Info("duplicate transaction created event skipped", zap.String("transaction_id", event.TransactionID))
		return nil
	}
	uc.logger.Debug("transaction applied to monthly summary",
		zap.String("transaction_id", event.TransactionID),
		zap.Time("date", event.Date))
	return nil
}

// Monthly returns the projection for the month with the remaining budget of
// every category that has a monthly limit.
func (uc *UseCase) Monthly(ctx context.Context, year, month int) (domain.MonthlySummary, error) {
	if err := domain.ValidateMonth(year, month); err != nil {
		return domain.MonthlySummary{}, err
	}
	summary, err := uc.summaries.Monthly(ctx, year, month)
	if err != nil {
		return domain.MonthlySummary{}, err
	}
	if uc.categories == nil {
		return summary, nil
	}
	categories, err := uc.allCategories(ctx)
	if err != nil {
		return domain.MonthlySummary{}, err
	}
	summary.ApplyBudgets(categories)
	return summary, nil
}

func (uc *UseCase) allCategories(ctx context.Context) ([]*domain.Category, error) {
	var all []*domain.Category
	for page := 1; ; page++ {
		result, err := uc.categories.List(ctx, domain.CategoryQuery{}, domain.PageRequest{Number: page, Size: domain.MaxPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, result.Items...)
		if len(result.Items) == 0 || len(all) >= result.TotalCount {
			return all, nil
		}
	}
}
