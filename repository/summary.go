package repository

import (
	"context"

	"github.com/fastygo/moneytracker/domain"
)

// SummaryRepository stores the monthly projection fed by TransactionCreated events.
// Apply reports false when the event was already applied.
type SummaryRepository interface {
	Apply(ctx context.Context, event domain.TransactionCreated) (bool, error)
	Monthly(ctx context.Context, year, month int) (domain.MonthlySummary, error)
}
