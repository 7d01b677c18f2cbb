package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

// applyScript marks the transaction as seen and folds it into the month in one
// atomic step. KEYS: seen marker, month hash, per-category hash.
// ARGV: seen ttl seconds, transaction type, amount in cents, category id.
var applyScript = redislib.NewScript(`
if not redis.call('SET', KEYS[1], '1', 'NX', 'EX', ARGV[1]) then
	return 0
end
redis.call('HINCRBY', KEYS[2], ARGV[2], ARGV[3])
redis.call('HINCRBY', KEYS[2], 'count', 1)
if ARGV[2] == 'expense' then
	redis.call('HINCRBY', KEYS[3], ARGV[4], ARGV[3])
end
return 1
`)

type summaryRepository struct {
	client  *redislib.Client
	prefix  string
	seenTTL time.Duration
}

// NewSummaryRepository creates a Redis-backed monthly summary projection.
func NewSummaryRepository(client *redislib.Client, seenTTL time.Duration) repository.SummaryRepository {
	if seenTTL <= 0 {
		seenTTL = 30 * 24 * time.Hour
	}
	return &summaryRepository{
		client:  client,
		prefix:  "summary:",
		seenTTL: seenTTL,
	}
}

func (r *summaryRepository) Apply(ctx context.Context, event domain.TransactionCreated) (bool, error) {
	date := event.Date.UTC()
	keys := []string{
		r.prefix + "seen:" + event.TransactionID,
		r.monthKey(date.Year(), int(date.Month())),
		r.categoryKey(date.Year(), int(date.Month())),
	}
	args := []interface{}{
		int64(r.seenTTL.Seconds()),
		string(event.Type),
		toCents(event.Amount),
		event.CategoryID,
	}

	applied, err := applyScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		return false, domain.NewTransient("apply summary", err)
	}
	return applied == 1, nil
}

func (r *summaryRepository) Monthly(ctx context.Context, year, month int) (domain.MonthlySummary, error) {
	totals, err := r.client.HGetAll(ctx, r.monthKey(year, month)).Result()
	if err != nil {
		return domain.MonthlySummary{}, domain.NewTransient("read summary", err)
	}
	byCategory, err := r.client.HGetAll(ctx, r.categoryKey(year, month)).Result()
	if err != nil {
		return domain.MonthlySummary{}, domain.NewTransient("read summary", err)
	}

	summary := domain.MonthlySummary{
		Year:              year,
		Month:             month,
		TotalIncome:       fromCents(totals[string(domain.TransactionIncome)]),
		TotalExpense:      fromCents(totals[string(domain.TransactionExpense)]),
		ExpenseByCategory: make(map[string]decimal.Decimal, len(byCategory)),
	}
	summary.Count, _ = strconv.Atoi(totals["count"])
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)
	for id, cents := range byCategory {
		summary.ExpenseByCategory[id] = fromCents(cents)
	}
	return summary, nil
}

func (r *summaryRepository) monthKey(year, month int) string {
	return fmt.Sprintf("%smonth:%04d-%02d", r.prefix, year, month)
}

func (r *summaryRepository) categoryKey(year, month int) string {
	return r.monthKey(year, month) + ":expense-by-category"
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromCents(raw string) decimal.Decimal {
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.New(cents, -2)
}
