package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

const transactionColumns = `id, amount::text, type, category_id, person_id, date, description, created_at`

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a Postgres-backed implementation of TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepository{pool: pool}
}

func (r *transactionRepository) Add(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO transactions (id, amount, type, category_id, person_id, date, description, created_at)
	VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		tx.ID(),
		tx.Amount().Value().String(),
		string(tx.Type()),
		tx.CategoryID(),
		tx.PersonID(),
		tx.Date(),
		tx.Description(),
		tx.CreatedAt(),
	)
	return r.writeError("insert transaction", err)
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE transactions
	SET amount = $2::numeric,
		type = $3,
		category_id = $4,
		person_id = $5,
		date = $6,
		description = $7
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		tx.ID(),
		tx.Amount().Value().String(),
		string(tx.Type()),
		tx.CategoryID(),
		tx.PersonID(),
		tx.Date(),
		tx.Description(),
	)
	if err != nil {
		return r.writeError("update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM transactions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, classify("delete transaction", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify("get transaction", err)
	}
	return tx, nil
}

func (r *transactionRepository) List(ctx context.Context, q domain.TransactionQuery, page domain.PageRequest) (domain.PagedResult[*domain.Transaction], error) {
	where := transactionWhere(q)

	total, err := r.count(ctx, where)
	if err != nil {
		return domain.PagedResult[*domain.Transaction]{}, err
	}

	limit, args := where.page(page)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where.sql() + ` ORDER BY date DESC, id ASC` + limit
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.PagedResult[*domain.Transaction]{}, classify("list transactions", err)
	}
	defer rows.Close()

	var items []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return domain.PagedResult[*domain.Transaction]{}, err
		}
		items = append(items, tx)
	}
	if err := rows.Err(); err != nil {
		return domain.PagedResult[*domain.Transaction]{}, classify("list transactions", err)
	}
	return domain.NewPagedResult(items, page, total), nil
}

func (r *transactionRepository) Count(ctx context.Context, q domain.TransactionQuery) (int, error) {
	return r.count(ctx, transactionWhere(q))
}

func (r *transactionRepository) SummarizeByPerson(ctx context.Context, personID string) (domain.PersonSummary, error) {
	const query = `
	SELECT
		COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0)::text,
		COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)::text,
		COUNT(*)
	FROM transactions
	WHERE person_id = $1
	`
	var income, expense string
	summary := domain.PersonSummary{PersonID: personID}
	if err := r.pool.QueryRow(ctx, query, personID).Scan(&income, &expense, &summary.Count); err != nil {
		return domain.PersonSummary{}, classify("summarize transactions", err)
	}

	var err error
	if summary.TotalIncome, err = decimal.NewFromString(income); err != nil {
		return domain.PersonSummary{}, err
	}
	if summary.TotalExpense, err = decimal.NewFromString(expense); err != nil {
		return domain.PersonSummary{}, err
	}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)
	return summary, nil
}

func (r *transactionRepository) count(ctx context.Context, where *whereBuilder) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM transactions` + where.sql()
	if err := r.pool.QueryRow(ctx, query, where.args...).Scan(&total); err != nil {
		return 0, classify("count transactions", err)
	}
	return total, nil
}

func (r *transactionRepository) writeError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch pgErrorCode(err) {
	case pgForeignKeyViolation:
		return domain.WrapError(domain.ErrCodeInvalidReference, "category or person does not exist", err)
	case pgUniqueViolation:
		return domain.WrapError(domain.ErrCodeConflict, "transaction already exists", err)
	}
	return classify(op, err)
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		id, amountText, kind string
		categoryID, personID string
		description          string
		date, createdAt      time.Time
	)
	if err := row.Scan(&id, &amountText, &kind, &categoryID, &personID, &date, &description, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return nil, err
	}
	return domain.RestoreTransaction(
		id, amount, domain.TransactionType(kind), categoryID, personID,
		date.UTC(), description, createdAt.UTC(),
	), nil
}
