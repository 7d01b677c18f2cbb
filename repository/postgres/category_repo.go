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

const categoryColumns = `id, name, type, monthly_limit::text, created_at`

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a Postgres-backed implementation of CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Add(ctx context.Context, category *domain.Category) error {
	if category == nil {
		return domain.ErrInvalidPayload
	}
	const query = `INSERT INTO categories (id, name, type, monthly_limit, created_at) VALUES ($1, $2, $3, $4::numeric, $5)`
	_, err := r.pool.Exec(ctx, query,
		category.ID(),
		category.Name(),
		string(category.Type()),
		category.MonthlyLimit().String(),
		category.CreatedAt(),
	)
	if pgErrorCode(err) == pgUniqueViolation {
		return domain.WrapError(domain.ErrCodeConflict, "category already exists", err)
	}
	return classify("insert category", err)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if category == nil {
		return domain.ErrInvalidPayload
	}
	const query = `UPDATE categories SET name = $2, type = $3, monthly_limit = $4::numeric WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, category.ID(), category.Name(), string(category.Type()), category.MonthlyLimit().String())
	if err != nil {
		return classify("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return false, domain.ErrCategoryInUse
		}
		return false, classify("delete category", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	category, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify("get category", err)
	}
	return category, nil
}

func (r *categoryRepository) List(ctx context.Context, q domain.CategoryQuery, page domain.PageRequest) (domain.PagedResult[*domain.Category], error) {
	where := categoryWhere(q)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+where.sql(), where.args...).Scan(&total); err != nil {
		return domain.PagedResult[*domain.Category]{}, classify("count categories", err)
	}

	limit, args := where.page(page)
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories`+where.sql()+` ORDER BY name ASC, id ASC`+limit, args...)
	if err != nil {
		return domain.PagedResult[*domain.Category]{}, classify("list categories", err)
	}
	defer rows.Close()

	var items []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return domain.PagedResult[*domain.Category]{}, err
		}
		items = append(items, category)
	}
	if err := rows.Err(); err != nil {
		return domain.PagedResult[*domain.Category]{}, classify("list categories", err)
	}
	return domain.NewPagedResult(items, page, total), nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		id, name, kind, limitText string
		createdAt                 time.Time
	)
	if err := row.Scan(&id, &name, &kind, &limitText, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	limit, err := decimal.NewFromString(limitText)
	if err != nil {
		return nil, err
	}
	return domain.RestoreCategory(id, name, domain.CategoryType(kind), limit, createdAt.UTC()), nil
}
