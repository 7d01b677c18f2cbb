package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/repository"
)

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation of PersonRepository.
func NewPersonRepository(pool *pgxpool.Pool) repository.PersonRepository {
	return &personRepository{pool: pool}
}

func (r *personRepository) Add(ctx context.Context, person *domain.Person) error {
	if person == nil {
		return domain.ErrInvalidPayload
	}
	const query = `INSERT INTO persons (id, name, age, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, person.ID(), person.Name(), person.Age(), person.CreatedAt())
	if pgErrorCode(err) == pgUniqueViolation {
		return domain.WrapError(domain.ErrCodeConflict, "person already exists", err)
	}
	return classify("insert person", err)
}

func (r *personRepository) Update(ctx context.Context, person *domain.Person) error {
	if person == nil {
		return domain.ErrInvalidPayload
	}
	const query = `UPDATE persons SET name = $2, age = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, person.ID(), person.Name(), person.Age())
	if err != nil {
		return classify("update person", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func (r *personRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return false, domain.ErrPersonInUse
		}
		return false, classify("delete person", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	const query = `SELECT id, name, age, created_at FROM persons WHERE id = $1`
	person, err := scanPerson(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify("get person", err)
	}
	return person, nil
}

func (r *personRepository) List(ctx context.Context, q domain.PersonQuery, page domain.PageRequest) (domain.PagedResult[*domain.Person], error) {
	where := personWhere(q)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM persons`+where.sql(), where.args...).Scan(&total); err != nil {
		return domain.PagedResult[*domain.Person]{}, classify("count persons", err)
	}

	limit, args := where.page(page)
	rows, err := r.pool.Query(ctx, `SELECT id, name, age, created_at FROM persons`+where.sql()+` ORDER BY name ASC, id ASC`+limit, args...)
	if err != nil {
		return domain.PagedResult[*domain.Person]{}, classify("list persons", err)
	}
	defer rows.Close()

	var items []*domain.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return domain.PagedResult[*domain.Person]{}, err
		}
		items = append(items, person)
	}
	if err := rows.Err(); err != nil {
		return domain.PagedResult[*domain.Person]{}, classify("list persons", err)
	}
	return domain.NewPagedResult(items, page, total), nil
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var (
		id, name  string
		age       int
		createdAt time.Time
	)
	if err := row.Scan(&id, &name, &age, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPersonNotFound
		}
		return nil, err
	}
	return domain.RestorePerson(id, name, age, createdAt.UTC()), nil
}
