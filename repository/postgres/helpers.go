package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/moneytracker/domain"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgNumericOverflow     = "22003"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// whereBuilder collects AND-ed clauses with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// add appends a clause whose single %d verb is replaced by the argument position.
func (w *whereBuilder) add(clause string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause.
func (w *whereBuilder) page(page domain.PageRequest) (string, []interface{}) {
	args := append(append([]interface{}(nil), w.args...), page.Size, page.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func transactionWhere(q domain.TransactionQuery) *whereBuilder {
	w := &whereBuilder{}
	if q.Type != nil {
		w.add("type = $%d", string(*q.Type))
	}
	if q.CategoryID != "" {
		w.add("category_id = $%d", q.CategoryID)
	}
	if q.PersonID != "" {
		w.add("person_id = $%d", q.PersonID)
	}
	if q.From != nil {
		w.add("date >= $%d", *q.From)
	}
	if q.To != nil {
		w.add("date <= $%d", *q.To)
	}
	if q.DescriptionContains != "" {
		w.add(`description ILIKE $%d ESCAPE '\'`, containsPattern(q.DescriptionContains))
	}
	return w
}

func categoryWhere(q domain.CategoryQuery) *whereBuilder {
	w := &whereBuilder{}
	if q.NameContains != "" {
		w.add(`name ILIKE $%d ESCAPE '\'`, containsPattern(q.NameContains))
	}
	if q.Type != nil {
		w.add("type = $%d", string(*q.Type))
	}
	return w
}

func personWhere(q domain.PersonQuery) *whereBuilder {
	w := &whereBuilder{}
	if q.NameContains != "" {
		w.add(`name ILIKE $%d ESCAPE '\'`, containsPattern(q.NameContains))
	}
	if q.Age != nil {
		w.add("age = $%d", *q.Age)
	}
	return w
}

func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify keeps domain errors, reports rejected values as invalid, marks
// connectivity failures as transient and wraps everything else with the
// operation name.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	switch pgErrorCode(err) {
	case pgCheckViolation, pgNumericOverflow:
		return domain.WrapError(domain.ErrCodeInvalid, op+": value out of range", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return domain.NewTransient(op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.NewTransient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
