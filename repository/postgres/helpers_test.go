package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/fastygo/moneytracker/domain"
)

func TestTransactionWhere(t *testing.T) {
	kind := domain.TransactionIncome
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	w := transactionWhere(domain.TransactionQuery{
		Type:                &kind,
		CategoryID:          "c1",
		From:                &from,
		To:                  &to,
		DescriptionContains: "50%_off",
	})

	assert.Equal(t,
		` WHERE type = $1 AND category_id = $2 AND date >= $3 AND date <= $4 AND description ILIKE $5 ESCAPE '\'`,
		w.sql())
	assert.Equal(t, []interface{}{"income", "c1", from, to, `%50\%\_off%`}, w.args)

	limit, args := w.page(domain.PageRequest{Number: 3, Size: 10})
	assert.Equal(t, " LIMIT $6 OFFSET $7", limit)
	assert.Equal(t, 10, args[5])
	assert.Equal(t, 20, args[6])
	assert.Len(t, w.args, 5, "page must not grow the filter arguments")
}

func TestEmptyWhere(t *testing.T) {
	w := personWhere(domain.PersonQuery{})
	assert.Empty(t, w.sql())

	limit, args := w.page(domain.PageRequest{Number: 1, Size: 50})
	assert.Equal(t, " LIMIT $1 OFFSET $2", limit)
	assert.Equal(t, []interface{}{50, 0}, args)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("op", nil))
	assert.Same(t, domain.ErrPersonNotFound, classify("op", domain.ErrPersonNotFound))
	assert.True(t, domain.IsDomainError(classify("op", context.DeadlineExceeded), domain.ErrCodeUnavailable))

	err := classify("op", &pgconn.PgError{Code: "42P01"})
	assert.Equal(t, domain.ErrCodeInternal, domain.CodeOf(err))
	assert.Equal(t, "42P01", pgErrorCode(err))
	assert.Empty(t, pgErrorCode(errors.New("plain")))
}

func TestRejectedValuesAreInvalid(t *testing.T) {
	repo := &transactionRepository{}
	for _, code := range []string{pgCheckViolation, pgNumericOverflow} {
		err := repo.writeError("insert transaction", &pgconn.PgError{Code: code})
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), code)
	}
	err := repo.writeError("insert transaction", &pgconn.PgError{Code: pgForeignKeyViolation})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidReference))
}
