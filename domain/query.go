package domain

import (
	"strings"
	"time"
)

// TransactionQuery filters transactions. Zero fields are ignored.
type TransactionQuery struct {
	Type                *TransactionType
	CategoryID          string
	PersonID            string
	From                *time.Time
	To                  *time.Time
	DescriptionContains string
}

// Specification builds the in-memory predicate equivalent of the query.
// From and To are inclusive.
func (q TransactionQuery) Specification() Specification[*Transaction] {
	var spec Specification[*Transaction]
	if q.Type != nil {
		kind := *q.Type
		spec = spec.Where(func(t *Transaction) bool { return t.Type() == kind })
	}
	if q.CategoryID != "" {
		id := q.CategoryID
		spec = spec.Where(func(t *Transaction) bool { return t.CategoryID() == id })
	}
	if q.PersonID != "" {
		id := q.PersonID
		spec = spec.Where(func(t *Transaction) bool { return t.PersonID() == id })
	}
	if q.From != nil {
		from := *q.From
		spec = spec.Where(func(t *Transaction) bool { return !t.Date().Before(from) })
	}
	if q.To != nil {
		to := *q.To
		spec = spec.Where(func(t *Transaction) bool { return !t.Date().After(to) })
	}
	if q.DescriptionContains != "" {
		needle := strings.ToLower(q.DescriptionContains)
		spec = spec.Where(func(t *Transaction) bool {
			return strings.Contains(strings.ToLower(t.Description()), needle)
		})
	}
	return spec
}

// Validate rejects inverted date ranges.
func (q TransactionQuery) Validate() error {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return NewInvalidArgument("date range", "must end after it starts")
	}
	return nil
}

// TransactionsByDateDesc is the default transaction ordering, newest first.
func TransactionsByDateDesc(a, b *Transaction) bool {
	if !a.Date().Equal(b.Date()) {
		return a.Date().After(b.Date())
	}
	return a.ID() < b.ID()
}

// CategoryQuery filters categories.
type CategoryQuery struct {
	NameContains string
	Type         *CategoryType
}

func (q CategoryQuery) Specification() Specification[*Category] {
	var spec Specification[*Category]
	if q.NameContains != "" {
		needle := strings.ToLower(q.NameContains)
		spec = spec.Where(func(c *Category) bool {
			return strings.Contains(strings.ToLower(c.Name()), needle)
		})
	}
	if q.Type != nil {
		kind := *q.Type
		spec = spec.Where(func(c *Category) bool { return c.Type() == kind })
	}
	return spec
}

// CategoriesByName is the default category ordering.
func CategoriesByName(a, b *Category) bool {
	if a.Name() != b.Name() {
		return a.Name() < b.Name()
	}
	return a.ID() < b.ID()
}

// PersonQuery filters persons.
type PersonQuery struct {
	NameContains string
	Age          *int
}

func (q PersonQuery) Specification() Specification[*Person] {
	var spec Specification[*Person]
	if q.NameContains != "" {
		needle := strings.ToLower(q.NameContains)
		spec = spec.Where(func(p *Person) bool {
			return strings.Contains(strings.ToLower(p.Name()), needle)
		})
	}
	if q.Age != nil {
		age := *q.Age
		spec = spec.Where(func(p *Person) bool { return p.Age() == age })
	}
	return spec
}

// PersonsByName is the default person ordering.
func PersonsByName(a, b *Person) bool {
	if a.Name() != b.Name() {
		return a.Name() < b.Name()
	}
	return a.ID() < b.ID()
}
