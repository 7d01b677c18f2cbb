package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryType restricts which transaction types a category accepts.
type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
	CategoryBoth    CategoryType = "both"
)

// ParseCategoryType accepts the canonical names case-insensitively.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryExpense:
		return CategoryExpense, nil
	case CategoryIncome:
		return CategoryIncome, nil
	case CategoryBoth:
		return CategoryBoth, nil
	}
	return "", NewInvalidArgument("category type", "must be one of expense, income, both")
}

func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryIncome || t == CategoryBoth
}

// Allows reports whether a transaction of type tt may be filed under this category type.
func (t CategoryType) Allows(tt TransactionType) bool {
	switch t {
	case CategoryBoth:
		return true
	case CategoryExpense:
		return tt == TransactionExpense
	case CategoryIncome:
		return tt == TransactionIncome
	}
	return false
}

// Category groups transactions. Its transactions are queried by foreign key, not held here.
// A zero monthly limit means the category has no budget.
type Category struct {
	id           string
	name         string
	kind         CategoryType
	monthlyLimit decimal.Decimal
	createdAt    time.Time
}

// NewCategory validates and builds a category with a fresh identifier.
func NewCategory(name string, kind CategoryType) (*Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, NewInvalidArgument("category type", "must be one of expense, income, both")
	}
	return &Category{
		id:        uuid.NewString(),
		name:      name,
		kind:      kind,
		createdAt: time.Now().UTC(),
	}, nil
}

// RestoreCategory rebuilds a persisted category without validation.
func RestoreCategory(id, name string, kind CategoryType, monthlyLimit decimal.Decimal, createdAt time.Time) *Category {
	return &Category{id: id, name: name, kind: kind, monthlyLimit: monthlyLimit, createdAt: createdAt}
}

func (c *Category) ID() string                    { return c.id }
func (c *Category) Name() string                  { return c.name }
func (c *Category) Type() CategoryType            { return c.kind }
func (c *Category) MonthlyLimit() decimal.Decimal { return c.monthlyLimit }
func (c *Category) CreatedAt() time.Time          { return c.createdAt }

// Update replaces every mutable field.
func (c *Category) Update(name string, kind CategoryType, monthlyLimit decimal.Decimal) error {
	name, err := validateCategoryName(name)
	if err != nil {
		return err
	}
	if !kind.Valid() {
		return NewInvalidArgument("category type", "must be one of expense, income, both")
	}
	if err := validateMonthlyLimit(monthlyLimit); err != nil {
		return err
	}
	c.name = name
	c.kind = kind
	c.monthlyLimit = monthlyLimit
	return nil
}

// SetMonthlyLimit replaces the budget. Zero clears it.
func (c *Category) SetMonthlyLimit(limit decimal.Decimal) error {
	if err := validateMonthlyLimit(limit); err != nil {
		return err
	}
	c.monthlyLimit = limit
	return nil
}

// Patch overwrites only the supplied fields. Nothing changes if any field is rejected.
func (c *Category) Patch(name *string, kind *CategoryType, monthlyLimit *decimal.Decimal) error {
	next := *c
	if name != nil {
		validated, err := validateCategoryName(*name)
		if err != nil {
			return err
		}
		next.name = validated
	}
	if kind != nil {
		if !kind.Valid() {
			return NewInvalidArgument("category type", "must be one of expense, income, both")
		}
		next.kind = *kind
	}
	if monthlyLimit != nil {
		if err := next.SetMonthlyLimit(*monthlyLimit); err != nil {
			return err
		}
	}
	*c = next
	return nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewInvalidArgument("category name", "is required")
	}
	return name, nil
}

func validateMonthlyLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return NewInvalidArgument("monthly limit", "must not be negative")
	}
	return checkScale("monthly limit", limit)
}
