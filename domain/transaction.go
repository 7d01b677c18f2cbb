package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// ParseTransactionType accepts the canonical names case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionIncome:
		return TransactionIncome, nil
	case TransactionExpense:
		return TransactionExpense, nil
	}
	return "", NewInvalidArgument("transaction type", "must be one of income, expense")
}

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// MaxDescriptionLength caps the description in characters.
const MaxDescriptionLength = 250

// Transaction is a monetary movement filed under a category and owned by a person.
type Transaction struct {
	id          string
	amount      Money
	kind        TransactionType
	categoryID  string
	personID    string
	date        time.Time
	description string
	createdAt   time.Time
}

// NewTransaction wraps the amount, checks the cross-entity rules against the
// resolved category and person, and assigns a fresh identifier.
func NewTransaction(
	amount decimal.Decimal,
	kind TransactionType,
	category *Category,
	person *Person,
	date time.Time,
	description string,
) (*Transaction, error) {
	money, err := NewMoney(amount)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, NewInvalidArgument("transaction type", "must be one of income, expense")
	}
	if category == nil {
		return nil, NewInvalidArgument("category", "is required")
	}
	if person == nil {
		return nil, NewInvalidArgument("person", "is required")
	}
	if date.IsZero() {
		return nil, NewInvalidArgument("date", "is required")
	}
	description, err = validateDescription(description)
	if err != nil {
		return nil, err
	}
	if err := CheckBusinessRules(kind, category, person); err != nil {
		return nil, err
	}

	return &Transaction{
		id:          uuid.NewString(),
		amount:      money,
		kind:        kind,
		categoryID:  category.ID(),
		personID:    person.ID(),
		date:        date,
		description: description,
		createdAt:   time.Now().UTC(),
	}, nil
}

// CheckBusinessRules enforces the minor-income and category-type rules.
func CheckBusinessRules(kind TransactionType, category *Category, person *Person) error {
	if kind == TransactionIncome && person.IsMinor() {
		return NewBusinessRuleViolation(RuleMinorIncome,
			fmt.Sprintf("person aged %d cannot register income", person.Age()))
	}
	if !category.Type().Allows(kind) {
		return NewBusinessRuleViolation(RuleCategoryType,
			fmt.Sprintf("category of type %s does not accept %s transactions", category.Type(), kind))
	}
	return nil
}

// RestoreTransaction rebuilds a persisted transaction without validation.
func RestoreTransaction(
	id string,
	amount decimal.Decimal,
	kind TransactionType,
	categoryID, personID string,
	date time.Time,
	description string,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		id:          id,
		amount:      Money{value: amount},
		kind:        kind,
		categoryID:  categoryID,
		personID:    personID,
		date:        date,
		description: description,
		createdAt:   createdAt,
	}
}

func (t *Transaction) ID() string            { return t.id }
func (t *Transaction) Amount() Money         { return t.amount }
func (t *Transaction) Type() TransactionType { return t.kind }
func (t *Transaction) CategoryID() string    { return t.categoryID }
func (t *Transaction) PersonID() string      { return t.personID }
func (t *Transaction) Date() time.Time       { return t.date }
func (t *Transaction) Description() string   { return t.description }
func (t *Transaction) CreatedAt() time.Time  { return t.createdAt }

// Update replaces every mutable field. The cross-entity rules are not checked
// here because the referenced entities are not available to the aggregate.
func (t *Transaction) Update(
	amount decimal.Decimal,
	kind TransactionType,
	categoryID, personID string,
	date time.Time,
	description string,
) error {
	money, err := NewMoney(amount)
	if err != nil {
		return err
	}
	if !kind.Valid() {
		return NewInvalidArgument("transaction type", "must be one of income, expense")
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return NewInvalidArgument("categoryId", "is required")
	}
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return NewInvalidArgument("personId", "is required")
	}
	if date.IsZero() {
		return NewInvalidArgument("date", "is required")
	}
	description, err = validateDescription(description)
	if err != nil {
		return err
	}

	t.amount = money
	t.kind = kind
	t.categoryID = categoryID
	t.personID = personID
	t.date = date
	t.description = description
	return nil
}

// TransactionPatch carries the fields a patch supplies. Nil means untouched.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Type        *TransactionType
	CategoryID  *string
	PersonID    *string
	Date        *time.Time
	Description *string
}

// TouchesRules reports whether the patch changes anything the cross-entity rules depend on.
func (p TransactionPatch) TouchesRules() bool {
	return p.Type != nil || p.CategoryID != nil || p.PersonID != nil
}

// Patch validates every supplied field before applying any of them.
func (t *Transaction) Patch(p TransactionPatch) error {
	next := *t

	if p.Amount != nil {
		money, err := NewMoney(*p.Amount)
		if err != nil {
			return err
		}
		next.amount = money
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return NewInvalidArgument("transaction type", "must be one of income, expense")
		}
		next.kind = *p.Type
	}
	if p.CategoryID != nil {
		id := strings.TrimSpace(*p.CategoryID)
		if id == "" {
			return NewInvalidArgument("categoryId", "must not be empty")
		}
		next.categoryID = id
	}
	if p.PersonID != nil {
		id := strings.TrimSpace(*p.PersonID)
		if id == "" {
			return NewInvalidArgument("personId", "must not be empty")
		}
		next.personID = id
	}
	if p.Date != nil {
		if p.Date.IsZero() {
			return NewInvalidArgument("date", "must not be empty")
		}
		next.date = *p.Date
	}
	if p.Description != nil {
		description, err := validateDescription(*p.Description)
		if err != nil {
			return err
		}
		next.description = description
	}

	*t = next
	return nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", NewInvalidArgument("description", "must be at most 250 characters")
	}
	return description, nil
}
