package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastygo/moneytracker/domain"
)

// View is the external representation of a transaction.
type View struct {
	ID          string                 `json:"id"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	CategoryID  string                 `json:"categoryId"`
	PersonID    string                 `json:"personId"`
	Date        time.Time              `json:"date"`
	Description string                 `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func NewView(t *domain.Transaction) View {
	return View{
		ID:          t.ID(),
		Amount:      t.Amount().Value(),
		Type:        t.Type(),
		CategoryID:  t.CategoryID(),
		PersonID:    t.PersonID(),
		Date:        t.Date(),
		Description: t.Description(),
		CreatedAt:   t.CreatedAt(),
	}
}

// Input carries the full set of writable fields for create and update.
type Input struct {
	Amount      decimal.Decimal
	Type        domain.TransactionType
	CategoryID  string
	PersonID    string
	Date        time.Time
	Description string
}
