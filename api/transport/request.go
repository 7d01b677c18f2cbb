package transport

import "github.com/shopspring/decimal"

// TransactionRequest is the body of POST and PUT on transactions. Dates accept
// RFC 3339 timestamps or plain YYYY-MM-DD days.
type TransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	CategoryID  string          `json:"categoryId"`
	PersonID    string          `json:"personId"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

// TransactionPatchRequest is the body of PATCH on transactions; absent fields stay untouched.
type TransactionPatchRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type"`
	CategoryID  *string          `json:"categoryId"`
	PersonID    *string          `json:"personId"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

// CategoryRequest is the body of POST and PUT on categories. An omitted
// monthlyLimit means no budget.
type CategoryRequest struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
}

type CategoryPatchRequest struct {
	Name         *string          `json:"name"`
	Type         *string          `json:"type"`
	MonthlyLimit *decimal.Decimal `json:"monthlyLimit"`
}

type PersonRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type PersonPatchRequest struct {
	Name *string `json:"name"`
	Age  *int    `json:"age"`
}
