package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places an amount may carry.
const MoneyScale = 2

// Money is an immutable non-zero amount.
type Money struct {
	value decimal.Decimal
}

// NewMoney wraps value, rejecting zero and sub-cent precision. Negative
// amounts are accepted.
func NewMoney(value decimal.Decimal) (Money, error) {
	if value.IsZero() {
		return Money{}, ErrInvalidAmount
	}
	if err := checkScale("amount", value); err != nil {
		return Money{}, err
	}
	return Money{value: value}, nil
}

func checkScale(field string, value decimal.Decimal) error {
	if !value.Equal(value.Round(MoneyScale)) {
		return NewInvalidArgument(field, "must have at most 2 decimal places")
	}
	return nil
}

// MoneyFromString parses a decimal literal such as "100.50".
func MoneyFromString(s string) (Money, error) {
	value, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, WrapError(ErrCodeInvalid, "amount is not a decimal", err)
	}
	return NewMoney(value)
}

func (m Money) Value() decimal.Decimal {
	return m.value
}

func (m Money) Equal(other Money) bool {
	return m.value.Equal(other.value)
}

func (m Money) String() string {
	return m.value.String()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.value)
}
