package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
		code    ErrorCode
	}{
		{name: "zero", value: "0", wantErr: true},
		{name: "zero with scale", value: "0.00", wantErr: true},
		{name: "below one cent", value: "0.004", wantErr: true, code: ErrCodeInvalid},
		{name: "sub-cent digits", value: "100.555", wantErr: true, code: ErrCodeInvalid},
		{name: "trailing zeros beyond cents", value: "12.3400"},
		{name: "positive", value: "100.50"},
		{name: "negative", value: "-12.34"},
		{name: "smallest unit", value: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := decimal.RequireFromString(tt.value)
			m, err := NewMoney(value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsDomainError(err, ErrCodeInvalid))
				if tt.code == "" {
					assert.ErrorIs(t, err, ErrInvalidAmount)
				} else {
					assert.NotErrorIs(t, err, ErrInvalidAmount)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, m.Value().Equal(value))
		})
	}
}

func TestMoneyFromString(t *testing.T) {
	_, err := MoneyFromString("abc")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	_, err = MoneyFromString("0.004")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))

	m, err := MoneyFromString("42.10")
	require.NoError(t, err)
	assert.Equal(t, "42.1", m.String())
}

func TestMoneyMarshalJSON(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("100.50"))
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"100.5"`, string(out))
}
