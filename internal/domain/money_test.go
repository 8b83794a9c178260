package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "plain amount", input: "1500.50", expected: "1500.5"},
		{name: "normalizes extra precision", input: "10.005", expected: "10.01"},
		{name: "integer amount", input: "200", expected: "200"},
		{name: "negative amount parses", input: "-5.25", expected: "-5.25"},
		{name: "garbage rejected", input: "ten shillings", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MoneyFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestMustMoneyPanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { MustMoney("not money") })
	assert.NotPanics(t, func() { MustMoney("42.00") })
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     string
		expected string
	}{
		{name: "monthly interest on a round balance", amount: "10000.00", rate: "0.015", expected: "150.00"},
		{name: "late fee share of an installment", amount: "1000.00", rate: "0.03", expected: "30.00"},
		{name: "rounds to cents", amount: "333.33", rate: "0.015", expected: "5.00"},
		{name: "zero amount", amount: "0.00", rate: "0.015", expected: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentOf(MustMoney(tt.amount), decimal.RequireFromString(tt.rate))
			assert.True(t, got.Equal(MustMoney(tt.expected)), "got %s", got)
		})
	}
}

func TestMinMoney(t *testing.T) {
	a := MustMoney("100.00")
	b := MustMoney("250.00")

	assert.True(t, MinMoney(a, b).Equal(a))
	assert.True(t, MinMoney(b, a).Equal(a))
	assert.True(t, MinMoney(a, a).Equal(a))
}

func TestIsPositiveMoney(t *testing.T) {
	assert.True(t, IsPositiveMoney(MustMoney("0.01")))
	assert.False(t, IsPositiveMoney(ZeroMoney))
	assert.False(t, IsPositiveMoney(MustMoney("-0.01")))
}
