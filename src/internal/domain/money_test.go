package domain_test

import (
	"testing"

	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(amount, domain.CurrencyUSD)
	require.NoError(t, err)
	return m
}

func TestNewMoneyNormalizesToCurrencyFractionDigits(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency domain.Currency
		want     string
	}{
		{"usd truncates extra digits", "10.5011", domain.CurrencyUSD, "10.50"},
		{"eur rounds half to even down", "10.505", domain.CurrencyEUR, "10.50"},
		{"eur rounds half to even up", "10.515", domain.CurrencyEUR, "10.52"},
		{"jpy has no fraction digits", "10.01", domain.CurrencyJPY, "10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := domain.NewMoneyFromString(tc.amount, tc.currency)
			require.NoError(t, err)
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", m.Amount(), tc.want)
		})
	}
}

func TestNewMoneyNormalizationIsIdempotent(t *testing.T) {
	first, err := domain.NewMoneyFromString("10.505", domain.CurrencyEUR)
	require.NoError(t, err)

	second, err := domain.NewMoney(first.Amount(), domain.CurrencyEUR)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestNewMoneyRejectsUnsupportedCurrency(t *testing.T) {
	_, err := domain.NewMoney(decimal.NewFromInt(1), domain.Currency("XXX"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	_, err = domain.NewMoney(decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
}

func TestAddZeroIsIdentity(t *testing.T) {
	m := usd(t, "42.42")

	sum, err := m.Add(domain.Zero(domain.CurrencyUSD))
	require.NoError(t, err)

	assert.True(t, sum.Equal(m))
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	m := usd(t, "10.00")
	other, err := domain.NewMoneyFromString("10.00", domain.CurrencyEUR)
	require.NoError(t, err)

	_, err = m.Add(other)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = m.Subtract(other)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = m.GreaterThan(other)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestSubtractAndCompare(t *testing.T) {
	m := usd(t, "10.00")

	diff, err := m.Subtract(usd(t, "4.00"))
	require.NoError(t, err)
	assert.True(t, diff.Equal(usd(t, "6.00")))

	greater, err := m.GreaterThan(usd(t, "9.99"))
	require.NoError(t, err)
	assert.True(t, greater)

	greater, err = m.GreaterThan(usd(t, "10.00"))
	require.NoError(t, err)
	assert.False(t, greater)
}

func TestSignPredicates(t *testing.T) {
	assert.True(t, domain.Zero(domain.CurrencyUSD).IsAmountZero())
	assert.True(t, domain.Zero(domain.CurrencyUSD).IsNegativeOrZero())
	assert.False(t, domain.Zero(domain.CurrencyUSD).IsStrictlyNegative())

	negative := usd(t, "-0.01")
	assert.True(t, negative.IsStrictlyNegative())
	assert.True(t, negative.IsNegativeOrZero())
	assert.False(t, negative.IsAmountZero())

	positive := usd(t, "0.01")
	assert.False(t, positive.IsNegativeOrZero())
	assert.False(t, positive.IsStrictlyNegative())
}
