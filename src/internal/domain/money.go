package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount bound to a currency. The amount is always
// normalized to the currency's fraction digits using round-half-to-even.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}
	return Money{
		amount:   amount.RoundBank(currency.FractionDigits()),
		currency: currency,
	}, nil
}

func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return NewMoney(parsed, currency)
}

func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero.RoundBank(currency.FractionDigits()), currency: currency}
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() Currency {
	return m.currency
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Add(other.amount).RoundBank(m.currency.FractionDigits()),
		currency: m.currency,
	}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Sub(other.amount).RoundBank(m.currency.FractionDigits()),
		currency: m.currency,
	}, nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) IsNegativeOrZero() bool {
	return m.amount.Sign() <= 0
}

func (m Money) IsStrictlyNegative() bool {
	return m.amount.Sign() < 0
}

func (m Money) IsAmountZero() bool {
	return m.amount.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(m.currency.FractionDigits()) + " " + string(m.currency)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}
