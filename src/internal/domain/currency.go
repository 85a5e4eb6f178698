package domain

import (
	"fmt"
	"strings"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyNGN Currency = "NGN"
	CurrencyJPY Currency = "JPY"
)

// fractionDigits is the canonical number of decimal places per currency.
var fractionDigits = map[Currency]int32{
	CurrencyUSD: 2,
	CurrencyEUR: 2,
	CurrencyGBP: 2,
	CurrencyNGN: 2,
	CurrencyJPY: 0,
}

func ParseCurrency(value string) (Currency, error) {
	ccy := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := fractionDigits[ccy]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, value)
	}
	return ccy, nil
}

func (c Currency) IsValid() bool {
	_, ok := fractionDigits[c]
	return ok
}

func (c Currency) FractionDigits() int32 {
	return fractionDigits[c]
}

func (c Currency) String() string {
	return string(c)
}
