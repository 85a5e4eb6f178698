package domain

import "github.com/shopspring/decimal"

// AccountBalanceView is the denormalized read-model row for one account,
// maintained by the balance projector.
type AccountBalanceView struct {
	AccountID AccountID
	Balance   decimal.Decimal
	Reserved  decimal.Decimal
	Currency  Currency
	Status    AccountStatus
	Version   int64
}
