package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OpenAccountRequest struct {
	Currency       string `json:"currency"`
	InitialBalance string `json:"initialBalance"`
}

func (r OpenAccountRequest) Validate() error {
	var errs []string

	ccy := strings.ToUpper(strings.TrimSpace(r.Currency))
	if ccy == "" {
		errs = append(errs, "currency is required")
	} else if ccy != "USD" && ccy != "EUR" && ccy != "GBP" && ccy != "NGN" && ccy != "JPY" {
		errs = append(errs, "currency must be one of USD, EUR, GBP, NGN, JPY")
	}

	balance := strings.TrimSpace(r.InitialBalance)
	if balance == "" {
		errs = append(errs, "initialBalance is required")
	} else {
		parsed, err := decimal.NewFromString(balance)
		if err != nil {
			errs = append(errs, "initialBalance must be numeric")
		} else if parsed.IsNegative() {
			errs = append(errs, "initialBalance cannot be negative")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type OpenAccountResponse struct {
	AccountID string `json:"accountId"`
}

type MoveFundsRequest struct {
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
}

func (r MoveFundsRequest) Validate() error {
	var errs []string

	if _, err := uuid.Parse(strings.TrimSpace(r.TransactionID)); err != nil {
		errs = append(errs, "transactionId must be a valid UUID")
	}
	errs = appendAmountErrors(errs, r.Amount)

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type ReserveFundsRequest struct {
	ReservationID string `json:"reservationId"`
	Amount        string `json:"amount"`
}

func (r ReserveFundsRequest) Validate() error {
	var errs []string

	if _, err := uuid.Parse(strings.TrimSpace(r.ReservationID)); err != nil {
		errs = append(errs, "reservationId must be a valid UUID")
	}
	errs = appendAmountErrors(errs, r.Amount)

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountBalanceResponse struct {
	AccountID        string `json:"accountId"`
	Balance          string `json:"balance"`
	Reserved         string `json:"reserved"`
	AvailableBalance string `json:"availableBalance"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Version          int64  `json:"version"`
}

type CaptureReservationResponse struct {
	AccountID     string  `json:"accountId"`
	ReservationID string  `json:"reservationId"`
	Status        string  `json:"status"`
	Amount        *string `json:"amount,omitempty"`
}

func appendAmountErrors(errs []string, amount string) []string {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return append(errs, "amount is required")
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return append(errs, "amount must be numeric")
	}
	if parsed.LessThanOrEqual(decimal.Zero) {
		return append(errs, "amount must be greater than zero")
	}
	return errs
}
