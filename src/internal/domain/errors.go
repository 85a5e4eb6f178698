package domain

import "errors"

var ErrInvalidInitialBalance = errors.New("Initial balance must not be negative")
var ErrCurrencyMismatch = errors.New("Currencies mismatch")
var ErrUnsupportedCurrency = errors.New("Unsupported currency")
var ErrAmountMustBePositive = errors.New("Amount must be strictly positive")
var ErrAccountIDMismatch = errors.New("Account id does not match aggregate id")
var ErrAccountInactive = errors.New("Account is not opened")
var ErrAccountNotEmpty = errors.New("Account balance must be zero and reservations empty")
var ErrInsufficientFunds = errors.New("Insufficient funds")
var ErrReservationConflict = errors.New("Reservation already exists with a different amount")
var ErrAccountHistoryNotFound = errors.New("Account history not found")
var ErrInvalidAccountEventStream = errors.New("Invalid account event stream")
var ErrOptimisticLock = errors.New("Concurrent modification detected")
var ErrInvariantViolation = errors.New("Event stream invariant violation")
var ErrAccountBalanceNotFound = errors.New("Account balance not found")
