package domain

import (
	"fmt"
	"time"
)

type AccountStatus string

const (
	AccountStatusOpened AccountStatus = "OPENED"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account is an immutable snapshot of an event stream. It is only ever
// produced by Rehydrate; command handlers read it and emit new events but
// never modify it.
type Account struct {
	id           AccountID
	currency     Currency
	balance      Money
	status       AccountStatus
	reservations map[ReservationID]Money
	version      int64
}

// HandleOpenAccount validates the opening command and produces the first
// event of a new stream at version 1.
func HandleOpenAccount(cmd OpenAccount, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if cmd.InitialBalance.IsStrictlyNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInitialBalance, cmd.InitialBalance)
	}
	if cmd.InitialBalance.Currency() != cmd.Currency {
		return nil, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, cmd.InitialBalance.Currency(), cmd.Currency)
	}

	opened := AccountOpened{
		EventMeta:      EventMeta{EventID: gen.NewEventID(), AccountID: cmd.AccountID, OccurredAt: occurredAt, Version: 1},
		Currency:       cmd.Currency,
		InitialBalance: cmd.InitialBalance,
	}
	return []AccountEvent{opened}, nil
}

// Rehydrate rebuilds an account by folding its full history in version
// order. The fold is pure; every intermediate snapshot is discarded.
func Rehydrate(history []AccountEvent) (Account, error) {
	if len(history) == 0 {
		return Account{}, ErrAccountHistoryNotFound
	}
	opened, ok := history[0].(AccountOpened)
	if !ok {
		return Account{}, fmt.Errorf("%w: history must start with AccountOpened", ErrInvalidAccountEventStream)
	}

	account := Account{
		id:           opened.AccountID,
		currency:     opened.Currency,
		reservations: map[ReservationID]Money{},
	}
	for i, event := range history {
		if event.Meta().Version != int64(i)+1 {
			return Account{}, fmt.Errorf("%w: expected version %d but got %d",
				ErrInvalidAccountEventStream, i+1, event.Meta().Version)
		}
		next, err := account.apply(event)
		if err != nil {
			return Account{}, err
		}
		account = next
	}
	return account, nil
}

func (a Account) HandleCredit(cmd CreditAccount, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if err := a.ensureAccountID(cmd.AccountID); err != nil {
		return nil, err
	}
	if err := a.ensureCurrency(cmd.Amount.Currency()); err != nil {
		return nil, err
	}
	if err := ensureStrictlyPositive(cmd.Amount); err != nil {
		return nil, err
	}
	if err := a.ensureActive(); err != nil {
		return nil, err
	}

	credited := FundsCredited{
		EventMeta:     a.nextMeta(gen, occurredAt),
		TransactionID: cmd.TransactionID,
		Amount:        cmd.Amount,
	}
	return []AccountEvent{credited}, nil
}

func (a Account) HandleDebit(cmd DebitAccount, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if err := a.ensureAccountID(cmd.AccountID); err != nil {
		return nil, err
	}
	if err := a.ensureCurrency(cmd.Amount.Currency()); err != nil {
		return nil, err
	}
	if err := ensureStrictlyPositive(cmd.Amount); err != nil {
		return nil, err
	}
	if err := a.ensureActive(); err != nil {
		return nil, err
	}
	// Debits may not eat into funds already promised to a reservation, so the
	// check runs against the available balance, same as ReserveFunds.
	exceeds, err := cmd.Amount.GreaterThan(a.AvailableBalance())
	if err != nil {
		return nil, err
	}
	if exceeds {
		return nil, ErrInsufficientFunds
	}

	debited := FundsDebited{
		EventMeta:     a.nextMeta(gen, occurredAt),
		TransactionID: cmd.TransactionID,
		Amount:        cmd.Amount,
	}
	return []AccountEvent{debited}, nil
}

func (a Account) HandleReserveFunds(cmd ReserveFunds, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if err := a.ensureAccountID(cmd.AccountID); err != nil {
		return nil, err
	}
	if err := a.ensureCurrency(cmd.Amount.Currency()); err != nil {
		return nil, err
	}
	if err := ensureStrictlyPositive(cmd.Amount); err != nil {
		return nil, err
	}
	if err := a.ensureActive(); err != nil {
		return nil, err
	}

	if existing, ok := a.reservations[cmd.ReservationID]; ok {
		if existing.Equal(cmd.Amount) {
			// Same reservation replayed: absorbed as a no-op.
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s holds %s, requested %s",
			ErrReservationConflict, cmd.ReservationID, existing, cmd.Amount)
	}
	exceeds, err := cmd.Amount.GreaterThan(a.AvailableBalance())
	if err != nil {
		return nil, err
	}
	if exceeds {
		return nil, ErrInsufficientFunds
	}

	reserved := FundsReserved{
		EventMeta:     a.nextMeta(gen, occurredAt),
		ReservationID: cmd.ReservationID,
		Amount:        cmd.Amount,
	}
	return []AccountEvent{reserved}, nil
}

func (a Account) HandleCancelReservation(cmd CancelReservation, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if err := a.ensureAccountID(cmd.AccountID); err != nil {
		return nil, err
	}
	// Unknown reservation is absorbed before the status check so a replayed
	// cancel stays a no-op even after the account was closed.
	amount, ok := a.reservations[cmd.ReservationID]
	if !ok {
		return nil, nil
	}
	if err := a.ensureActive(); err != nil {
		return nil, err
	}

	cancelled := ReservationCancelled{
		EventMeta:       a.nextMeta(gen, occurredAt),
		ReservationID:   cmd.ReservationID,
		AmountCancelled: amount,
	}
	return []AccountEvent{cancelled}, nil
}

func (a Account) HandleCaptureReservation(cmd CaptureReservation, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if err := a.ensureAccountID(cmd.AccountID); err != nil {
		return nil, err
	}
	amount, ok := a.reservations[cmd.ReservationID]
	if !ok {
		return nil, nil
	}
	if err := a.ensureActive(); err != nil {
		return nil, err
	}

	captured := ReservationCaptured{
		EventMeta:     a.nextMeta(gen, occurredAt),
		ReservationID: cmd.ReservationID,
		Amount:        amount,
	}
	return []AccountEvent{captured}, nil
}

func (a Account) HandleClose(cmd CloseAccount, gen EventIDGenerator, occurredAt time.Time) ([]AccountEvent, error) {
	if err := a.ensureAccountID(cmd.AccountID); err != nil {
		return nil, err
	}
	if err := a.ensureActive(); err != nil {
		return nil, err
	}
	if !a.balance.IsAmountZero() || len(a.reservations) > 0 {
		return nil, ErrAccountNotEmpty
	}

	closed := AccountClosed{EventMeta: a.nextMeta(gen, occurredAt)}
	return []AccountEvent{closed}, nil
}

// apply folds one event into a new snapshot. The reservations map is copied
// so previous snapshots stay untouched.
func (a Account) apply(event AccountEvent) (Account, error) {
	next := a
	next.version = event.Meta().Version
	next.reservations = make(map[ReservationID]Money, len(a.reservations)+1)
	for id, amount := range a.reservations {
		next.reservations[id] = amount
	}

	var err error
	switch e := event.(type) {
	case AccountOpened:
		next.balance = e.InitialBalance
		next.status = AccountStatusOpened
	case FundsCredited:
		next.balance, err = next.balance.Add(e.Amount)
	case FundsDebited:
		next.balance, err = next.balance.Subtract(e.Amount)
	case FundsReserved:
		next.reservations[e.ReservationID] = e.Amount
	case ReservationCancelled:
		delete(next.reservations, e.ReservationID)
	case ReservationCaptured:
		next.balance, err = next.balance.Subtract(e.Amount)
		delete(next.reservations, e.ReservationID)
	case AccountClosed:
		next.status = AccountStatusClosed
	}
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrInvalidAccountEventStream, err)
	}
	return next, nil
}

func (a Account) ID() AccountID {
	return a.id
}

func (a Account) Currency() Currency {
	return a.currency
}

func (a Account) Balance() Money {
	return a.balance
}

func (a Account) Status() AccountStatus {
	return a.status
}

func (a Account) Version() int64 {
	return a.version
}

// AvailableBalance is the balance minus the sum of all active reservations.
func (a Account) AvailableBalance() Money {
	available := a.balance.amount
	for _, reserved := range a.reservations {
		available = available.Sub(reserved.amount)
	}
	return Money{amount: available, currency: a.currency}
}

func (a Account) Reservations() map[ReservationID]Money {
	out := make(map[ReservationID]Money, len(a.reservations))
	for id, amount := range a.reservations {
		out[id] = amount
	}
	return out
}

func (a Account) nextMeta(gen EventIDGenerator, occurredAt time.Time) EventMeta {
	return EventMeta{
		EventID:    gen.NewEventID(),
		AccountID:  a.id,
		OccurredAt: occurredAt,
		Version:    a.version + 1,
	}
}

func (a Account) ensureAccountID(accountID AccountID) error {
	if accountID != a.id {
		return fmt.Errorf("%w: %s vs %s", ErrAccountIDMismatch, accountID, a.id)
	}
	return nil
}

func (a Account) ensureCurrency(currency Currency) error {
	if currency != a.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, currency, a.currency)
	}
	return nil
}

func (a Account) ensureActive() error {
	if a.status != AccountStatusOpened {
		return ErrAccountInactive
	}
	return nil
}

func ensureStrictlyPositive(amount Money) error {
	if amount.IsNegativeOrZero() {
		return fmt.Errorf("%w: %s", ErrAmountMustBePositive, amount)
	}
	return nil
}
