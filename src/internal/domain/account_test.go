package domain_test

import (
	"testing"
	"time"

	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventIDs = domain.RandomEventIDGenerator{}

var testClock = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func openUSDAccount(t *testing.T, initialBalance string) (domain.Account, []domain.AccountEvent) {
	t.Helper()
	accountID := domain.NewAccountID()
	events, err := domain.HandleOpenAccount(domain.OpenAccount{
		AccountID:      accountID,
		Currency:       domain.CurrencyUSD,
		InitialBalance: usd(t, initialBalance),
	}, eventIDs, testClock)
	require.NoError(t, err)

	account, err := domain.Rehydrate(events)
	require.NoError(t, err)
	return account, events
}

func advance(t *testing.T, history, events []domain.AccountEvent) (domain.Account, []domain.AccountEvent) {
	t.Helper()
	history = append(history, events...)
	account, err := domain.Rehydrate(history)
	require.NoError(t, err)
	return account, history
}

func TestOpenAccountThenRehydrate(t *testing.T) {
	account, events := openUSDAccount(t, "100.00")

	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].Meta().Version)
	assert.Equal(t, domain.AccountStatusOpened, account.Status())
	assert.True(t, account.Balance().Equal(usd(t, "100.00")))
	assert.Equal(t, int64(1), account.Version())
	assert.Empty(t, account.Reservations())
}

func TestOpenAccountRejectsNegativeInitialBalance(t *testing.T) {
	_, err := domain.HandleOpenAccount(domain.OpenAccount{
		AccountID:      domain.NewAccountID(),
		Currency:       domain.CurrencyUSD,
		InitialBalance: usd(t, "-1.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrInvalidInitialBalance)
}

func TestOpenAccountRejectsCurrencyMismatch(t *testing.T) {
	_, err := domain.HandleOpenAccount(domain.OpenAccount{
		AccountID:      domain.NewAccountID(),
		Currency:       domain.CurrencyEUR,
		InitialBalance: usd(t, "10.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestRehydrateRejectsEmptyHistory(t *testing.T) {
	_, err := domain.Rehydrate(nil)
	assert.ErrorIs(t, err, domain.ErrAccountHistoryNotFound)
}

func TestRehydrateRejectsStreamNotStartingWithAccountOpened(t *testing.T) {
	account, _ := openUSDAccount(t, "10.00")
	credit, err := account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "1.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)

	_, err = domain.Rehydrate(credit)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountEventStream)
}

func TestRehydrateRejectsVersionGap(t *testing.T) {
	account, history := openUSDAccount(t, "10.00")

	credit, err := account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "1.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)

	account, history = advance(t, history, credit)

	// Drop version 2 to punch a hole in the stream.
	gapped := []domain.AccountEvent{history[0]}
	credit, err = account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "1.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	gapped = append(gapped, credit...)

	_, err = domain.Rehydrate(gapped)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountEventStream)
}

func TestCreditIncreasesBalance(t *testing.T) {
	account, history := openUSDAccount(t, "100.00")

	events, err := account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "25.50"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].Meta().Version)

	account, _ = advance(t, history, events)
	assert.True(t, account.Balance().Equal(usd(t, "125.50")))
}

func TestCreditValidations(t *testing.T) {
	account, _ := openUSDAccount(t, "100.00")

	_, err := account.HandleCredit(domain.CreditAccount{
		AccountID:     domain.NewAccountID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "1.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrAccountIDMismatch)

	eur, err := domain.NewMoneyFromString("1.00", domain.CurrencyEUR)
	require.NoError(t, err)
	_, err = account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        eur,
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        domain.Zero(domain.CurrencyUSD),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrAmountMustBePositive)
}

func TestDebitMoreThanBalanceFails(t *testing.T) {
	account, _ := openUSDAccount(t, "10.00")

	_, err := account.HandleDebit(domain.DebitAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "15.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.True(t, account.Balance().Equal(usd(t, "10.00")))
	assert.Equal(t, int64(1), account.Version())
}

func TestDebitChecksAvailableBalanceNotRawBalance(t *testing.T) {
	account, history := openUSDAccount(t, "100.00")

	reserved, err := account.HandleReserveFunds(domain.ReserveFunds{
		AccountID:     account.ID(),
		ReservationID: domain.NewReservationID(),
		Amount:        usd(t, "60.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	account, _ = advance(t, history, reserved)

	// 50 fits the raw balance but not the 40 left after the reservation.
	_, err = account.HandleDebit(domain.DebitAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "50.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	events, err := account.HandleDebit(domain.DebitAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "40.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestReserveFundsIsIdempotentForSameAmount(t *testing.T) {
	account, history := openUSDAccount(t, "100.00")
	reservationID := domain.NewReservationID()

	cmd := domain.ReserveFunds{AccountID: account.ID(), ReservationID: reservationID, Amount: usd(t, "40.00")}

	events, err := account.HandleReserveFunds(cmd, eventIDs, testClock)
	require.NoError(t, err)
	require.Len(t, events, 1)
	account, history = advance(t, history, events)

	replayed, err := account.HandleReserveFunds(cmd, eventIDs, testClock)
	require.NoError(t, err)
	assert.Empty(t, replayed)

	var reservedCount int
	for _, event := range history {
		if _, ok := event.(domain.FundsReserved); ok {
			reservedCount++
		}
	}
	assert.Equal(t, 1, reservedCount)
}

func TestReserveFundsConflictsOnDifferentAmount(t *testing.T) {
	account, history := openUSDAccount(t, "100.00")
	reservationID := domain.NewReservationID()

	events, err := account.HandleReserveFunds(domain.ReserveFunds{
		AccountID: account.ID(), ReservationID: reservationID, Amount: usd(t, "40.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	account, _ = advance(t, history, events)

	_, err = account.HandleReserveFunds(domain.ReserveFunds{
		AccountID: account.ID(), ReservationID: reservationID, Amount: usd(t, "41.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrReservationConflict)
}

func TestReserveFundsRejectsAmountAboveAvailableBalance(t *testing.T) {
	account, _ := openUSDAccount(t, "100.00")

	_, err := account.HandleReserveFunds(domain.ReserveFunds{
		AccountID: account.ID(), ReservationID: domain.NewReservationID(), Amount: usd(t, "100.01"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestCancelReservationRestoresAvailableBalance(t *testing.T) {
	account, history := openUSDAccount(t, "100.00")
	reservationID := domain.NewReservationID()

	events, err := account.HandleReserveFunds(domain.ReserveFunds{
		AccountID: account.ID(), ReservationID: reservationID, Amount: usd(t, "40.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	account, history = advance(t, history, events)

	cancelled, err := account.HandleCancelReservation(domain.CancelReservation{
		AccountID: account.ID(), ReservationID: reservationID,
	}, eventIDs, testClock)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)

	account, _ = advance(t, history, cancelled)
	assert.True(t, account.Balance().Equal(usd(t, "100.00")))
	assert.True(t, account.AvailableBalance().Equal(usd(t, "100.00")))
	assert.Empty(t, account.Reservations())
}

func TestCancelUnknownReservationIsNoOp(t *testing.T) {
	account, _ := openUSDAccount(t, "100.00")

	events, err := account.HandleCancelReservation(domain.CancelReservation{
		AccountID: account.ID(), ReservationID: domain.NewReservationID(),
	}, eventIDs, testClock)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCaptureUnknownReservationIsNoOp(t *testing.T) {
	account, _ := openUSDAccount(t, "100.00")

	events, err := account.HandleCaptureReservation(domain.CaptureReservation{
		AccountID: account.ID(), ReservationID: domain.NewReservationID(),
	}, eventIDs, testClock)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReserveThenCaptureScenario(t *testing.T) {
	account, history := openUSDAccount(t, "100.00")
	reservationID := domain.NewReservationID()

	events, err := account.HandleReserveFunds(domain.ReserveFunds{
		AccountID: account.ID(), ReservationID: reservationID, Amount: usd(t, "40.00"),
	}, eventIDs, testClock)
	require.NoError(t, err)
	account, history = advance(t, history, events)

	assert.True(t, account.AvailableBalance().Equal(usd(t, "60.00")))
	assert.True(t, account.Balance().Equal(usd(t, "100.00")))

	captured, err := account.HandleCaptureReservation(domain.CaptureReservation{
		AccountID: account.ID(), ReservationID: reservationID,
	}, eventIDs, testClock)
	require.NoError(t, err)
	require.Len(t, captured, 1)

	account, _ = advance(t, history, captured)
	assert.True(t, account.Balance().Equal(usd(t, "60.00")))
	assert.True(t, account.AvailableBalance().Equal(usd(t, "60.00")))
	assert.Empty(t, account.Reservations())
	assert.Equal(t, int64(3), account.Version())
}

func TestCloseEmptyAccount(t *testing.T) {
	account, history := openUSDAccount(t, "0.00")

	events, err := account.HandleClose(domain.CloseAccount{AccountID: account.ID()}, eventIDs, testClock)
	require.NoError(t, err)
	require.Len(t, events, 1)

	account, _ = advance(t, history, events)
	assert.Equal(t, domain.AccountStatusClosed, account.Status())
	assert.Equal(t, int64(2), account.Version())
}

func TestCloseRejectsNonEmptyAccount(t *testing.T) {
	account, _ := openUSDAccount(t, "10.00")

	_, err := account.HandleClose(domain.CloseAccount{AccountID: account.ID()}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrAccountNotEmpty)
}

func TestClosedAccountRejectsCommands(t *testing.T) {
	account, history := openUSDAccount(t, "0.00")

	events, err := account.HandleClose(domain.CloseAccount{AccountID: account.ID()}, eventIDs, testClock)
	require.NoError(t, err)
	account, _ = advance(t, history, events)

	_, err = account.HandleCredit(domain.CreditAccount{
		AccountID:     account.ID(),
		TransactionID: domain.NewTransactionID(),
		Amount:        usd(t, "1.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrAccountInactive)

	_, err = account.HandleReserveFunds(domain.ReserveFunds{
		AccountID: account.ID(), ReservationID: domain.NewReservationID(), Amount: usd(t, "1.00"),
	}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrAccountInactive)

	_, err = account.HandleClose(domain.CloseAccount{AccountID: account.ID()}, eventIDs, testClock)
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestClosedAccountStillAbsorbsUnknownReservationReplays(t *testing.T) {
	account, history := openUSDAccount(t, "0.00")

	events, err := account.HandleClose(domain.CloseAccount{AccountID: account.ID()}, eventIDs, testClock)
	require.NoError(t, err)
	account, _ = advance(t, history, events)

	cancelled, err := account.HandleCancelReservation(domain.CancelReservation{
		AccountID: account.ID(), ReservationID: domain.NewReservationID(),
	}, eventIDs, testClock)
	require.NoError(t, err)
	assert.Empty(t, cancelled)

	captured, err := account.HandleCaptureReservation(domain.CaptureReservation{
		AccountID: account.ID(), ReservationID: domain.NewReservationID(),
	}, eventIDs, testClock)
	require.NoError(t, err)
	assert.Empty(t, captured)
}
