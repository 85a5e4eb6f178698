package domain

type OpenAccount struct {
	AccountID      AccountID
	Currency       Currency
	InitialBalance Money
}

type CreditAccount struct {
	AccountID     AccountID
	TransactionID TransactionID
	Amount        Money
}

type DebitAccount struct {
	AccountID     AccountID
	TransactionID TransactionID
	Amount        Money
}

type ReserveFunds struct {
	AccountID     AccountID
	ReservationID ReservationID
	Amount        Money
}

type CancelReservation struct {
	AccountID     AccountID
	ReservationID ReservationID
}

type CaptureReservation struct {
	AccountID     AccountID
	ReservationID ReservationID
}

type CloseAccount struct {
	AccountID AccountID
}
