package domain

import "time"

const (
	EventTypeAccountOpened        = "AccountOpened"
	EventTypeFundsCredited        = "FundsCredited"
	EventTypeFundsDebited         = "FundsDebited"
	EventTypeFundsReserved        = "FundsReserved"
	EventTypeReservationCancelled = "ReservationCancelled"
	EventTypeReservationCaptured  = "ReservationCaptured"
	EventTypeAccountClosed        = "AccountClosed"
)

// EventMeta carries the fields shared by every event in an account stream.
// Version starts at 1 and increases by exactly 1 per event.
type EventMeta struct {
	EventID    EventID
	AccountID  AccountID
	OccurredAt time.Time
	Version    int64
}

// AccountEvent is the closed set of state changes an account can record.
// The unexported marker method keeps the set closed to this package.
type AccountEvent interface {
	Meta() EventMeta
	EventType() string
	isAccountEvent()
}

type AccountOpened struct {
	EventMeta
	Currency       Currency
	InitialBalance Money
}

func (e AccountOpened) Meta() EventMeta   { return e.EventMeta }
func (e AccountOpened) EventType() string { return EventTypeAccountOpened }
func (AccountOpened) isAccountEvent()     {}

type FundsCredited struct {
	EventMeta
	TransactionID TransactionID
	Amount        Money
}

func (e FundsCredited) Meta() EventMeta   { return e.EventMeta }
func (e FundsCredited) EventType() string { return EventTypeFundsCredited }
func (FundsCredited) isAccountEvent()     {}

type FundsDebited struct {
	EventMeta
	TransactionID TransactionID
	Amount        Money
}

func (e FundsDebited) Meta() EventMeta   { return e.EventMeta }
func (e FundsDebited) EventType() string { return EventTypeFundsDebited }
func (FundsDebited) isAccountEvent()     {}

type FundsReserved struct {
	EventMeta
	ReservationID ReservationID
	Amount        Money
}

func (e FundsReserved) Meta() EventMeta   { return e.EventMeta }
func (e FundsReserved) EventType() string { return EventTypeFundsReserved }
func (FundsReserved) isAccountEvent()     {}

type ReservationCancelled struct {
	EventMeta
	ReservationID   ReservationID
	AmountCancelled Money
}

func (e ReservationCancelled) Meta() EventMeta   { return e.EventMeta }
func (e ReservationCancelled) EventType() string { return EventTypeReservationCancelled }
func (ReservationCancelled) isAccountEvent()     {}

type ReservationCaptured struct {
	EventMeta
	ReservationID ReservationID
	Amount        Money
}

func (e ReservationCaptured) Meta() EventMeta   { return e.EventMeta }
func (e ReservationCaptured) EventType() string { return EventTypeReservationCaptured }
func (ReservationCaptured) isAccountEvent()     {}

type AccountClosed struct {
	EventMeta
}

func (e AccountClosed) Meta() EventMeta   { return e.EventMeta }
func (e AccountClosed) EventType() string { return EventTypeAccountClosed }
func (AccountClosed) isAccountEvent()     {}
