package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type AccountID uuid.UUID

type ReservationID uuid.UUID

type TransactionID uuid.UUID

type EventID uuid.UUID

func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

func ParseAccountID(value string) (AccountID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return AccountID{}, fmt.Errorf("parse account id %q: %w", value, err)
	}
	return AccountID(id), nil
}

func (id AccountID) String() string {
	return uuid.UUID(id).String()
}

func NewReservationID() ReservationID {
	return ReservationID(uuid.New())
}

func ParseReservationID(value string) (ReservationID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return ReservationID{}, fmt.Errorf("parse reservation id %q: %w", value, err)
	}
	return ReservationID(id), nil
}

func (id ReservationID) String() string {
	return uuid.UUID(id).String()
}

func NewTransactionID() TransactionID {
	return TransactionID(uuid.New())
}

func ParseTransactionID(value string) (TransactionID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return TransactionID{}, fmt.Errorf("parse transaction id %q: %w", value, err)
	}
	return TransactionID(id), nil
}

func (id TransactionID) String() string {
	return uuid.UUID(id).String()
}

func NewEventID() EventID {
	return EventID(uuid.New())
}

func ParseEventID(value string) (EventID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return EventID{}, fmt.Errorf("parse event id %q: %w", value, err)
	}
	return EventID(id), nil
}

func (id EventID) String() string {
	return uuid.UUID(id).String()
}

// EventIDGenerator produces identifiers for newly emitted events. Command
// handlers take it as a dependency so tests can pin event ids.
type EventIDGenerator interface {
	NewEventID() EventID
}

type RandomEventIDGenerator struct{}

func (RandomEventIDGenerator) NewEventID() EventID {
	return NewEventID()
}
