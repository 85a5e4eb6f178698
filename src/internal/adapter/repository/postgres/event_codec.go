package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/shopspring/decimal"
)

// eventStoreEntry mirrors one row of the event_store table.
type eventStoreEntry struct {
	EventID    string
	AccountID  string
	Version    int64
	EventType  string
	Payload    []byte
	OccurredAt time.Time
}

type accountOpenedPayload struct {
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type transactionPayload struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
}

type reservationPayload struct {
	ReservationID string          `json:"reservationId"`
	Amount        decimal.Decimal `json:"amount"`
}

type reservationCancelledPayload struct {
	ReservationID   string          `json:"reservationId"`
	AmountCancelled decimal.Decimal `json:"amountCancelled"`
}

func encodeEventPayload(event domain.AccountEvent) ([]byte, error) {
	var payload any

	switch e := event.(type) {
	case domain.AccountOpened:
		payload = accountOpenedPayload{
			Currency:       e.Currency.String(),
			InitialBalance: e.InitialBalance.Amount(),
		}
	case domain.FundsCredited:
		payload = transactionPayload{TransactionID: e.TransactionID.String(), Amount: e.Amount.Amount()}
	case domain.FundsDebited:
		payload = transactionPayload{TransactionID: e.TransactionID.String(), Amount: e.Amount.Amount()}
	case domain.FundsReserved:
		payload = reservationPayload{ReservationID: e.ReservationID.String(), Amount: e.Amount.Amount()}
	case domain.ReservationCancelled:
		payload = reservationCancelledPayload{ReservationID: e.ReservationID.String(), AmountCancelled: e.AmountCancelled.Amount()}
	case domain.ReservationCaptured:
		payload = reservationPayload{ReservationID: e.ReservationID.String(), Amount: e.Amount.Amount()}
	case domain.AccountClosed:
		payload = struct{}{}
	default:
		return nil, fmt.Errorf("encode event payload: unknown event type %q", event.EventType())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.EventType(), err)
	}
	return raw, nil
}

// decodeEvent rebuilds a domain event from a stored row. Amounts are stored
// without their currency, so the account currency (known from the stream's
// AccountOpened event) is passed in for every later variant.
func decodeEvent(entry eventStoreEntry, currency domain.Currency) (domain.AccountEvent, error) {
	meta, err := decodeMeta(entry)
	if err != nil {
		return nil, err
	}

	switch entry.EventType {
	case domain.EventTypeAccountOpened:
		var payload accountOpenedPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return nil, decodeErr(entry, err)
		}
		ccy, err := domain.ParseCurrency(payload.Currency)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		initialBalance, err := domain.NewMoney(payload.InitialBalance, ccy)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		return domain.AccountOpened{EventMeta: meta, Currency: ccy, InitialBalance: initialBalance}, nil

	case domain.EventTypeFundsCredited, domain.EventTypeFundsDebited:
		var payload transactionPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return nil, decodeErr(entry, err)
		}
		transactionID, err := domain.ParseTransactionID(payload.TransactionID)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		amount, err := domain.NewMoney(payload.Amount, currency)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		if entry.EventType == domain.EventTypeFundsCredited {
			return domain.FundsCredited{EventMeta: meta, TransactionID: transactionID, Amount: amount}, nil
		}
		return domain.FundsDebited{EventMeta: meta, TransactionID: transactionID, Amount: amount}, nil

	case domain.EventTypeFundsReserved, domain.EventTypeReservationCaptured:
		var payload reservationPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return nil, decodeErr(entry, err)
		}
		reservationID, err := domain.ParseReservationID(payload.ReservationID)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		amount, err := domain.NewMoney(payload.Amount, currency)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		if entry.EventType == domain.EventTypeFundsReserved {
			return domain.FundsReserved{EventMeta: meta, ReservationID: reservationID, Amount: amount}, nil
		}
		return domain.ReservationCaptured{EventMeta: meta, ReservationID: reservationID, Amount: amount}, nil

	case domain.EventTypeReservationCancelled:
		var payload reservationCancelledPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return nil, decodeErr(entry, err)
		}
		reservationID, err := domain.ParseReservationID(payload.ReservationID)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		amount, err := domain.NewMoney(payload.AmountCancelled, currency)
		if err != nil {
			return nil, decodeErr(entry, err)
		}
		return domain.ReservationCancelled{EventMeta: meta, ReservationID: reservationID, AmountCancelled: amount}, nil

	case domain.EventTypeAccountClosed:
		return domain.AccountClosed{EventMeta: meta}, nil

	default:
		return nil, fmt.Errorf("%w: unknown event type %q at version %d",
			domain.ErrInvalidAccountEventStream, entry.EventType, entry.Version)
	}
}

func decodeMeta(entry eventStoreEntry) (domain.EventMeta, error) {
	eventID, err := domain.ParseEventID(entry.EventID)
	if err != nil {
		return domain.EventMeta{}, decodeErr(entry, err)
	}
	accountID, err := domain.ParseAccountID(entry.AccountID)
	if err != nil {
		return domain.EventMeta{}, decodeErr(entry, err)
	}
	return domain.EventMeta{
		EventID:    eventID,
		AccountID:  accountID,
		OccurredAt: entry.OccurredAt,
		Version:    entry.Version,
	}, nil
}

func decodeErr(entry eventStoreEntry, err error) error {
	return fmt.Errorf("%w: decode %s at version %d: %v",
		domain.ErrInvalidAccountEventStream, entry.EventType, entry.Version, err)
}
