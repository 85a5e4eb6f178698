package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/shopspring/decimal"
)

type BalanceReadModelRepository struct {
	db *sql.DB
}

func NewBalanceReadModelRepository(db *sql.DB) *BalanceReadModelRepository {
	return &BalanceReadModelRepository{db: db}
}

func (r *BalanceReadModelRepository) GetAccountBalance(ctx context.Context, accountID domain.AccountID) (domain.AccountBalanceView, error) {
	const query = `
SELECT account_id, balance, reserved, currency, status, version
FROM account_balance_view
WHERE account_id = $1`

	var (
		rawAccountID string
		balance      decimal.Decimal
		reserved     decimal.Decimal
		currency     string
		status       string
		version      int64
	)

	err := r.db.QueryRowContext(ctx, query, accountID.String()).Scan(
		&rawAccountID, &balance, &reserved, &currency, &status, &version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AccountBalanceView{}, fmt.Errorf("%w: account %s", domain.ErrAccountBalanceNotFound, accountID)
	}
	if err != nil {
		return domain.AccountBalanceView{}, fmt.Errorf("get account balance %s: %w", accountID, err)
	}

	return domain.AccountBalanceView{
		AccountID: accountID,
		Balance:   balance,
		Reserved:  reserved,
		Currency:  domain.Currency(currency),
		Status:    domain.AccountStatus(status),
		Version:   version,
	}, nil
}

// Project folds a version-ordered stream of events for one account into the
// summary row. Events at or below the row's current version are skipped, so
// replaying the full stream is idempotent and concurrent projections converge;
// the upsert additionally refuses to regress version.
func (r *BalanceReadModelRepository) Project(ctx context.Context, events []domain.AccountEvent) error {
	if len(events) == 0 {
		return nil
	}

	accountID := events[0].Meta().AccountID

	state, err := r.currentState(ctx, accountID)
	if err != nil {
		return err
	}

	for _, event := range events {
		if event.Meta().Version <= state.version {
			continue
		}
		if event.Meta().Version != state.version+1 {
			return fmt.Errorf("%w: projection gap for account %s: have version %d but got %d",
				domain.ErrInvariantViolation, accountID, state.version, event.Meta().Version)
		}
		state = applyEventToState(state, event)
	}

	const upsert = `
INSERT INTO account_balance_view (account_id, balance, reserved, currency, status, version)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (account_id) DO UPDATE
SET balance = EXCLUDED.balance,
    reserved = EXCLUDED.reserved,
    currency = EXCLUDED.currency,
    status = EXCLUDED.status,
    version = EXCLUDED.version
WHERE account_balance_view.version < EXCLUDED.version`

	if _, err := r.db.ExecContext(
		ctx,
		upsert,
		accountID.String(),
		state.balance,
		state.reserved,
		state.currency,
		state.status,
		state.version,
	); err != nil {
		return fmt.Errorf("upsert balance view for account %s: %w", accountID, err)
	}

	return nil
}

type projectionState struct {
	balance  decimal.Decimal
	reserved decimal.Decimal
	currency string
	status   string
	version  int64
}

func (r *BalanceReadModelRepository) currentState(ctx context.Context, accountID domain.AccountID) (projectionState, error) {
	const query = `
SELECT balance, reserved, currency, status, version
FROM account_balance_view
WHERE account_id = $1`

	var state projectionState
	err := r.db.QueryRowContext(ctx, query, accountID.String()).Scan(
		&state.balance, &state.reserved, &state.currency, &state.status, &state.version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return projectionState{balance: decimal.Zero, reserved: decimal.Zero}, nil
	}
	if err != nil {
		return projectionState{}, fmt.Errorf("read projection state for account %s: %w", accountID, err)
	}
	return state, nil
}

func applyEventToState(state projectionState, event domain.AccountEvent) projectionState {
	switch e := event.(type) {
	case domain.AccountOpened:
		state.balance = e.InitialBalance.Amount()
		state.currency = e.Currency.String()
		state.status = string(domain.AccountStatusOpened)
	case domain.FundsCredited:
		state.balance = state.balance.Add(e.Amount.Amount())
	case domain.FundsDebited:
		state.balance = state.balance.Sub(e.Amount.Amount())
	case domain.FundsReserved:
		state.reserved = state.reserved.Add(e.Amount.Amount())
	case domain.ReservationCancelled:
		state.reserved = state.reserved.Sub(e.AmountCancelled.Amount())
	case domain.ReservationCaptured:
		state.balance = state.balance.Sub(e.Amount.Amount())
		state.reserved = state.reserved.Sub(e.Amount.Amount())
	case domain.AccountClosed:
		state.status = string(domain.AccountStatusClosed)
	}

	state.version = event.Meta().Version
	return state
}
