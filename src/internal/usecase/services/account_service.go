package services

import (
	"context"
	"errors"
	"time"

	"github.com/api-sage/wealthpay/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/api-sage/wealthpay/src/internal/logger"
)

const defaultMaxAttempts = 3

type ReservationCaptureStatus string

const (
	CaptureStatusCaptured ReservationCaptureStatus = "CAPTURED"
	CaptureStatusNoEffect ReservationCaptureStatus = "NO_EFFECT"
)

type CaptureReservationResult struct {
	AccountID     domain.AccountID
	ReservationID domain.ReservationID
	Status        ReservationCaptureStatus
	Amount        *domain.Money
}

// AccountService runs the command cycle for every account operation:
// load history, rehydrate, handle, append under the expected version, then
// fold the new events into the read model. Optimistic-lock conflicts restart
// the cycle from a fresh load, a bounded number of times.
type AccountService struct {
	eventStore  repo_interfaces.EventStore
	projector   repo_interfaces.BalanceProjector
	eventIDs    domain.EventIDGenerator
	now         func() time.Time
	maxAttempts int
}

func NewAccountService(
	eventStore repo_interfaces.EventStore,
	projector repo_interfaces.BalanceProjector,
	eventIDs domain.EventIDGenerator,
) *AccountService {
	return &AccountService{
		eventStore:  eventStore,
		projector:   projector,
		eventIDs:    eventIDs,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
}

func (s *AccountService) OpenAccount(ctx context.Context, currency domain.Currency, initialBalance domain.Money) (domain.AccountID, error) {
	accountID := domain.NewAccountID()

	logger.Info("account service open account", logger.Fields{
		"accountId":      accountID.String(),
		"currency":       currency.String(),
		"initialBalance": initialBalance.Amount(),
	})

	cmd := domain.OpenAccount{AccountID: accountID, Currency: currency, InitialBalance: initialBalance}
	events, err := domain.HandleOpenAccount(cmd, s.eventIDs, s.now().UTC())
	if err != nil {
		logger.Error("account service open account rejected", err, logger.Fields{
			"accountId": accountID.String(),
		})
		return domain.AccountID{}, err
	}

	if err := s.eventStore.AppendEvents(ctx, accountID, 0, events); err != nil {
		logger.Error("account service open account append failed", err, logger.Fields{
			"accountId": accountID.String(),
		})
		return domain.AccountID{}, err
	}
	if err := s.projector.Project(ctx, events); err != nil {
		logger.Error("account service open account projection failed", err, logger.Fields{
			"accountId": accountID.String(),
		})
		return domain.AccountID{}, err
	}

	return accountID, nil
}

func (s *AccountService) Credit(ctx context.Context, cmd domain.CreditAccount) error {
	_, err := s.runCommandCycle(ctx, cmd.AccountID, "credit", func(account domain.Account) ([]domain.AccountEvent, error) {
		return account.HandleCredit(cmd, s.eventIDs, s.now().UTC())
	})
	return err
}

func (s *AccountService) Debit(ctx context.Context, cmd domain.DebitAccount) error {
	_, err := s.runCommandCycle(ctx, cmd.AccountID, "debit", func(account domain.Account) ([]domain.AccountEvent, error) {
		return account.HandleDebit(cmd, s.eventIDs, s.now().UTC())
	})
	return err
}

func (s *AccountService) ReserveFunds(ctx context.Context, cmd domain.ReserveFunds) error {
	_, err := s.runCommandCycle(ctx, cmd.AccountID, "reserve funds", func(account domain.Account) ([]domain.AccountEvent, error) {
		return account.HandleReserveFunds(cmd, s.eventIDs, s.now().UTC())
	})
	return err
}

func (s *AccountService) CancelReservation(ctx context.Context, cmd domain.CancelReservation) error {
	_, err := s.runCommandCycle(ctx, cmd.AccountID, "cancel reservation", func(account domain.Account) ([]domain.AccountEvent, error) {
		return account.HandleCancelReservation(cmd, s.eventIDs, s.now().UTC())
	})
	return err
}

func (s *AccountService) CaptureReservation(ctx context.Context, cmd domain.CaptureReservation) (CaptureReservationResult, error) {
	events, err := s.runCommandCycle(ctx, cmd.AccountID, "capture reservation", func(account domain.Account) ([]domain.AccountEvent, error) {
		return account.HandleCaptureReservation(cmd, s.eventIDs, s.now().UTC())
	})
	if err != nil {
		return CaptureReservationResult{}, err
	}

	result := CaptureReservationResult{
		AccountID:     cmd.AccountID,
		ReservationID: cmd.ReservationID,
		Status:        CaptureStatusNoEffect,
	}
	for _, event := range events {
		if captured, ok := event.(domain.ReservationCaptured); ok {
			amount := captured.Amount
			result.Status = CaptureStatusCaptured
			result.Amount = &amount
			break
		}
	}
	return result, nil
}

func (s *AccountService) CloseAccount(ctx context.Context, cmd domain.CloseAccount) error {
	_, err := s.runCommandCycle(ctx, cmd.AccountID, "close account", func(account domain.Account) ([]domain.AccountEvent, error) {
		return account.HandleClose(cmd, s.eventIDs, s.now().UTC())
	})
	return err
}

func (s *AccountService) GetAccountBalance(ctx context.Context, accountID domain.AccountID) (domain.AccountBalanceView, error) {
	return s.projector.GetAccountBalance(ctx, accountID)
}

// runCommandCycle returns the appended events; a nil slice with nil error
// means the command was absorbed as an idempotent no-op.
func (s *AccountService) runCommandCycle(
	ctx context.Context,
	accountID domain.AccountID,
	operation string,
	handle func(domain.Account) ([]domain.AccountEvent, error),
) ([]domain.AccountEvent, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		history, err := s.eventStore.LoadEvents(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if len(history) == 0 {
			return nil, domain.ErrAccountHistoryNotFound
		}

		account, err := domain.Rehydrate(history)
		if err != nil {
			logger.Error("account service rehydration failed", err, logger.Fields{
				"accountId": accountID.String(),
				"operation": operation,
			})
			return nil, err
		}

		events, err := handle(account)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return nil, nil
		}

		if err := s.eventStore.AppendEvents(ctx, accountID, account.Version(), events); err != nil {
			if errors.Is(err, domain.ErrOptimisticLock) {
				logger.Info("account service retrying after version conflict", logger.Fields{
					"accountId": accountID.String(),
					"operation": operation,
					"attempt":   attempt,
				})
				lastErr = err
				continue
			}
			return nil, err
		}

		// Project the whole stream, not just the new tail: the projector
		// skips versions it already holds, so this stays correct even when a
		// competing writer's projection landed first.
		stream := make([]domain.AccountEvent, 0, len(history)+len(events))
		stream = append(stream, history...)
		stream = append(stream, events...)
		if err := s.projector.Project(ctx, stream); err != nil {
			return nil, err
		}
		return events, nil
	}

	logger.Error("account service gave up after version conflicts", lastErr, logger.Fields{
		"accountId": accountID.String(),
		"operation": operation,
		"attempts":  s.maxAttempts,
	})
	return nil, lastErr
}
