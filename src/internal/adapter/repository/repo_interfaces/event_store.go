package repo_interfaces

import (
	"context"

	"github.com/api-sage/wealthpay/src/internal/domain"
)

// EventStore is the append-only, per-account event log. AppendEvents must
// refuse to extend a stream whose current max version differs from
// expectedVersion, surfacing domain.ErrOptimisticLock.
type EventStore interface {
	LoadEvents(ctx context.Context, accountID domain.AccountID) ([]domain.AccountEvent, error)
	AppendEvents(ctx context.Context, accountID domain.AccountID, expectedVersion int64, events []domain.AccountEvent) error
}

// BalanceProjector folds a version-ordered event stream into the balance read
// model, skipping versions already applied.
type BalanceProjector interface {
	Project(ctx context.Context, events []domain.AccountEvent) error
	GetAccountBalance(ctx context.Context, accountID domain.AccountID) (domain.AccountBalanceView, error)
}
