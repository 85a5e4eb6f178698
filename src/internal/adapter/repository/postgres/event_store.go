package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/wealthpay/src/internal/domain"
	"github.com/api-sage/wealthpay/src/internal/logger"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

type EventStoreRepository struct {
	db *sql.DB
}

func NewEventStoreRepository(db *sql.DB) *EventStoreRepository {
	return &EventStoreRepository{db: db}
}

func (r *EventStoreRepository) LoadEvents(ctx context.Context, accountID domain.AccountID) ([]domain.AccountEvent, error) {
	const query = `
SELECT event_id, account_id, version, event_type, payload, occurred_at
FROM event_store
WHERE account_id = $1
ORDER BY version ASC`

	rows, err := r.db.QueryContext(ctx, query, accountID.String())
	if err != nil {
		return nil, fmt.Errorf("load events for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var events []domain.AccountEvent
	var currency domain.Currency

	for rows.Next() {
		var entry eventStoreEntry
		if err := rows.Scan(
			&entry.EventID,
			&entry.AccountID,
			&entry.Version,
			&entry.EventType,
			&entry.Payload,
			&entry.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan event row for account %s: %w", accountID, err)
		}

		event, err := decodeEvent(entry, currency)
		if err != nil {
			return nil, err
		}
		if opened, ok := event.(domain.AccountOpened); ok {
			currency = opened.Currency
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows for account %s: %w", accountID, err)
	}

	return events, nil
}

// AppendEvents extends the stream only if its current max version equals
// expectedVersion. The pre-check read is a fast fail; the UNIQUE
// (account_id, version) constraint is what actually arbitrates concurrent
// writers, surfacing as domain.ErrOptimisticLock.
func (r *EventStoreRepository) AppendEvents(ctx context.Context, accountID domain.AccountID, expectedVersion int64, events []domain.AccountEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := ensureContiguous(expectedVersion, events); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx for account %s: %w", accountID, err)
	}

	var currentVersion int64
	const versionQuery = `SELECT COALESCE(MAX(version), 0) FROM event_store WHERE account_id = $1`
	if err := tx.QueryRowContext(ctx, versionQuery, accountID.String()).Scan(&currentVersion); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read current version for account %s: %w", accountID, err)
	}

	if currentVersion != expectedVersion {
		_ = tx.Rollback()
		return fmt.Errorf("%w: account %s expected version %d but found %d",
			domain.ErrOptimisticLock, accountID, expectedVersion, currentVersion)
	}

	const insertQuery = `
INSERT INTO event_store (event_id, account_id, version, event_type, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	for _, event := range events {
		payload, err := encodeEventPayload(event)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		meta := event.Meta()
		if _, err := tx.ExecContext(
			ctx,
			insertQuery,
			meta.EventID.String(),
			accountID.String(),
			meta.Version,
			event.EventType(),
			payload,
			meta.OccurredAt,
		); err != nil {
			_ = tx.Rollback()
			if isUniqueViolation(err) {
				logger.Info("event store append lost version race", logger.Fields{
					"accountId": accountID.String(),
					"version":   meta.Version,
				})
				return fmt.Errorf("%w: account %s version %d already written",
					domain.ErrOptimisticLock, accountID, meta.Version)
			}
			return fmt.Errorf("append event version %d for account %s: %w", meta.Version, accountID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append for account %s: %w", accountID, err)
	}

	return nil
}

// ensureContiguous rejects batches that do not continue expectedVersion by
// exactly one per event. A gap here is a caller bug, never a retryable
// conflict.
func ensureContiguous(expectedVersion int64, events []domain.AccountEvent) error {
	for i, event := range events {
		want := expectedVersion + int64(i) + 1
		if event.Meta().Version != want {
			return fmt.Errorf("%w: expected version %d but event carries %d",
				domain.ErrInvariantViolation, want, event.Meta().Version)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
