package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/ports/secondary"
)

// maxIDsPerStatement keeps IN lists under SQLite's bound-parameter limit.
const maxIDsPerStatement = 500

// OutboxRepository implements secondary.OutboxRepository with SQLite.
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new SQLite outbox repository.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

const outboxColumns = `id, type, aggregate_id, workshop_id, timestamp, payload, schema_version,
	status, attempt_count, last_attempt_at, sent_at, error_message`

// Enqueue stores a pending item unless one with the same id exists.
func (r *OutboxRepository) Enqueue(ctx context.Context, item secondary.OutboxItem) (secondary.InsertOutcome, error) {
	payload, err := event.EncodePayload(item.Payload)
	if err != nil {
		return secondary.Inserted, err
	}

	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO outbox_events (id, type, aggregate_id, workshop_id, timestamp, payload, schema_version, status, attempt_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', 0)
		 ON CONFLICT(id) DO NOTHING`,
		item.ID,
		item.Type,
		item.AggregateID,
		item.WorkshopID,
		item.Timestamp.UTC(),
		string(payload),
		schemaVersionOrDefault(item.SchemaVersion),
	)
	if err != nil {
		return secondary.Inserted, fmt.Errorf("failed to enqueue outbox item: %w", err)
	}

	return outcomeFrom(res)
}

// GetByID retrieves an outbox item by its event ID.
func (r *OutboxRepository) GetByID(ctx context.Context, id string) (*secondary.OutboxItem, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM outbox_events WHERE id = ?`, id)

	item, err := scanOutboxItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("outbox item %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox item: %w", err)
	}
	return item, nil
}

// ListPending returns up to limit pending items, oldest first.
func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]*secondary.OutboxItem, error) {
	if limit <= 0 {
		return []*secondary.OutboxItem{}, nil
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events WHERE status = 'pending' ORDER BY timestamp ASC, rowid ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox items: %w", err)
	}
	defer rows.Close()

	return scanOutboxItems(rows)
}

// ListFailed returns every failed item, oldest failure first.
func (r *OutboxRepository) ListFailed(ctx context.Context) ([]*secondary.OutboxItem, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events WHERE status = 'failed' ORDER BY last_attempt_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed outbox items: %w", err)
	}
	defer rows.Close()

	return scanOutboxItems(rows)
}

// CountByStatus counts items in the given status.
func (r *OutboxRepository) CountByStatus(ctx context.Context, status secondary.OutboxStatus) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM outbox_events WHERE status = ?", string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count outbox items: %w", err)
	}
	return count, nil
}

// IncrementAttempt marks an item as sending and bumps its attempt counter.
func (r *OutboxRepository) IncrementAttempt(ctx context.Context, id string, attemptedAt time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events SET status = 'sending', attempt_count = attempt_count + 1, last_attempt_at = ? WHERE id = ?`,
		attemptedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record outbox attempt: %w", err)
	}
	return requireRow(res, "outbox item", id)
}

// MarkSent moves the given items to sent in a single transaction. Items
// that are already sent keep their first sent time.
func (r *OutboxRepository) MarkSent(ctx context.Context, ids []string, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	return runInTx(ctx, r.db, func(ctx context.Context, q querier) error {
		for start := 0; start < len(ids); start += maxIDsPerStatement {
			chunk := ids[start:min(start+maxIDsPerStatement, len(ids))]
			in, args := inClause(chunk)
			args = append([]any{sentAt.UTC()}, args...)

			_, err := q.ExecContext(ctx,
				`UPDATE outbox_events SET status = 'sent', sent_at = ?, error_message = NULL
				 WHERE status != 'sent' AND id IN (`+in+`)`,
				args...,
			)
			if err != nil {
				return fmt.Errorf("failed to mark outbox items sent: %w", err)
			}
		}
		return nil
	})
}

// MarkFailed moves one item to failed and records why.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id, errorMessage string, attemptedAt time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_events SET status = 'failed', error_message = ?, last_attempt_at = ? WHERE id = ? AND status != 'sent'`,
		errorMessage, attemptedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox item failed: %w", err)
	}
	return requireRow(res, "outbox item", id)
}

// ResetFailedToPending puts failed items back in the queue. Listed ids
// that are not failed are left alone.
func (r *OutboxRepository) ResetFailedToPending(ctx context.Context, ids []string, resetError bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	total := 0
	err := runInTx(ctx, r.db, func(ctx context.Context, q querier) error {
		for start := 0; start < len(ids); start += maxIDsPerStatement {
			chunk := ids[start:min(start+maxIDsPerStatement, len(ids))]
			in, args := inClause(chunk)

			set := `status = 'pending'`
			if resetError {
				set += `, error_message = NULL`
			}

			res, err := q.ExecContext(ctx,
				`UPDATE outbox_events SET `+set+` WHERE status = 'failed' AND id IN (`+in+`)`,
				args...,
			)
			if err != nil {
				return fmt.Errorf("failed to reset failed outbox items: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			total += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutboxItem(row rowScanner) (*secondary.OutboxItem, error) {
	var (
		item          secondary.OutboxItem
		timestamp     time.Time
		payload       string
		status        string
		lastAttemptAt sql.NullTime
		sentAt        sql.NullTime
		errorMessage  sql.NullString
	)

	err := row.Scan(
		&item.ID,
		&item.Type,
		&item.AggregateID,
		&item.WorkshopID,
		&timestamp,
		&payload,
		&item.SchemaVersion,
		&status,
		&item.AttemptCount,
		&lastAttemptAt,
		&sentAt,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	item.Timestamp = timestamp.UTC()
	item.Payload = event.DecodePayload(item.Type, []byte(payload))
	item.Status = secondary.OutboxStatus(status)
	if lastAttemptAt.Valid {
		t := lastAttemptAt.Time.UTC()
		item.LastAttemptAt = &t
	}
	if sentAt.Valid {
		t := sentAt.Time.UTC()
		item.SentAt = &t
	}
	item.ErrorMessage = errorMessage.String

	return &item, nil
}

func scanOutboxItems(rows *sql.Rows) ([]*secondary.OutboxItem, error) {
	items := []*secondary.OutboxItem{}
	for rows.Next() {
		item, err := scanOutboxItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox items: %w", err)
	}
	return items, nil
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, secondary.ErrNotFound)
	}
	return nil
}

// Ensure OutboxRepository implements the interface
var _ secondary.OutboxRepository = (*OutboxRepository)(nil)
