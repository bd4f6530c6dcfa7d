// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/ports/secondary"
)

// EventRepository implements secondary.EventStore with SQLite.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new SQLite event store.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, type, aggregate_id, workshop_id, timestamp, payload, schema_version`

// Append stores e unless an event with the same id already exists.
func (r *EventRepository) Append(ctx context.Context, e event.Event) (secondary.InsertOutcome, error) {
	payload, err := event.EncodePayload(e.Payload)
	if err != nil {
		return secondary.Inserted, err
	}

	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO work_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID,
		e.Type,
		e.AggregateID,
		e.WorkshopID,
		e.Timestamp.UTC(),
		string(payload),
		schemaVersionOrDefault(e.SchemaVersion),
	)
	if err != nil {
		return secondary.Inserted, fmt.Errorf("failed to append event: %w", err)
	}

	return outcomeFrom(res)
}

// ListByAggregate returns one aggregate's events in timestamp order.
func (r *EventRepository) ListByAggregate(ctx context.Context, aggregateID string) ([]event.Event, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+eventColumns+` FROM work_events WHERE aggregate_id = ? ORDER BY timestamp ASC, rowid ASC`,
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByAggregateIDs returns the events of several aggregates in timestamp order.
func (r *EventRepository) ListByAggregateIDs(ctx context.Context, aggregateIDs []string) ([]event.Event, error) {
	if len(aggregateIDs) == 0 {
		return []event.Event{}, nil
	}

	in, args := inClause(aggregateIDs)
	query := `SELECT ` + eventColumns + ` FROM work_events WHERE aggregate_id IN (` + in + `) ORDER BY timestamp ASC, rowid ASC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	events := []event.Event{}
	for rows.Next() {
		var (
			e         event.Event
			timestamp time.Time
			payload   string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.AggregateID, &e.WorkshopID, &timestamp, &payload, &e.SchemaVersion); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Timestamp = timestamp.UTC()
		e.Payload = event.DecodePayload(e.Type, []byte(payload))
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func schemaVersionOrDefault(v int) int {
	if v <= 0 {
		return event.SchemaVersion
	}
	return v
}

// outcomeFrom maps an ON CONFLICT DO NOTHING insert to its outcome.
func outcomeFrom(res sql.Result) (secondary.InsertOutcome, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return secondary.Inserted, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return secondary.AlreadyExists, nil
	}
	return secondary.Inserted, nil
}

// Ensure EventRepository implements the interface
var _ secondary.EventStore = (*EventRepository)(nil)
