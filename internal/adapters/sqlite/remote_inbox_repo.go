package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/mes/internal/ports/secondary"
)

// RemoteInboxRepository implements secondary.RemoteInbox with SQLite. It
// stands in for the remote system's received-set so delivery can be
// exercised without a network.
type RemoteInboxRepository struct {
	db *sql.DB
}

// NewRemoteInboxRepository creates a new SQLite remote inbox.
func NewRemoteInboxRepository(db *sql.DB) *RemoteInboxRepository {
	return &RemoteInboxRepository{db: db}
}

// Record stores a received id unless it was already received.
func (r *RemoteInboxRepository) Record(ctx context.Context, id string, payload []byte, receivedAt time.Time) (secondary.InsertOutcome, error) {
	var body sql.NullString
	if len(payload) > 0 {
		body = sql.NullString{String: string(payload), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO remote_events (id, received_at, payload) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		id, receivedAt.UTC(), body,
	)
	if err != nil {
		return secondary.Inserted, fmt.Errorf("failed to record remote event: %w", err)
	}
	return outcomeFrom(res)
}

// Exists reports whether id was received.
func (r *RemoteInboxRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM remote_events WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check remote event: %w", err)
	}
	return count > 0, nil
}

// Count returns how many events were received.
func (r *RemoteInboxRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM remote_events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count remote events: %w", err)
	}
	return count, nil
}

// Clear removes every received event.
func (r *RemoteInboxRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM remote_events"); err != nil {
		return fmt.Errorf("failed to clear remote events: %w", err)
	}
	return nil
}

// Ensure RemoteInboxRepository implements the interface
var _ secondary.RemoteInbox = (*RemoteInboxRepository)(nil)
