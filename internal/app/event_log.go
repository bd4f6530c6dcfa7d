package app

import (
	"context"
	"fmt"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/ports/secondary"
)

// eventLog appends events to the local store and queues them for delivery.
type eventLog struct {
	tx     secondary.Transactor
	store  secondary.EventStore
	outbox secondary.OutboxRepository
}

// publish appends e and enqueues it in one transaction, so the event is
// either both stored and queued or neither.
func (l eventLog) publish(ctx context.Context, e event.Event) (secondary.InsertOutcome, error) {
	var outcome secondary.InsertOutcome
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = l.store.Append(ctx, e)
		if err != nil {
			return fmt.Errorf("failed to append %s: %w", e, err)
		}
		if _, err := l.outbox.Enqueue(ctx, secondary.OutboxItem{Event: e}); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", e, err)
		}
		return nil
	})
	return outcome, err
}
