// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
)

// ErrNotFound is wrapped by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// InsertOutcome is the result of an idempotent insert keyed by id.
type InsertOutcome int

const (
	// Inserted means the id was new and the record was stored.
	Inserted InsertOutcome = iota
	// AlreadyExists means a record with the id was already stored; the
	// stored record was left untouched.
	AlreadyExists
)

// Deduped reports whether the insert was absorbed by an existing record.
func (o InsertOutcome) Deduped() bool { return o == AlreadyExists }

func (o InsertOutcome) String() string {
	if o == AlreadyExists {
		return "already_exists"
	}
	return "inserted"
}

// Transactor defines the secondary port for storage transactions.
type Transactor interface {
	// WithinTx runs fn in one transaction. Repository calls made with the
	// ctx passed to fn join it; a non-nil error from fn rolls them all back.
	// Nested calls join the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore defines the secondary port for the append-only event log.
type EventStore interface {
	// Append stores e if its id is new. A repeated id is reported as
	// AlreadyExists and the first write wins.
	Append(ctx context.Context, e event.Event) (InsertOutcome, error)

	// ListByAggregate returns the events of one aggregate, oldest first.
	ListByAggregate(ctx context.Context, aggregateID string) ([]event.Event, error)

	// ListByAggregateIDs returns the events of any of the given aggregates,
	// oldest first. An empty id list returns nothing without querying.
	ListByAggregateIDs(ctx context.Context, aggregateIDs []string) ([]event.Event, error)
}

// OutboxStatus is the delivery state of an outbox item.
type OutboxStatus string

// Outbox statuses. sent is terminal; failed only leaves through an explicit reset.
const (
	OutboxPending OutboxStatus = "pending"
	OutboxSending OutboxStatus = "sending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxItem is an event awaiting (or done with) delivery.
type OutboxItem struct {
	event.Event
	Status        OutboxStatus
	AttemptCount  int
	LastAttemptAt *time.Time
	SentAt        *time.Time
	ErrorMessage  string
}

// OutboxRepository defines the secondary port for the delivery outbox.
type OutboxRepository interface {
	// Enqueue stores a pending item if its id is new (same contract as EventStore.Append).
	Enqueue(ctx context.Context, item OutboxItem) (InsertOutcome, error)

	// GetByID retrieves an item. Missing ids wrap ErrNotFound.
	GetByID(ctx context.Context, id string) (*OutboxItem, error)

	// ListPending returns up to limit pending items, oldest first.
	ListPending(ctx context.Context, limit int) ([]*OutboxItem, error)

	// ListFailed returns all failed items, oldest last attempt first.
	ListFailed(ctx context.Context) ([]*OutboxItem, error)

	// CountByStatus counts items in a status.
	CountByStatus(ctx context.Context, status OutboxStatus) (int, error)

	// IncrementAttempt marks the item sending and records the attempt.
	IncrementAttempt(ctx context.Context, id string, attemptedAt time.Time) error

	// MarkSent moves every listed id to sent in one atomic update.
	// Ids already sent keep their original sent time.
	MarkSent(ctx context.Context, ids []string, sentAt time.Time) error

	// MarkFailed moves one item to failed with its error message.
	MarkFailed(ctx context.Context, id, errorMessage string, attemptedAt time.Time) error

	// ResetFailedToPending moves the listed ids that are currently failed
	// back to pending, optionally clearing their error. Other ids are
	// ignored. Returns how many items were reset.
	ResetFailedToPending(ctx context.Context, ids []string, resetError bool) (int, error)
}

// SendResult is the outcome of delivering one item.
type SendResult struct {
	OK      bool
	Deduped bool
	Error   string
}

// Transport defines the secondary port for delivery to the remote system.
type Transport interface {
	// Send delivers item, idempotently by id. failureRate in [0,1] injects
	// simulated failures. A returned error is a transport fault; callers
	// treat it like a failed result.
	Send(ctx context.Context, item *OutboxItem, failureRate float64) (SendResult, error)

	// CountReceived returns how many distinct events the remote side holds.
	CountReceived(ctx context.Context) (int, error)

	// Clear forgets everything the remote side received.
	Clear(ctx context.Context) error
}

// RemoteInbox defines the secondary port for the remote side's received-set.
type RemoteInbox interface {
	// Record stores a received event id if new.
	Record(ctx context.Context, id string, payload []byte, receivedAt time.Time) (InsertOutcome, error)

	// Exists reports whether id was received.
	Exists(ctx context.Context, id string) (bool, error)

	// Count returns the number of received ids.
	Count(ctx context.Context) (int, error)

	// Clear removes every received id.
	Clear(ctx context.Context) error
}

// OrderRecord represents a production order as stored in persistence.
type OrderRecord struct {
	ID                string
	ProductID         string
	WorkshopID        string
	QuantityRequested int
	TrackingMode      string // piece, lot, hybrid
	LotSize           int    // 0 for piece tracking
	Notes             string
	RoutingSnapshot   routing.Snapshot
	CreatedAt         time.Time
}

// OrderFilters contains filter options for querying orders.
type OrderFilters struct {
	WorkshopID string
	Limit      int
}

// LotRecord represents a lot as stored in persistence.
type LotRecord struct {
	ID            string
	OrderID       string
	LotNumber     int
	PlannedPieces int
	CreatedAt     time.Time
}

// OrderRepository defines the secondary port for production order persistence.
type OrderRepository interface {
	// Create persists an order together with its lots, atomically.
	Create(ctx context.Context, order *OrderRecord, lots []*LotRecord) error

	// GetByID retrieves an order. Missing ids wrap ErrNotFound.
	GetByID(ctx context.Context, id string) (*OrderRecord, error)

	// List retrieves orders matching the given filters, newest first.
	List(ctx context.Context, filters OrderFilters) ([]*OrderRecord, error)
}

// LotRepository defines the secondary port for lot persistence.
type LotRepository interface {
	// GetByID retrieves a lot. Missing ids wrap ErrNotFound.
	GetByID(ctx context.Context, id string) (*LotRecord, error)

	// ListByOrder returns an order's lots by lot number.
	ListByOrder(ctx context.Context, orderID string) ([]*LotRecord, error)
}
