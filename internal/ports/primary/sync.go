// Package primary defines the primary ports (driving adapters) for the application.
package primary

import (
	"context"
	"time"
)

// SyncService defines the primary port for draining the outbox to the remote system.
type SyncService interface {
	// FlushOutboxOnce attempts delivery of one bounded batch of pending
	// items. Per-item failures are reported in the result, not as errors.
	FlushOutboxOnce(ctx context.Context, opts FlushOptions) (*FlushResult, error)

	// ResetFailed moves failed items back to pending. An empty id list
	// resets every failed item.
	ResetFailed(ctx context.Context, req ResetFailedRequest) (int, error)

	// GetStatus returns outbox counts per status and the remote received count.
	GetStatus(ctx context.Context) (*SyncStatus, error)

	// ListFailed returns the failed items for inspection.
	ListFailed(ctx context.Context) ([]*OutboxEntry, error)

	// ClearRemote forgets everything the remote side received.
	ClearRemote(ctx context.Context) error
}

// FlushOptions bounds one flush. Zero values fall back to configured defaults.
type FlushOptions struct {
	Limit       int
	FailureRate *float64 // nil uses the configured rate
}

// FlushResult summarises one flush.
type FlushResult struct {
	Processed int
	Sent      int
	Failed    int
	Deduped   int
	Items     []FlushItem
}

// FlushItem is the per-item audit trail of a flush.
type FlushItem struct {
	ID      string
	Status  string // "sent" or "failed"
	Deduped bool
	Error   string
}

// ResetFailedRequest contains parameters for resetting failed items.
type ResetFailedRequest struct {
	IDs        []string
	ClearError bool
}

// SyncStatus is a snapshot of outbox and remote counters.
type SyncStatus struct {
	Pending        int
	Sending        int
	Sent           int
	Failed         int
	RemoteReceived int
}

// OutboxEntry represents an outbox item at the port boundary.
type OutboxEntry struct {
	ID            string
	Type          string
	AggregateID   string
	Timestamp     time.Time
	Status        string
	AttemptCount  int
	LastAttemptAt *time.Time
	SentAt        *time.Time
	ErrorMessage  string
}

// Flush item statuses.
const (
	FlushItemSent   = "sent"
	FlushItemFailed = "failed"
)
