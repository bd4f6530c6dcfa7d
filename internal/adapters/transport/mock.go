// Package transport contains delivery adapters for outbox items.
package transport

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/ports/secondary"
)

// Error messages reported by MockTransport.
const (
	ErrMsgSimulated     = "Simulated transport failure"
	ErrMsgForcedFailure = "Simulated failure for test event"
	forcedFailureMarker = "Fail"
)

// MockTransport delivers into a RemoteInbox standing in for the remote
// system. Delivery is idempotent by event id.
type MockTransport struct {
	inbox secondary.RemoteInbox
	rand  func() float64
	now   func() time.Time
}

// Option configures a MockTransport.
type Option func(*MockTransport)

// WithRand replaces the random source used for simulated failures.
func WithRand(fn func() float64) Option {
	return func(t *MockTransport) { t.rand = fn }
}

// WithClock replaces the clock used to stamp received events.
func WithClock(fn func() time.Time) Option {
	return func(t *MockTransport) { t.now = fn }
}

// NewMockTransport creates a transport backed by inbox.
func NewMockTransport(inbox secondary.RemoteInbox, opts ...Option) *MockTransport {
	t := &MockTransport{
		inbox: inbox,
		rand:  rand.Float64,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send delivers item. An id the remote already holds is acknowledged as a
// dedup without consulting the failure rate. Event types containing "Fail"
// are always rejected; an item without a type is judged by the "type"
// field of its payload.
func (t *MockTransport) Send(ctx context.Context, item *secondary.OutboxItem, failureRate float64) (secondary.SendResult, error) {
	exists, err := t.inbox.Exists(ctx, item.ID)
	if err != nil {
		return secondary.SendResult{}, fmt.Errorf("failed to check remote for %s: %w", item.ID, err)
	}
	if exists {
		return secondary.SendResult{OK: true, Deduped: true}, nil
	}

	if failureRate > 0 && t.rand() < failureRate {
		return secondary.SendResult{OK: false, Error: ErrMsgSimulated}, nil
	}

	if strings.Contains(eventType(item), forcedFailureMarker) {
		return secondary.SendResult{OK: false, Error: ErrMsgForcedFailure}, nil
	}

	payload, err := event.EncodePayload(item.Payload)
	if err != nil {
		return secondary.SendResult{}, err
	}

	outcome, err := t.inbox.Record(ctx, item.ID, payload, t.now().UTC())
	if err != nil {
		return secondary.SendResult{}, fmt.Errorf("failed to deliver %s: %w", item.ID, err)
	}

	return secondary.SendResult{OK: true, Deduped: outcome.Deduped()}, nil
}

// eventType returns the item's type, falling back to the "type" field of
// an opaque payload body.
func eventType(item *secondary.OutboxItem) string {
	if item.Type != "" {
		return item.Type
	}
	opaque, ok := item.Payload.(event.Opaque)
	if !ok {
		return ""
	}
	if opaque.Type != "" {
		return opaque.Type
	}
	var body struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(opaque.Raw, &body); err != nil {
		return ""
	}
	return body.Type
}

// CountReceived returns how many distinct events the remote holds.
func (t *MockTransport) CountReceived(ctx context.Context) (int, error) {
	return t.inbox.Count(ctx)
}

// Clear empties the remote received-set.
func (t *MockTransport) Clear(ctx context.Context) error {
	return t.inbox.Clear(ctx)
}

// Ensure MockTransport implements the interface
var _ secondary.Transport = (*MockTransport)(nil)
