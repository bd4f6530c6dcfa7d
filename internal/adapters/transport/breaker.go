package transport

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/mes/internal/ports/secondary"
)

// ErrMsgBreakerOpen is reported for items skipped while the breaker is open.
const ErrMsgBreakerOpen = "circuit breaker is open"

// BreakerSettings configures BreakerTransport.
type BreakerSettings struct {
	MaxFailures uint32        // consecutive failures before opening
	Cooldown    time.Duration // time spent open before probing again
}

// BreakerTransport wraps a Transport with a circuit breaker so a flush
// against an unreachable remote fails fast instead of trying every item.
type BreakerTransport struct {
	next secondary.Transport
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerTransport wraps next.
func NewBreakerTransport(next secondary.Transport, settings BreakerSettings, logger *zap.Logger) *BreakerTransport {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-transport",
		MaxRequests: 1,
		Timeout:     settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerTransport{next: next, cb: cb}
}

// Send forwards to the wrapped transport unless the breaker is open.
// Only transport errors count as breaker failures. A refused item is the
// remote answering, so it is returned as is and leaves the breaker closed.
func (t *BreakerTransport) Send(ctx context.Context, item *secondary.OutboxItem, failureRate float64) (secondary.SendResult, error) {
	var result secondary.SendResult

	_, err := t.cb.Execute(func() (interface{}, error) {
		res, err := t.next.Send(ctx, item, failureRate)
		if err != nil {
			return nil, err
		}
		result = res
		return nil, nil
	})

	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return secondary.SendResult{OK: false, Error: ErrMsgBreakerOpen}, nil
	default:
		return secondary.SendResult{}, err
	}
}

// State reports the breaker state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.cb.State()
}

// CountReceived delegates to the wrapped transport.
func (t *BreakerTransport) CountReceived(ctx context.Context) (int, error) {
	return t.next.CountReceived(ctx)
}

// Clear delegates to the wrapped transport.
func (t *BreakerTransport) Clear(ctx context.Context) error {
	return t.next.Clear(ctx)
}

// Ensure BreakerTransport implements the interface
var _ secondary.Transport = (*BreakerTransport)(nil)
