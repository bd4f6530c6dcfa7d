package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/logging"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// DefaultFlushLimit is the batch size used when neither the caller nor the
// configuration sets one.
const DefaultFlushLimit = 20

// ErrMsgUnknown is recorded when a transport refuses an item without saying why.
const ErrMsgUnknown = "Unknown error"

// SyncDefaults holds the configured flush parameters.
type SyncDefaults struct {
	Limit       int
	FailureRate float64
}

// SyncServiceImpl implements the SyncService interface.
type SyncServiceImpl struct {
	outbox    secondary.OutboxRepository
	transport secondary.Transport
	defaults  SyncDefaults
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncService creates a new SyncService with injected dependencies.
func NewSyncService(outbox secondary.OutboxRepository, transport secondary.Transport, defaults SyncDefaults, logger *zap.Logger) *SyncServiceImpl {
	if defaults.Limit <= 0 {
		defaults.Limit = DefaultFlushLimit
	}
	return &SyncServiceImpl{
		outbox:    outbox,
		transport: transport,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
}

type failedDelivery struct {
	id  string
	msg string
}

// FlushOutboxOnce attempts one bounded batch of pending items, oldest
// first. Each item is handled on its own: a refusal or error for one item
// is recorded against that item and the loop moves on. Successful ids are
// marked sent in one call after the loop; failures are marked one by one
// with their own message.
//
// An error is returned only when the batch cannot be read or its outcome
// cannot be written back; in the latter case the result is returned too.
func (s *SyncServiceImpl) FlushOutboxOnce(ctx context.Context, opts primary.FlushOptions) (*primary.FlushResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaults.Limit
	}
	failureRate := s.defaults.FailureRate
	if opts.FailureRate != nil {
		failureRate = *opts.FailureRate
	}
	if failureRate < 0 || failureRate > 1 {
		return nil, fmt.Errorf("failure rate must be between 0 and 1, got %g", failureRate)
	}

	pending, err := s.outbox.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox items: %w", err)
	}

	result := &primary.FlushResult{
		Processed: len(pending),
		Items:     make([]primary.FlushItem, 0, len(pending)),
	}

	now := s.now().UTC()
	sentIDs := make([]string, 0, len(pending))
	var failures []failedDelivery

	for _, item := range pending {
		res := s.deliver(ctx, item, failureRate, now)

		if res.OK {
			if res.Deduped {
				result.Deduped++
			} else {
				result.Sent++
			}
			result.Items = append(result.Items, primary.FlushItem{
				ID:      item.ID,
				Status:  primary.FlushItemSent,
				Deduped: res.Deduped,
			})
			sentIDs = append(sentIDs, item.ID)
			logging.Debug(ctx, s.logger, "outbox item delivered",
				zap.String("event_id", item.ID),
				zap.Bool("deduped", res.Deduped),
			)
			continue
		}

		msg := res.Error
		if msg == "" {
			msg = ErrMsgUnknown
		}
		result.Failed++
		result.Items = append(result.Items, primary.FlushItem{
			ID:     item.ID,
			Status: primary.FlushItemFailed,
			Error:  msg,
		})
		failures = append(failures, failedDelivery{id: item.ID, msg: msg})
		logging.Warn(ctx, s.logger, "outbox delivery failed",
			zap.String("event_id", item.ID),
			zap.String("event_type", item.Type),
			zap.Int("attempt", item.AttemptCount+1),
			zap.String("error", msg),
		)
	}

	var writeErr error
	if len(sentIDs) > 0 {
		if err := s.outbox.MarkSent(ctx, sentIDs, now); err != nil {
			writeErr = fmt.Errorf("failed to mark %d items sent: %w", len(sentIDs), err)
		}
	}
	for _, f := range failures {
		if err := s.outbox.MarkFailed(ctx, f.id, f.msg, now); err != nil {
			writeErr = errors.Join(writeErr, fmt.Errorf("failed to mark %s failed: %w", f.id, err))
		}
	}

	logging.Info(ctx, s.logger, "outbox flushed",
		zap.Int("processed", result.Processed),
		zap.Int("sent", result.Sent),
		zap.Int("deduped", result.Deduped),
		zap.Int("failed", result.Failed),
	)

	if writeErr != nil {
		logging.Error(ctx, s.logger, "failed to record flush outcome", zap.Error(writeErr))
		return result, writeErr
	}
	return result, nil
}

// deliver records the attempt and sends one item, folding every error into
// a failed SendResult.
func (s *SyncServiceImpl) deliver(ctx context.Context, item *secondary.OutboxItem, failureRate float64, at time.Time) secondary.SendResult {
	if err := s.outbox.IncrementAttempt(ctx, item.ID, at); err != nil {
		return secondary.SendResult{OK: false, Error: err.Error()}
	}

	res, err := s.transport.Send(ctx, item, failureRate)
	if err != nil {
		return secondary.SendResult{OK: false, Error: err.Error()}
	}
	return res
}

// ResetFailed moves failed items back to pending. With no ids, every
// failed item is reset.
func (s *SyncServiceImpl) ResetFailed(ctx context.Context, req primary.ResetFailedRequest) (int, error) {
	ids := req.IDs
	if len(ids) == 0 {
		failed, err := s.outbox.ListFailed(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list failed outbox items: %w", err)
		}
		ids = make([]string, len(failed))
		for i, item := range failed {
			ids[i] = item.ID
		}
	}

	n, err := s.outbox.ResetFailedToPending(ctx, ids, req.ClearError)
	if err != nil {
		return 0, err
	}

	logging.Info(ctx, s.logger, "failed outbox items reset",
		zap.Int("requested", len(ids)),
		zap.Int("reset", n),
		zap.Bool("clear_error", req.ClearError),
	)
	return n, nil
}

// GetStatus returns outbox counts and the remote received count.
func (s *SyncServiceImpl) GetStatus(ctx context.Context) (*primary.SyncStatus, error) {
	status := &primary.SyncStatus{}

	counts := []struct {
		status secondary.OutboxStatus
		dst    *int
	}{
		{secondary.OutboxPending, &status.Pending},
		{secondary.OutboxSending, &status.Sending},
		{secondary.OutboxSent, &status.Sent},
		{secondary.OutboxFailed, &status.Failed},
	}
	for _, c := range counts {
		n, err := s.outbox.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	received, err := s.transport.CountReceived(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count remote events: %w", err)
	}
	status.RemoteReceived = received

	return status, nil
}

// ListFailed returns the failed items, oldest failure first.
func (s *SyncServiceImpl) ListFailed(ctx context.Context) ([]*primary.OutboxEntry, error) {
	items, err := s.outbox.ListFailed(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*primary.OutboxEntry, len(items))
	for i, item := range items {
		entries[i] = itemToEntry(item)
	}
	return entries, nil
}

// ClearRemote empties the remote received-set.
func (s *SyncServiceImpl) ClearRemote(ctx context.Context) error {
	if err := s.transport.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear remote: %w", err)
	}
	logging.Info(ctx, s.logger, "remote received-set cleared")
	return nil
}

func itemToEntry(item *secondary.OutboxItem) *primary.OutboxEntry {
	return &primary.OutboxEntry{
		ID:            item.ID,
		Type:          item.Type,
		AggregateID:   item.AggregateID,
		Timestamp:     item.Timestamp,
		Status:        string(item.Status),
		AttemptCount:  item.AttemptCount,
		LastAttemptAt: item.LastAttemptAt,
		SentAt:        item.SentAt,
		ErrorMessage:  item.ErrorMessage,
	}
}

// Ensure SyncServiceImpl implements the interface
var _ primary.SyncService = (*SyncServiceImpl)(nil)
