package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/mes/internal/ports/primary"
)

// SyncAdapter translates CLI operations to SyncService calls.
type SyncAdapter struct {
	service primary.SyncService
	out     io.Writer
}

// NewSyncAdapter creates a new SyncAdapter with the given service.
func NewSyncAdapter(service primary.SyncService, out io.Writer) *SyncAdapter {
	return &SyncAdapter{
		service: service,
		out:     out,
	}
}

// Flush drains one batch of the outbox. A nil failureRate uses the configured rate.
func (a *SyncAdapter) Flush(ctx context.Context, limit int, failureRate *float64, verbose bool) (*primary.FlushResult, error) {
	result, err := a.service.FlushOutboxOnce(ctx, primary.FlushOptions{
		Limit:       limit,
		FailureRate: failureRate,
	})
	if result == nil {
		return nil, err
	}

	if result.Processed == 0 {
		fmt.Fprintln(a.out, "Nothing to sync")
		return result, err
	}

	fmt.Fprintf(a.out, "Processed %d: %s sent, %s deduped, %s failed\n",
		result.Processed,
		color.New(color.FgGreen).Sprint(result.Sent),
		color.New(color.FgBlue).Sprint(result.Deduped),
		failedCount(result.Failed))

	if verbose {
		for _, item := range result.Items {
			switch {
			case item.Status == primary.FlushItemFailed:
				fmt.Fprintf(a.out, "  %s %s: %s\n", color.New(color.FgRed).Sprint("✗"), item.ID, item.Error)
			case item.Deduped:
				fmt.Fprintf(a.out, "  %s %s (already received)\n", color.New(color.FgBlue).Sprint("="), item.ID)
			default:
				fmt.Fprintf(a.out, "  %s %s\n", color.New(color.FgGreen).Sprint("✓"), item.ID)
			}
		}
	}

	return result, err
}

// Reset moves failed items back to pending. No ids means every failed item.
func (a *SyncAdapter) Reset(ctx context.Context, ids []string, clearError bool) error {
	n, err := a.service.ResetFailed(ctx, primary.ResetFailedRequest{IDs: ids, ClearError: clearError})
	if err != nil {
		return fmt.Errorf("failed to reset failed items: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Reset %d failed item(s) to pending\n", n)
	return nil
}

// Status prints outbox counts per status and the remote received count.
func (a *SyncAdapter) Status(ctx context.Context) error {
	status, err := a.service.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sync status: %w", err)
	}

	fmt.Fprintln(a.out, "\nOutbox:")
	fmt.Fprintf(a.out, "  pending: %d\n", status.Pending)
	fmt.Fprintf(a.out, "  sending: %d\n", status.Sending)
	fmt.Fprintf(a.out, "  sent:    %d\n", status.Sent)
	fmt.Fprintf(a.out, "  failed:  %s\n", failedCount(status.Failed))
	fmt.Fprintf(a.out, "Remote received: %d\n\n", status.RemoteReceived)
	return nil
}

// Failed lists the failed items.
func (a *SyncAdapter) Failed(ctx context.Context) error {
	items, err := a.service.ListFailed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list failed items: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No failed items")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-22s %8s %s\n", "ID", "TYPE", "ATTEMPTS", "ERROR")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────────────────")
	for _, item := range items {
		fmt.Fprintf(a.out, "%-36s %-22s %8d %s\n", item.ID, item.Type, item.AttemptCount, item.ErrorMessage)
	}
	fmt.Fprintln(a.out)
	return nil
}

// ClearRemote forgets everything the remote side received.
func (a *SyncAdapter) ClearRemote(ctx context.Context) error {
	if err := a.service.ClearRemote(ctx); err != nil {
		return fmt.Errorf("failed to clear remote: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Remote inbox cleared")
	return nil
}

func failedCount(n int) string {
	if n == 0 {
		return "0"
	}
	return color.New(color.FgRed).Sprint(n)
}
