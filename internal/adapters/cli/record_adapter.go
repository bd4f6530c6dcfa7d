package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/mes/internal/ports/primary"
)

// RecordAdapter translates CLI operations to RecordingService calls.
type RecordAdapter struct {
	service primary.RecordingService
	out     io.Writer
}

// NewRecordAdapter creates a new RecordAdapter with the given service.
func NewRecordAdapter(service primary.RecordingService, out io.Writer) *RecordAdapter {
	return &RecordAdapter{
		service: service,
		out:     out,
	}
}

// Record records production at one operation of an order.
func (a *RecordAdapter) Record(ctx context.Context, req primary.RecordProductionRequest) error {
	resp, err := a.service.RecordProduction(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Recorded %d done", req.QtyDonePieces)
	if req.QtyScrapPieces > 0 {
		fmt.Fprintf(a.out, " (%d scrap)", req.QtyScrapPieces)
	}
	fmt.Fprintf(a.out, " at %s on order %s\n", req.OperationID, resp.OrderID)
	fmt.Fprintf(a.out, "  event %s queued for sync\n", resp.EventID)
	return nil
}
