// Package policy contains the pure admission rules applied on the
// recording path before an event is persisted.
// Guards are pure functions that evaluate preconditions without side effects.
package policy

import (
	"fmt"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
)

// Tracking modes of a production order.
const (
	TrackingPiece  = "piece"
	TrackingLot    = "lot"
	TrackingHybrid = "hybrid"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ValidateEventAgainstOrder rejects no-op records (nothing done, nothing
// scrapped) and records that scrap more than they produce.
func ValidateEventAgainstOrder(e event.Event) bool {
	rec, ok := e.Recorded()
	if !ok {
		return false
	}
	if rec.QtyDone <= 0 && rec.QtyScrap <= 0 {
		return false
	}
	return rec.QtyScrap <= rec.QtyDone
}

// ValidateEventAgainstRouting rejects events whose operation is missing or
// not part of the order's routing snapshot.
func ValidateEventAgainstRouting(e event.Event, snapshot routing.Snapshot) bool {
	rec, ok := e.Recorded()
	if !ok || rec.OperationID == "" {
		return false
	}
	return snapshot.Has(rec.OperationID)
}

// RecordProductionContext provides context for the recording guard.
type RecordProductionContext struct {
	OrderID      string
	TrackingMode string
	Snapshot     routing.Snapshot
	Event        event.Event
	LotID        string
	LotOrderID   string // order the referenced lot belongs to, empty if no lot
}

// CanRecordProduction evaluates whether an OperationRecorded event may be admitted.
// Rules:
// - Lot-tracked orders require a lot
// - A referenced lot must belong to the order
// - The operation must be in the routing snapshot
// - Quantities must describe real work and scrap may not exceed done
func CanRecordProduction(ctx RecordProductionContext) GuardResult {
	if ctx.TrackingMode == TrackingLot && ctx.LotID == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("order %s is lot-tracked: a lot is required", ctx.OrderID),
		}
	}
	if ctx.LotID != "" && ctx.LotOrderID != ctx.OrderID {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("lot %s does not belong to order %s", ctx.LotID, ctx.OrderID),
		}
	}
	if !ValidateEventAgainstRouting(ctx.Event, ctx.Snapshot) {
		opID := ""
		if rec, ok := ctx.Event.Recorded(); ok {
			opID = rec.OperationID
		}
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("operation %q is not in the routing of order %s", opID, ctx.OrderID),
		}
	}
	if !ValidateEventAgainstOrder(ctx.Event) {
		return GuardResult{
			Allowed: false,
			Reason:  "invalid quantities: record must produce or scrap pieces, and scrap cannot exceed done",
		}
	}

	return GuardResult{Allowed: true}
}

// CreateOrderContext provides context for order creation guards.
type CreateOrderContext struct {
	QuantityRequested int
	TrackingMode      string
	LotSize           int
	Snapshot          routing.Snapshot
}

// CanCreateOrder evaluates whether an order can be created.
// Rules:
// - Quantity must be positive
// - Tracking mode must be known; non-piece modes need 0 < lotSize <= quantity
// - The routing snapshot must be valid (unique sequences)
func CanCreateOrder(ctx CreateOrderContext) GuardResult {
	if ctx.QuantityRequested <= 0 {
		return GuardResult{Allowed: false, Reason: "quantity requested must be greater than 0"}
	}

	switch ctx.TrackingMode {
	case TrackingPiece:
	case TrackingLot, TrackingHybrid:
		if ctx.LotSize <= 0 || ctx.LotSize > ctx.QuantityRequested {
			return GuardResult{
				Allowed: false,
				Reason:  "lot size is required and must be greater than 0 and less than or equal to target pieces",
			}
		}
	default:
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown tracking mode %q", ctx.TrackingMode)}
	}

	if err := routing.ValidateSnapshot(ctx.Snapshot); err != nil {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("invalid routing snapshot: %v", err)}
	}

	return GuardResult{Allowed: true}
}
