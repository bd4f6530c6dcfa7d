package policy

import (
	"testing"
	"time"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
)

func rec(opID string, done, scrap int) event.Event {
	return event.New("ORDER-1", "WS-1", event.OperationRecorded{OperationID: opID, QtyDone: done, QtyScrap: scrap}, time.Now())
}

func snapshot() routing.Snapshot {
	return routing.Snapshot{ID: "R-1", Operations: []routing.Operation{
		{OperationID: "op1", Sequence: 1},
		{OperationID: "op2", Sequence: 2},
	}}
}

func TestValidateEventAgainstOrder(t *testing.T) {
	tests := []struct {
		name  string
		event event.Event
		want  bool
	}{
		{name: "done only", event: rec("op1", 5, 0), want: true},
		{name: "done with scrap", event: rec("op1", 5, 2), want: true},
		{name: "scrap equals done", event: rec("op1", 3, 3), want: true},
		{name: "nothing recorded", event: rec("op1", 0, 0), want: false},
		{name: "negative quantities", event: rec("op1", -1, 0), want: false},
		{name: "scrap exceeds done", event: rec("op1", 2, 3), want: false},
		{name: "not a recording", event: event.New("O", "W", event.ProductionOrderCreated{Quantity: 3}, time.Now()), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEventAgainstOrder(tt.event); got != tt.want {
				t.Errorf("ValidateEventAgainstOrder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateEventAgainstRouting(t *testing.T) {
	missingOp := rec("", 1, 0)

	tests := []struct {
		name  string
		event event.Event
		want  bool
	}{
		{name: "operation in routing", event: rec("op2", 1, 0), want: true},
		{name: "operation not in routing", event: rec("op9", 1, 0), want: false},
		{name: "missing operation", event: missingOp, want: false},
		{name: "opaque payload", event: event.New("O", "W", event.Opaque{Type: "X"}, time.Now()), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEventAgainstRouting(tt.event, snapshot()); got != tt.want {
				t.Errorf("ValidateEventAgainstRouting = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanRecordProduction(t *testing.T) {
	tests := []struct {
		name        string
		ctx         RecordProductionContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "piece order without lot",
			ctx: RecordProductionContext{
				OrderID: "ORDER-1", TrackingMode: TrackingPiece, Snapshot: snapshot(), Event: rec("op1", 4, 0),
			},
			wantAllowed: true,
		},
		{
			name: "lot order requires lot",
			ctx: RecordProductionContext{
				OrderID: "ORDER-1", TrackingMode: TrackingLot, Snapshot: snapshot(), Event: rec("op1", 4, 0),
			},
			wantReason: "order ORDER-1 is lot-tracked: a lot is required",
		},
		{
			name: "hybrid order accepts missing lot",
			ctx: RecordProductionContext{
				OrderID: "ORDER-1", TrackingMode: TrackingHybrid, Snapshot: snapshot(), Event: rec("op1", 4, 0),
			},
			wantAllowed: true,
		},
		{
			name: "lot of another order",
			ctx: RecordProductionContext{
				OrderID: "ORDER-1", TrackingMode: TrackingLot, Snapshot: snapshot(), Event: rec("op1", 4, 0),
				LotID: "LOT-1", LotOrderID: "ORDER-2",
			},
			wantReason: "lot LOT-1 does not belong to order ORDER-1",
		},
		{
			name: "operation outside routing",
			ctx: RecordProductionContext{
				OrderID: "ORDER-1", TrackingMode: TrackingPiece, Snapshot: snapshot(), Event: rec("op7", 4, 0),
			},
			wantReason: `operation "op7" is not in the routing of order ORDER-1`,
		},
		{
			name: "scrap exceeds done",
			ctx: RecordProductionContext{
				OrderID: "ORDER-1", TrackingMode: TrackingPiece, Snapshot: snapshot(), Event: rec("op1", 1, 2),
			},
			wantReason: "invalid quantities: record must produce or scrap pieces, and scrap cannot exceed done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanRecordProduction(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
			if tt.wantAllowed && result.Error() != nil {
				t.Errorf("Error() = %v, want nil", result.Error())
			}
		})
	}
}

func TestCanCreateOrder(t *testing.T) {
	dup := routing.Snapshot{Operations: []routing.Operation{
		{OperationID: "op1", Sequence: 1},
		{OperationID: "op2", Sequence: 1},
	}}

	tests := []struct {
		name        string
		ctx         CreateOrderContext
		wantAllowed bool
	}{
		{name: "piece order", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingPiece, Snapshot: snapshot()}, wantAllowed: true},
		{name: "lot order", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingLot, LotSize: 4, Snapshot: snapshot()}, wantAllowed: true},
		{name: "lot size equal to quantity", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingHybrid, LotSize: 10, Snapshot: snapshot()}, wantAllowed: true},
		{name: "zero quantity", ctx: CreateOrderContext{QuantityRequested: 0, TrackingMode: TrackingPiece, Snapshot: snapshot()}},
		{name: "missing lot size", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingLot, Snapshot: snapshot()}},
		{name: "lot size above quantity", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingLot, LotSize: 11, Snapshot: snapshot()}},
		{name: "unknown mode", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: "batch", Snapshot: snapshot()}},
		{name: "duplicate sequences", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingPiece, Snapshot: dup}},
		{name: "empty routing", ctx: CreateOrderContext{QuantityRequested: 10, TrackingMode: TrackingPiece}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanCreateOrder(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v (%s), want %v", result.Allowed, result.Reason, tt.wantAllowed)
			}
		})
	}
}
