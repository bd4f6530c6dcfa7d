// Package aggregation folds recorded events into order, stage and lot
// progress views. Every function here is a pure projection: it reads the
// events and reference data it is given and writes nothing.
//
// Events whose payload is not an OperationRecorded (including payloads that
// failed to decode) are skipped silently.
package aggregation

import (
	"math"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
)

// Order is the slice of a production order the projections need.
type Order struct {
	ID                string
	QuantityRequested int
}

// StageProgress is one operation's totals within an order.
type StageProgress struct {
	OperationID             string
	Sequence                int
	DonePieces              int
	ScrapPieces             int
	StandardMinutesProduced float64
}

// OrderProgress is the order-level view.
type OrderProgress struct {
	OrderID                      string
	TargetPieces                 int
	ProcessedPieces              int
	CompletedPieces              int
	WIPPieces                    int
	ScrapPieces                  int
	CompletionPercent            float64
	AvgStageProgress             *float64 // nil when there are no stages
	StandardMinutesProducedTotal float64
}

// ComputeStageTotalsFromEvents returns per-operation totals in the order the
// snapshot lists its operations (not necessarily sequence order).
func ComputeStageTotalsFromEvents(snapshot routing.Snapshot, events []event.Event) []StageProgress {
	done := make(map[string]int, len(snapshot.Operations))
	scrap := make(map[string]int, len(snapshot.Operations))
	for _, e := range events {
		rec, ok := e.Recorded()
		if !ok {
			continue
		}
		done[rec.OperationID] += rec.QtyDone
		scrap[rec.OperationID] += rec.QtyScrap
	}

	stages := make([]StageProgress, 0, len(snapshot.Operations))
	for _, op := range snapshot.Operations {
		d, s := done[op.OperationID], scrap[op.OperationID]
		good := max(0, d-s)
		stages = append(stages, StageProgress{
			OperationID:             op.OperationID,
			Sequence:                op.Sequence,
			DonePieces:              d,
			ScrapPieces:             s,
			StandardMinutesProduced: op.StandardMinutes * float64(good),
		})
	}
	return stages
}

// ComputeScrapTotal sums qtyScrap over every recorded event, whatever the operation.
func ComputeScrapTotal(events []event.Event) int {
	total := 0
	for _, e := range events {
		if rec, ok := e.Recorded(); ok {
			total += rec.QtyScrap
		}
	}
	return total
}

// ComputeOrderProgressFromEvents builds the order view. Completion is gated
// by the operation with the highest sequence; processedPieces deliberately
// counts a piece once per operation it was recorded at.
func ComputeOrderProgressFromEvents(order Order, snapshot routing.Snapshot, events []event.Event) (OrderProgress, error) {
	last, found, err := routing.LastOperation(snapshot.Operations)
	if err != nil {
		return OrderProgress{}, err
	}

	stages := ComputeStageTotalsFromEvents(snapshot, events)

	completed, processed, maxStageDone := 0, 0, 0
	var stdMinutes float64
	for _, st := range stages {
		if found && st.OperationID == last.OperationID {
			completed = st.DonePieces
		}
		processed += st.DonePieces
		maxStageDone = max(maxStageDone, st.DonePieces)
		stdMinutes += st.StandardMinutesProduced
	}

	target := order.QuantityRequested
	progress := OrderProgress{
		OrderID:                      order.ID,
		TargetPieces:                 target,
		ProcessedPieces:              processed,
		CompletedPieces:              completed,
		WIPPieces:                    max(0, maxStageDone-completed),
		ScrapPieces:                  ComputeScrapTotal(events),
		StandardMinutesProducedTotal: stdMinutes,
	}
	if target > 0 {
		progress.CompletionPercent = percentOf(completed, target)
		if len(stages) > 0 {
			var sum float64
			for _, st := range stages {
				sum += percentOf(st.DonePieces, target)
			}
			avg := sum / float64(len(stages))
			progress.AvgStageProgress = &avg
		}
	}
	return progress, nil
}

// ComputeEfficiencyPercent returns produced standard minutes as a percentage
// of worked minutes. Unknown or zero worked minutes yield nil.
func ComputeEfficiencyPercent(standardMinutesProduced float64, workedMinutes *float64) *float64 {
	if workedMinutes == nil || *workedMinutes == 0 {
		return nil
	}
	pct := standardMinutesProduced / *workedMinutes * 100
	return &pct
}

// percentOf returns part/whole*100 clamped to 100. whole must be positive.
func percentOf(part, whole int) float64 {
	return math.Min(100, float64(part)/float64(whole)*100)
}
