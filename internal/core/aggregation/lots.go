package aggregation

import (
	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
)

// LotStatus is the derived state of a lot.
type LotStatus string

// Lot statuses.
const (
	LotNotStarted LotStatus = "not_started"
	LotInProgress LotStatus = "in_progress"
	LotDone       LotStatus = "done"
)

// Lot is the slice of a lot the projection needs.
type Lot struct {
	ID            string
	LotNumber     int
	PlannedPieces int
}

// LotProgress is the lot-level view.
type LotProgress struct {
	LotID           string
	LotNumber       int
	PlannedPieces   int
	DonePieces      int
	ScrapPieces     int
	RemainingPieces int
	Status          LotStatus
	OverProduced    bool
	WIPPieces       int
}

func notStarted(lot Lot) LotProgress {
	return LotProgress{
		LotID:           lot.ID,
		LotNumber:       lot.LotNumber,
		PlannedPieces:   lot.PlannedPieces,
		RemainingPieces: lot.PlannedPieces,
		Status:          LotNotStarted,
	}
}

// ComputeLotProgressFromEvents returns progress keyed by lot id.
//
// Only events whose payload lotId equals the lot's id count. A lot's done
// and scrap pieces come from the final operation alone; quantities recorded
// at earlier operations show up as WIP.
func ComputeLotProgressFromEvents(lots []Lot, ops []routing.Operation, events []event.Event) (map[string]LotProgress, error) {
	result := make(map[string]LotProgress, len(lots))

	last, found, err := routing.LastOperation(ops)
	if err != nil {
		return nil, err
	}
	if !found {
		for _, lot := range lots {
			result[lot.ID] = notStarted(lot)
		}
		return result, nil
	}

	byLot := make(map[string][]event.OperationRecorded, len(lots))
	for _, e := range events {
		rec, ok := e.Recorded()
		if !ok || rec.LotID == "" {
			continue
		}
		byLot[rec.LotID] = append(byLot[rec.LotID], rec)
	}

	for _, lot := range lots {
		recs := byLot[lot.ID]
		if len(recs) == 0 {
			result[lot.ID] = notStarted(lot)
			continue
		}

		done, scrap := 0, 0
		doneByOp := make(map[string]int)
		for _, rec := range recs {
			doneByOp[rec.OperationID] += rec.QtyDone
			if rec.OperationID == last.OperationID {
				done += rec.QtyDone
				scrap += rec.QtyScrap
			}
		}

		maxDone := 0
		intermediate := false
		for opID, qty := range doneByOp {
			maxDone = max(maxDone, qty)
			if opID != last.OperationID && qty > 0 {
				intermediate = true
			}
		}

		status := LotInProgress
		switch {
		case done == 0 && !intermediate:
			status = LotNotStarted
		case done >= lot.PlannedPieces:
			status = LotDone
		}

		result[lot.ID] = LotProgress{
			LotID:           lot.ID,
			LotNumber:       lot.LotNumber,
			PlannedPieces:   lot.PlannedPieces,
			DonePieces:      done,
			ScrapPieces:     scrap,
			RemainingPieces: max(0, lot.PlannedPieces-done),
			Status:          status,
			OverProduced:    done > lot.PlannedPieces,
			WIPPieces:       max(0, maxDone-done),
		}
	}
	return result, nil
}
