// Package lot plans how an order's target quantity is split into lots.
package lot

import "fmt"

// Plan is one planned lot before ids are assigned.
type Plan struct {
	LotNumber     int // 1-based
	PlannedPieces int
}

// PlanLots partitions quantity into ceil(quantity/lotSize) lots numbered
// from 1. Every lot holds lotSize pieces except the last, which takes
// whatever remains.
func PlanLots(quantity, lotSize int) ([]Plan, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be greater than 0, got %d", quantity)
	}
	if lotSize <= 0 || lotSize > quantity {
		return nil, fmt.Errorf("lot size must be between 1 and %d, got %d", quantity, lotSize)
	}

	count := (quantity + lotSize - 1) / lotSize
	plans := make([]Plan, count)
	for i := range plans {
		plans[i] = Plan{LotNumber: i + 1, PlannedPieces: lotSize}
	}
	plans[count-1].PlannedPieces = quantity - lotSize*(count-1)
	return plans, nil
}
