package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/mes/internal/core/aggregation"
	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// ProgressServiceImpl implements the ProgressService interface.
type ProgressServiceImpl struct {
	orders secondary.OrderRepository
	lots   secondary.LotRepository
	events secondary.EventStore
}

// NewProgressService creates a new ProgressService with injected dependencies.
func NewProgressService(orders secondary.OrderRepository, lots secondary.LotRepository, events secondary.EventStore) *ProgressServiceImpl {
	return &ProgressServiceImpl{
		orders: orders,
		lots:   lots,
		events: events,
	}
}

// GetOrderProgress computes the order, stage and lot views of one order.
func (s *ProgressServiceImpl) GetOrderProgress(ctx context.Context, orderID string) (*primary.OrderProgressView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByAggregate(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	progress, err := computeProgress(order, events)
	if err != nil {
		return nil, err
	}

	stages := aggregation.ComputeStageTotalsFromEvents(order.RoutingSnapshot, events)
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Sequence < stages[j].Sequence })

	lotRecords, err := s.lots.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	lots := []aggregation.LotProgress{}
	if len(lotRecords) > 0 {
		input := make([]aggregation.Lot, len(lotRecords))
		for i, l := range lotRecords {
			input[i] = aggregation.Lot{ID: l.ID, LotNumber: l.LotNumber, PlannedPieces: l.PlannedPieces}
		}
		byID, err := aggregation.ComputeLotProgressFromEvents(input, order.RoutingSnapshot.Operations, events)
		if err != nil {
			return nil, fmt.Errorf("failed to compute lot progress of order %s: %w", order.ID, err)
		}
		for _, l := range input {
			lots = append(lots, byID[l.ID])
		}
		sort.SliceStable(lots, func(i, j int) bool { return lots[i].LotNumber < lots[j].LotNumber })
	}

	return &primary.OrderProgressView{
		Order:    recordToOrder(order),
		Progress: progress,
		Stages:   stages,
		Lots:     lots,
	}, nil
}

// ListOrders computes a summary row per order, loading every order's
// events in one query.
func (s *ProgressServiceImpl) ListOrders(ctx context.Context, filters primary.OrderFilters) ([]*primary.OrderSummary, error) {
	orders, err := s.orders.List(ctx, secondary.OrderFilters{
		WorkshopID: filters.WorkshopID,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	events, err := s.events.ListByAggregateIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string][]event.Event, len(orders))
	for _, e := range events {
		byOrder[e.AggregateID] = append(byOrder[e.AggregateID], e)
	}

	summaries := make([]*primary.OrderSummary, len(orders))
	for i, o := range orders {
		progress, err := computeProgress(o, byOrder[o.ID])
		if err != nil {
			return nil, err
		}
		summaries[i] = &primary.OrderSummary{
			OrderID:           o.ID,
			ProductID:         o.ProductID,
			TrackingMode:      o.TrackingMode,
			TargetPieces:      progress.TargetPieces,
			CompletedPieces:   progress.CompletedPieces,
			ScrapPieces:       progress.ScrapPieces,
			CompletionPercent: progress.CompletionPercent,
		}
	}
	return summaries, nil
}

// GetEfficiency returns produced standard minutes over worked minutes.
func (s *ProgressServiceImpl) GetEfficiency(ctx context.Context, orderID string, workedMinutes *float64) (*float64, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByAggregate(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	progress, err := computeProgress(order, events)
	if err != nil {
		return nil, err
	}

	return aggregation.ComputeEfficiencyPercent(progress.StandardMinutesProducedTotal, workedMinutes), nil
}

func computeProgress(order *secondary.OrderRecord, events []event.Event) (aggregation.OrderProgress, error) {
	progress, err := aggregation.ComputeOrderProgressFromEvents(
		aggregation.Order{ID: order.ID, QuantityRequested: order.QuantityRequested},
		order.RoutingSnapshot,
		events,
	)
	if err != nil {
		return aggregation.OrderProgress{}, fmt.Errorf("failed to compute progress of order %s: %w", order.ID, err)
	}
	return progress, nil
}

// Ensure ProgressServiceImpl implements the interface
var _ primary.ProgressService = (*ProgressServiceImpl)(nil)
