package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/lot"
	"github.com/example/mes/internal/core/policy"
	"github.com/example/mes/internal/core/routing"
	"github.com/example/mes/internal/logging"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// OrderServiceImpl implements the OrderService interface.
type OrderServiceImpl struct {
	orders     secondary.OrderRepository
	lots       secondary.LotRepository
	log        eventLog
	workshopID string
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrderService creates a new OrderService with injected dependencies.
// workshopID is used for orders created without one.
func NewOrderService(
	orders secondary.OrderRepository,
	lots secondary.LotRepository,
	events secondary.EventStore,
	outbox secondary.OutboxRepository,
	tx secondary.Transactor,
	workshopID string,
	logger *zap.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		orders:     orders,
		lots:       lots,
		log:        eventLog{tx: tx, store: events, outbox: outbox},
		workshopID: workshopID,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateOrder creates an order, freezes its routing snapshot, plans its
// lots and emits ProductionOrderCreated.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req primary.CreateOrderRequest) (*primary.CreateOrderResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	snapshot := routing.Snapshot{
		ID:         req.RoutingID,
		ProductID:  req.ProductID,
		Operations: make([]routing.Operation, len(req.Operations)),
	}
	for i, op := range req.Operations {
		snapshot.Operations[i] = routing.Operation{
			OperationID:     op.OperationID,
			Sequence:        op.Sequence,
			StandardMinutes: op.StandardMinutes,
			Name:            op.Name,
		}
	}

	// Guard check
	guardCtx := policy.CreateOrderContext{
		QuantityRequested: req.QuantityRequested,
		TrackingMode:      req.TrackingMode,
		LotSize:           req.LotSize,
		Snapshot:          snapshot,
	}
	if result := policy.CanCreateOrder(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	workshopID := req.WorkshopID
	if workshopID == "" {
		workshopID = s.workshopID
	}

	now := s.now().UTC()
	record := &secondary.OrderRecord{
		ID:                uuid.NewString(),
		ProductID:         req.ProductID,
		WorkshopID:        workshopID,
		QuantityRequested: req.QuantityRequested,
		TrackingMode:      req.TrackingMode,
		Notes:             req.Notes,
		RoutingSnapshot:   snapshot,
		CreatedAt:         now,
	}

	var lotRecords []*secondary.LotRecord
	if req.TrackingMode != policy.TrackingPiece {
		record.LotSize = req.LotSize
		plans, err := lot.PlanLots(req.QuantityRequested, req.LotSize)
		if err != nil {
			return nil, err
		}
		lotRecords = make([]*secondary.LotRecord, len(plans))
		for i, p := range plans {
			lotRecords[i] = &secondary.LotRecord{
				ID:            uuid.NewString(),
				OrderID:       record.ID,
				LotNumber:     p.LotNumber,
				PlannedPieces: p.PlannedPieces,
				CreatedAt:     now,
			}
		}
	}

	created := event.New(record.ID, workshopID, event.ProductionOrderCreated{
		ProductID:    record.ProductID,
		Quantity:     record.QuantityRequested,
		TrackingMode: record.TrackingMode,
		LotCount:     len(lotRecords),
	}, now)

	// The order, its lots and its creation event commit together.
	err := s.log.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, record, lotRecords); err != nil {
			return err
		}
		_, err := s.log.publish(ctx, created)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, s.logger, "production order created",
		zap.String("order_id", record.ID),
		zap.Int("quantity", record.QuantityRequested),
		zap.String("tracking_mode", record.TrackingMode),
		zap.Int("lots", len(lotRecords)),
	)

	lots := make([]*primary.Lot, len(lotRecords))
	for i, l := range lotRecords {
		lots[i] = recordToLot(l)
	}

	return &primary.CreateOrderResponse{
		OrderID: record.ID,
		Order:   recordToOrder(record),
		Lots:    lots,
	}, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, orderID string) (*primary.Order, error) {
	record, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return recordToOrder(record), nil
}

// ListLots retrieves an order's lots.
func (s *OrderServiceImpl) ListLots(ctx context.Context, orderID string) ([]*primary.Lot, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	records, err := s.lots.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lots := make([]*primary.Lot, len(records))
	for i, r := range records {
		lots[i] = recordToLot(r)
	}
	return lots, nil
}

func recordToOrder(r *secondary.OrderRecord) *primary.Order {
	ops := make([]primary.RoutingOperation, len(r.RoutingSnapshot.Operations))
	for i, op := range r.RoutingSnapshot.Operations {
		ops[i] = primary.RoutingOperation{
			OperationID:     op.OperationID,
			Sequence:        op.Sequence,
			StandardMinutes: op.StandardMinutes,
			Name:            op.Name,
		}
	}
	return &primary.Order{
		ID:                r.ID,
		ProductID:         r.ProductID,
		WorkshopID:        r.WorkshopID,
		QuantityRequested: r.QuantityRequested,
		TrackingMode:      r.TrackingMode,
		LotSize:           r.LotSize,
		Notes:             r.Notes,
		RoutingID:         r.RoutingSnapshot.ID,
		Operations:        ops,
		CreatedAt:         r.CreatedAt,
	}
}

func recordToLot(r *secondary.LotRecord) *primary.Lot {
	return &primary.Lot{
		ID:            r.ID,
		OrderID:       r.OrderID,
		LotNumber:     r.LotNumber,
		PlannedPieces: r.PlannedPieces,
	}
}

// Ensure OrderServiceImpl implements the interface
var _ primary.OrderService = (*OrderServiceImpl)(nil)
