package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/policy"
	"github.com/example/mes/internal/logging"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/ports/secondary"
)

// RecordingServiceImpl implements the RecordingService interface.
type RecordingServiceImpl struct {
	orders secondary.OrderRepository
	lots   secondary.LotRepository
	log    eventLog
	logger *zap.Logger
	now    func() time.Time
}

// NewRecordingService creates a new RecordingService with injected dependencies.
func NewRecordingService(
	orders secondary.OrderRepository,
	lots secondary.LotRepository,
	events secondary.EventStore,
	outbox secondary.OutboxRepository,
	tx secondary.Transactor,
	logger *zap.Logger,
) *RecordingServiceImpl {
	return &RecordingServiceImpl{
		orders: orders,
		lots:   lots,
		log:    eventLog{tx: tx, store: events, outbox: outbox},
		logger: logger,
		now:    time.Now,
	}
}

// RecordProduction records pieces done (and scrapped) at one operation of
// an order. Every check runs before anything is written.
func (s *RecordingServiceImpl) RecordProduction(ctx context.Context, req primary.RecordProductionRequest) (*primary.RecordProductionResponse, error) {
	req.Note = strings.TrimSpace(req.Note)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	var lotOrderID string
	if req.LotID != "" {
		lot, err := s.lots.GetByID(ctx, req.LotID)
		if err != nil {
			return nil, err
		}
		lotOrderID = lot.OrderID
	}

	recorded := event.New(order.ID, order.WorkshopID, event.OperationRecorded{
		OperationID:  req.OperationID,
		QtyDone:      req.QtyDonePieces,
		QtyScrap:     req.QtyScrapPieces,
		LotID:        req.LotID,
		OperatorID:   req.OperatorID,
		WorkCenterID: req.WorkCenterID,
		Note:         req.Note,
	}, s.now())

	// Guard check
	guardCtx := policy.RecordProductionContext{
		OrderID:      order.ID,
		TrackingMode: order.TrackingMode,
		Snapshot:     order.RoutingSnapshot,
		Event:        recorded,
		LotID:        req.LotID,
		LotOrderID:   lotOrderID,
	}
	if result := policy.CanRecordProduction(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	if _, err := s.log.publish(ctx, recorded); err != nil {
		return nil, err
	}

	logging.Info(ctx, s.logger, "production recorded",
		zap.String("event_id", recorded.ID),
		zap.String("order_id", order.ID),
		zap.String("operation_id", req.OperationID),
		zap.Int("done", req.QtyDonePieces),
		zap.Int("scrap", req.QtyScrapPieces),
	)

	return &primary.RecordProductionResponse{
		EventID:   recorded.ID,
		OrderID:   order.ID,
		Timestamp: recorded.Timestamp,
	}, nil
}

// Ensure RecordingServiceImpl implements the interface
var _ primary.RecordingService = (*RecordingServiceImpl)(nil)
