package primary

import (
	"context"
	"time"
)

// RecordingService defines the primary port for recording production activity.
type RecordingService interface {
	// RecordProduction validates and persists one OperationRecorded event
	// and queues it for delivery. Nothing is persisted when any check fails.
	RecordProduction(ctx context.Context, req RecordProductionRequest) (*RecordProductionResponse, error)
}

// RecordProductionRequest contains parameters for recording production.
type RecordProductionRequest struct {
	OrderID        string `validate:"required"`
	OperationID    string `validate:"required"`
	OperatorID     string `validate:"required"`
	WorkCenterID   string
	LotID          string
	QtyDonePieces  int    `validate:"gt=0"`
	QtyScrapPieces int    `validate:"gte=0,ltefield=QtyDonePieces"`
	Note           string `validate:"max=500"`
}

// RecordProductionResponse contains the result of recording production.
type RecordProductionResponse struct {
	EventID   string
	OrderID   string
	Timestamp time.Time
}
