package primary

import (
	"context"

	"github.com/example/mes/internal/core/aggregation"
)

// ProgressService defines the primary port for the derived progress views.
// Views are computed on demand from the events present at query time.
type ProgressService interface {
	// GetOrderProgress computes the order, stage and lot views of one order.
	GetOrderProgress(ctx context.Context, orderID string) (*OrderProgressView, error)

	// ListOrders computes a summary row per order.
	ListOrders(ctx context.Context, filters OrderFilters) ([]*OrderSummary, error)

	// GetEfficiency returns produced standard minutes over worked minutes as
	// a percentage; nil when worked minutes are unknown or zero.
	GetEfficiency(ctx context.Context, orderID string, workedMinutes *float64) (*float64, error)
}

// OrderFilters contains filter options for listing orders.
type OrderFilters struct {
	WorkshopID string
	Limit      int
}

// OrderProgressView is the full progress picture of one order.
type OrderProgressView struct {
	Order    *Order
	Progress aggregation.OrderProgress
	Stages   []aggregation.StageProgress // sequence order
	Lots     []aggregation.LotProgress   // lot number order, empty for piece tracking
}

// OrderSummary is one row of the orders list.
type OrderSummary struct {
	OrderID           string
	ProductID         string
	TrackingMode      string
	TargetPieces      int
	CompletedPieces   int
	ScrapPieces       int
	CompletionPercent float64
}
