package primary

import (
	"context"
	"time"
)

// OrderService defines the primary port for production order operations.
type OrderService interface {
	// CreateOrder creates an order with a frozen routing snapshot and,
	// for lot or hybrid tracking, its planned lots.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)

	// GetOrder retrieves an order by ID.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// ListLots retrieves the lots of an order by lot number.
	ListLots(ctx context.Context, orderID string) ([]*Lot, error)
}

// CreateOrderRequest contains parameters for creating an order.
// Operations is the routing snapshot copied from the routing catalog.
type CreateOrderRequest struct {
	ProductID         string `validate:"required,uuid"`
	QuantityRequested int    `validate:"gt=0"`
	TrackingMode      string `validate:"required,oneof=piece lot hybrid"`
	LotSize           int    `validate:"gte=0"`
	Notes             string `validate:"max=1000"`
	WorkshopID        string
	RoutingID         string
	Operations        []RoutingOperation `validate:"required,min=1,dive"`
}

// RoutingOperation is one operation of a routing at the port boundary.
type RoutingOperation struct {
	OperationID     string  `validate:"required"`
	Sequence        int     `validate:"gte=0"`
	StandardMinutes float64 `validate:"gte=0"`
	Name            string
}

// CreateOrderResponse contains the result of creating an order.
type CreateOrderResponse struct {
	OrderID string
	Order   *Order
	Lots    []*Lot
}

// Order represents a production order at the port boundary.
type Order struct {
	ID                string
	ProductID         string
	WorkshopID        string
	QuantityRequested int
	TrackingMode      string
	LotSize           int
	Notes             string
	RoutingID         string
	Operations        []RoutingOperation
	CreatedAt         time.Time
}

// Lot represents a lot at the port boundary.
type Lot struct {
	ID            string
	OrderID       string
	LotNumber     int
	PlannedPieces int
}
