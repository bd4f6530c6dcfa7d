// Package event defines production events and their payload variants.
// Events are immutable once appended; the id is generated by the client
// that records the activity and is the deduplication key everywhere.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the payload schema version stamped on new events.
const SchemaVersion = 1

// Event type tags.
const (
	TypeOperationRecorded      = "OperationRecorded"
	TypeProductionOrderCreated = "ProductionOrderCreated"
)

// Event is a single immutable fact about production activity.
type Event struct {
	ID            string
	Type          string
	AggregateID   string // production order id
	WorkshopID    string
	Timestamp     time.Time
	Payload       Payload
	SchemaVersion int
}

// Payload is the closed set of event bodies. New event types add a variant.
type Payload interface {
	EventType() string
}

// OperationRecorded is emitted when pieces are produced (and possibly
// scrapped) at one routing operation of an order.
type OperationRecorded struct {
	OperationID  string `json:"operationId"`
	QtyDone      int    `json:"qtyDone"`
	QtyScrap     int    `json:"qtyScrap,omitempty"`
	LotID        string `json:"lotId,omitempty"`
	OperatorID   string `json:"operatorId,omitempty"`
	WorkCenterID string `json:"workCenterId,omitempty"`
	Note         string `json:"note,omitempty"`
}

// EventType implements Payload.
func (OperationRecorded) EventType() string { return TypeOperationRecorded }

// ProductionOrderCreated is emitted once when an order is created.
type ProductionOrderCreated struct {
	ProductID    string `json:"productId"`
	Quantity     int    `json:"quantity"`
	TrackingMode string `json:"trackingMode"`
	LotCount     int    `json:"lotCount,omitempty"`
}

// EventType implements Payload.
func (ProductionOrderCreated) EventType() string { return TypeProductionOrderCreated }

// Opaque carries a payload whose type is unknown to this build, or whose
// body failed to decode. Opaque payloads are stored and delivered verbatim
// but never contribute to aggregation.
type Opaque struct {
	Type string
	Raw  []byte
	Err  error // decode failure, nil for unknown types
}

// EventType implements Payload.
func (o Opaque) EventType() string { return o.Type }

// New builds an event with a fresh id for the given payload.
func New(aggregateID, workshopID string, payload Payload, at time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          payload.EventType(),
		AggregateID:   aggregateID,
		WorkshopID:    workshopID,
		Timestamp:     at.UTC(),
		Payload:       payload,
		SchemaVersion: SchemaVersion,
	}
}

// Recorded returns the OperationRecorded body of e, if it has one.
func (e Event) Recorded() (OperationRecorded, bool) {
	switch p := e.Payload.(type) {
	case OperationRecorded:
		return p, true
	case *OperationRecorded:
		if p != nil {
			return *p, true
		}
	}
	return OperationRecorded{}, false
}

// String renders a short description for logs.
func (e Event) String() string {
	return fmt.Sprintf("%s(%s) on %s", e.Type, e.ID, e.AggregateID)
}
