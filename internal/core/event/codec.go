package event

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ErrMissingOperation is returned when an OperationRecorded body has no operationId.
var ErrMissingOperation = errors.New("operationId is required")

// EncodePayload serialises a payload for storage or delivery.
func EncodePayload(p Payload) ([]byte, error) {
	switch v := p.(type) {
	case nil:
		return []byte("{}"), nil
	case Opaque:
		if len(v.Raw) == 0 {
			return []byte("{}"), nil
		}
		return v.Raw, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", p.EventType(), err)
		}
		return data, nil
	}
}

// DecodePayload parses a stored body into the variant matching eventType.
// It never fails: unknown types and bodies that do not fit their variant
// come back as Opaque, with Err set for the latter.
func DecodePayload(eventType string, data []byte) Payload {
	switch eventType {
	case TypeOperationRecorded:
		var p OperationRecorded
		if err := json.Unmarshal(data, &p); err != nil {
			return Opaque{Type: eventType, Raw: data, Err: err}
		}
		if p.OperationID == "" {
			return Opaque{Type: eventType, Raw: data, Err: ErrMissingOperation}
		}
		return p
	case TypeProductionOrderCreated:
		var p ProductionOrderCreated
		if err := json.Unmarshal(data, &p); err != nil {
			return Opaque{Type: eventType, Raw: data, Err: err}
		}
		return p
	default:
		return Opaque{Type: eventType, Raw: data}
	}
}
