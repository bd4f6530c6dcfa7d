// Package routing holds the frozen routing snapshot an order owns.
// Orders never re-read live routing; everything downstream works from
// the copy taken at order creation.
package routing

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptySnapshot is returned when a snapshot has no operations.
	ErrEmptySnapshot = errors.New("routing snapshot has no operations")
	// ErrDuplicateSequence is returned when two operations share a sequence.
	ErrDuplicateSequence = errors.New("routing sequences must be unique")
	// ErrAmbiguousFinalOperation is returned when the final operation cannot
	// be determined because several operations share the maximum sequence.
	ErrAmbiguousFinalOperation = errors.New("several operations share the maximum sequence")
)

// Operation is one step of a snapshot.
type Operation struct {
	OperationID     string  `json:"operationId"`
	Sequence        int     `json:"sequence"`
	StandardMinutes float64 `json:"standardMinutes"` // per good piece
	Name            string  `json:"operationName,omitempty"`
}

// Snapshot is an order-owned copy of a product routing.
type Snapshot struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"productId,omitempty"`
	Operations []Operation `json:"operations"`
}

// Has reports whether operationID belongs to the snapshot.
func (s Snapshot) Has(operationID string) bool {
	for _, op := range s.Operations {
		if op.OperationID == operationID {
			return true
		}
	}
	return false
}

// Sorted returns the operations ordered by sequence. The receiver is not modified.
func (s Snapshot) Sorted() []Operation {
	ops := make([]Operation, len(s.Operations))
	copy(ops, s.Operations)
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Sequence < ops[j].Sequence })
	return ops
}

// LastOperation returns the operation with the maximum sequence, the one
// whose completion gates the order. found is false for an empty list.
func LastOperation(ops []Operation) (last Operation, found bool, err error) {
	if len(ops) == 0 {
		return Operation{}, false, nil
	}
	last = ops[0]
	tied := false
	for _, op := range ops[1:] {
		switch {
		case op.Sequence > last.Sequence:
			last = op
			tied = false
		case op.Sequence == last.Sequence:
			tied = true
		}
	}
	if tied {
		return Operation{}, false, fmt.Errorf("%w (sequence %d)", ErrAmbiguousFinalOperation, last.Sequence)
	}
	return last, true, nil
}

// ValidateSnapshot checks the invariants a snapshot must satisfy before an
// order may be created from it.
func ValidateSnapshot(s Snapshot) error {
	if len(s.Operations) == 0 {
		return ErrEmptySnapshot
	}
	seenSeq := make(map[int]string, len(s.Operations))
	seenOp := make(map[string]bool, len(s.Operations))
	for _, op := range s.Operations {
		if op.OperationID == "" {
			return fmt.Errorf("operation at sequence %d has no id", op.Sequence)
		}
		if seenOp[op.OperationID] {
			return fmt.Errorf("operation %s appears twice in routing", op.OperationID)
		}
		seenOp[op.OperationID] = true
		if op.Sequence < 0 {
			return fmt.Errorf("operation %s has negative sequence %d", op.OperationID, op.Sequence)
		}
		if op.StandardMinutes < 0 {
			return fmt.Errorf("operation %s has negative standard minutes", op.OperationID)
		}
		if other, ok := seenSeq[op.Sequence]; ok {
			return fmt.Errorf("%w: %s and %s both use sequence %d", ErrDuplicateSequence, other, op.OperationID, op.Sequence)
		}
		seenSeq[op.Sequence] = op.OperationID
	}
	return nil
}
