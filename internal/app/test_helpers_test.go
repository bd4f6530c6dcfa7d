package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
	"github.com/example/mes/internal/ports/secondary"
)

// ============================================================================
// Mock Transactor
// ============================================================================

// mockTransactor implements secondary.Transactor over the in-memory mocks.
// It snapshots them when the outermost transaction starts and restores the
// snapshot when fn fails.
type mockTransactor struct {
	orders    *mockOrderRepository
	events    *mockEventStore
	outbox    *mockOutboxRepository
	depth     int
	rollbacks int
}

func newMockTransactor(orders *mockOrderRepository, events *mockEventStore, outbox *mockOutboxRepository) *mockTransactor {
	return &mockTransactor{orders: orders, events: events, outbox: outbox}
}

func (m *mockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth > 0 {
		return fn(ctx)
	}

	savedEvents := append([]event.Event(nil), m.events.events...)
	savedItems := make(map[string]*secondary.OutboxItem, len(m.outbox.items))
	for id, item := range m.outbox.items {
		savedItems[id] = item
	}
	savedOrder := append([]string(nil), m.outbox.order...)
	savedOrders := make(map[string]*secondary.OrderRecord, len(m.orders.orders))
	for id, o := range m.orders.orders {
		savedOrders[id] = o
	}
	savedLots := make(map[string]*secondary.LotRecord, len(m.orders.lots))
	for id, l := range m.orders.lots {
		savedLots[id] = l
	}

	m.depth++
	err := fn(ctx)
	m.depth--

	if err != nil {
		m.rollbacks++
		m.events.events = savedEvents
		m.outbox.items = savedItems
		m.outbox.order = savedOrder
		m.orders.orders = savedOrders
		m.orders.lots = savedLots
	}
	return err
}

// ============================================================================
// Mock Event Store
// ============================================================================

// mockEventStore implements secondary.EventStore for testing.
type mockEventStore struct {
	events    []event.Event
	appendErr error
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{}
}

func (m *mockEventStore) Append(ctx context.Context, e event.Event) (secondary.InsertOutcome, error) {
	if m.appendErr != nil {
		return secondary.Inserted, m.appendErr
	}
	for _, existing := range m.events {
		if existing.ID == e.ID {
			return secondary.AlreadyExists, nil
		}
	}
	m.events = append(m.events, e)
	return secondary.Inserted, nil
}

func (m *mockEventStore) ListByAggregate(ctx context.Context, aggregateID string) ([]event.Event, error) {
	return m.ListByAggregateIDs(ctx, []string{aggregateID})
}

func (m *mockEventStore) ListByAggregateIDs(ctx context.Context, aggregateIDs []string) ([]event.Event, error) {
	want := make(map[string]bool, len(aggregateIDs))
	for _, id := range aggregateIDs {
		want[id] = true
	}
	out := []event.Event{}
	for _, e := range m.events {
		if want[e.AggregateID] {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ============================================================================
// Mock Outbox Repository
// ============================================================================

// mockOutboxRepository implements secondary.OutboxRepository for testing.
type mockOutboxRepository struct {
	items          map[string]*secondary.OutboxItem
	order          []string
	markSentCalls  int
	markSentErr    error
	incrementErrOn string
	enqueueErr     error
}

func newMockOutboxRepository() *mockOutboxRepository {
	return &mockOutboxRepository{items: make(map[string]*secondary.OutboxItem)}
}

func (m *mockOutboxRepository) Enqueue(ctx context.Context, item secondary.OutboxItem) (secondary.InsertOutcome, error) {
	if m.enqueueErr != nil {
		return secondary.Inserted, m.enqueueErr
	}
	if _, ok := m.items[item.ID]; ok {
		return secondary.AlreadyExists, nil
	}
	item.Status = secondary.OutboxPending
	m.items[item.ID] = &item
	m.order = append(m.order, item.ID)
	return secondary.Inserted, nil
}

func (m *mockOutboxRepository) GetByID(ctx context.Context, id string) (*secondary.OutboxItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("outbox item %s: %w", id, secondary.ErrNotFound)
	}
	cp := *item
	return &cp, nil
}

func (m *mockOutboxRepository) ListPending(ctx context.Context, limit int) ([]*secondary.OutboxItem, error) {
	out := []*secondary.OutboxItem{}
	for _, id := range m.order {
		if len(out) >= limit {
			break
		}
		if item := m.items[id]; item.Status == secondary.OutboxPending {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOutboxRepository) ListFailed(ctx context.Context) ([]*secondary.OutboxItem, error) {
	out := []*secondary.OutboxItem{}
	for _, id := range m.order {
		if item := m.items[id]; item.Status == secondary.OutboxFailed {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockOutboxRepository) CountByStatus(ctx context.Context, status secondary.OutboxStatus) (int, error) {
	n := 0
	for _, item := range m.items {
		if item.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockOutboxRepository) IncrementAttempt(ctx context.Context, id string, attemptedAt time.Time) error {
	if id == m.incrementErrOn {
		return errors.New("database is locked")
	}
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("outbox item %s: %w", id, secondary.ErrNotFound)
	}
	item.Status = secondary.OutboxSending
	item.AttemptCount++
	item.LastAttemptAt = &attemptedAt
	return nil
}

func (m *mockOutboxRepository) MarkSent(ctx context.Context, ids []string, sentAt time.Time) error {
	m.markSentCalls++
	if m.markSentErr != nil {
		return m.markSentErr
	}
	for _, id := range ids {
		if item, ok := m.items[id]; ok && item.Status != secondary.OutboxSent {
			item.Status = secondary.OutboxSent
			item.SentAt = &sentAt
			item.ErrorMessage = ""
		}
	}
	return nil
}

func (m *mockOutboxRepository) MarkFailed(ctx context.Context, id, errorMessage string, attemptedAt time.Time) error {
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("outbox item %s: %w", id, secondary.ErrNotFound)
	}
	item.Status = secondary.OutboxFailed
	item.ErrorMessage = errorMessage
	item.LastAttemptAt = &attemptedAt
	return nil
}

func (m *mockOutboxRepository) ResetFailedToPending(ctx context.Context, ids []string, resetError bool) (int, error) {
	n := 0
	for _, id := range ids {
		item, ok := m.items[id]
		if !ok || item.Status != secondary.OutboxFailed {
			continue
		}
		item.Status = secondary.OutboxPending
		if resetError {
			item.ErrorMessage = ""
		}
		n++
	}
	return n, nil
}

// ============================================================================
// Mock Transport
// ============================================================================

// mockTransport implements secondary.Transport for testing. It mirrors the
// remote stand-in: dedup first, then failure rate 1, then the "Fail" marker.
type mockTransport struct {
	received map[string]bool
	sendErr  map[string]error
	sent     []string
}

func newMockTransport() *mockTransport {
	return &mockTransport{received: make(map[string]bool), sendErr: make(map[string]error)}
}

func (m *mockTransport) Send(ctx context.Context, item *secondary.OutboxItem, failureRate float64) (secondary.SendResult, error) {
	m.sent = append(m.sent, item.ID)
	if err := m.sendErr[item.ID]; err != nil {
		return secondary.SendResult{}, err
	}
	if m.received[item.ID] {
		return secondary.SendResult{OK: true, Deduped: true}, nil
	}
	if failureRate >= 1 {
		return secondary.SendResult{OK: false, Error: "Simulated transport failure"}, nil
	}
	if strings.Contains(item.Type, "Fail") {
		return secondary.SendResult{OK: false, Error: "Simulated failure for test event"}, nil
	}
	m.received[item.ID] = true
	return secondary.SendResult{OK: true}, nil
}

func (m *mockTransport) CountReceived(ctx context.Context) (int, error) {
	return len(m.received), nil
}

func (m *mockTransport) Clear(ctx context.Context) error {
	m.received = make(map[string]bool)
	return nil
}

// ============================================================================
// Mock Order and Lot Repositories
// ============================================================================

// mockOrderRepository implements secondary.OrderRepository and
// secondary.LotRepository for testing.
type mockOrderRepository struct {
	orders    map[string]*secondary.OrderRecord
	lots      map[string]*secondary.LotRecord
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[string]*secondary.OrderRecord),
		lots:   make(map[string]*secondary.LotRecord),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *secondary.OrderRecord, lots []*secondary.LotRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	for _, l := range lots {
		l.OrderID = order.ID
		m.lots[l.ID] = l
	}
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*secondary.OrderRecord, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, secondary.ErrNotFound)
	}
	return order, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filters secondary.OrderFilters) ([]*secondary.OrderRecord, error) {
	out := []*secondary.OrderRecord{}
	for _, o := range m.orders {
		if filters.WorkshopID != "" && o.WorkshopID != filters.WorkshopID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// mockLotRepository reads lots from a mockOrderRepository.
type mockLotRepository struct {
	orders *mockOrderRepository
}

func (m *mockLotRepository) GetByID(ctx context.Context, id string) (*secondary.LotRecord, error) {
	l, ok := m.orders.lots[id]
	if !ok {
		return nil, fmt.Errorf("lot %s: %w", id, secondary.ErrNotFound)
	}
	return l, nil
}

func (m *mockLotRepository) ListByOrder(ctx context.Context, orderID string) ([]*secondary.LotRecord, error) {
	out := []*secondary.LotRecord{}
	for _, l := range m.orders.lots {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LotNumber < out[j].LotNumber })
	return out, nil
}

// ============================================================================
// Fixtures
// ============================================================================

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// twoStepRouting returns op1 (seq 1, 5 SAM) and op2 (seq 2, 10 SAM).
func twoStepRouting() routing.Snapshot {
	return routing.Snapshot{ID: "R-1", ProductID: "PROD-1", Operations: []routing.Operation{
		{OperationID: "op1", Sequence: 1, StandardMinutes: 5},
		{OperationID: "op2", Sequence: 2, StandardMinutes: 10},
	}}
}

// seedOrderRecord stores an order directly in the mock repository.
func seedOrderRecord(repo *mockOrderRepository, id, mode string, quantity int) *secondary.OrderRecord {
	order := &secondary.OrderRecord{
		ID:                id,
		ProductID:         "PROD-1",
		WorkshopID:        "WS-1",
		QuantityRequested: quantity,
		TrackingMode:      mode,
		RoutingSnapshot:   twoStepRouting(),
		CreatedAt:         fixedNow,
	}
	repo.orders[id] = order
	return order
}

// seedLotRecord stores a lot directly in the mock repository.
func seedLotRecord(repo *mockOrderRepository, id, orderID string, number, planned int) {
	repo.lots[id] = &secondary.LotRecord{ID: id, OrderID: orderID, LotNumber: number, PlannedPieces: planned}
}

// enqueueEvent builds an event of the given type and enqueues it.
func enqueueEvent(repo *mockOutboxRepository, id, eventType string, offset time.Duration) {
	var payload event.Payload = event.OperationRecorded{OperationID: "op1", QtyDone: 1}
	if eventType != event.TypeOperationRecorded {
		payload = event.Opaque{Type: eventType, Raw: []byte(`{}`)}
	}
	e := event.Event{
		ID:            id,
		Type:          eventType,
		AggregateID:   "ORDER-1",
		WorkshopID:    "WS-1",
		Timestamp:     fixedNow.Add(offset),
		Payload:       payload,
		SchemaVersion: event.SchemaVersion,
	}
	repo.Enqueue(context.Background(), secondary.OutboxItem{Event: e})
}
