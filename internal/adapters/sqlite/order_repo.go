package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/example/mes/internal/core/routing"
	"github.com/example/mes/internal/ports/secondary"
)

// OrderRepository implements secondary.OrderRepository and
// secondary.LotRepository with SQLite.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new SQLite order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists an order and its lots in one transaction, joining the
// caller's transaction when ctx carries one.
func (r *OrderRepository) Create(ctx context.Context, order *secondary.OrderRecord, lots []*secondary.LotRecord) error {
	snapshot, err := json.Marshal(order.RoutingSnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode routing snapshot: %w", err)
	}

	var lotSize sql.NullInt64
	if order.LotSize > 0 {
		lotSize = sql.NullInt64{Int64: int64(order.LotSize), Valid: true}
	}
	var notes sql.NullString
	if order.Notes != "" {
		notes = sql.NullString{String: order.Notes, Valid: true}
	}

	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err = runInTx(ctx, r.db, func(ctx context.Context, q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO production_orders (id, product_id, workshop_id, quantity_requested, tracking_mode, lot_size, notes, routing_snapshot, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID,
			order.ProductID,
			order.WorkshopID,
			order.QuantityRequested,
			order.TrackingMode,
			lotSize,
			notes,
			string(snapshot),
			createdAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, lot := range lots {
			_, err := q.ExecContext(ctx,
				`INSERT INTO lots (id, order_id, lot_number, planned_pieces, created_at) VALUES (?, ?, ?, ?, ?)`,
				lot.ID,
				order.ID,
				lot.LotNumber,
				lot.PlannedPieces,
				createdAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("failed to create lot %d: %w", lot.LotNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.CreatedAt = createdAt.UTC()
	return nil
}

const orderColumns = `id, product_id, workshop_id, quantity_requested, tracking_mode, lot_size, notes, routing_snapshot, created_at`

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*secondary.OrderRecord, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+orderColumns+` FROM production_orders WHERE id = ?`, id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// List retrieves orders matching the given filters, newest first.
func (r *OrderRepository) List(ctx context.Context, filters secondary.OrderFilters) ([]*secondary.OrderRecord, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders WHERE 1=1`
	args := []any{}

	if filters.WorkshopID != "" {
		query += " AND workshop_id = ?"
		args = append(args, filters.WorkshopID)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*secondary.OrderRecord{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*secondary.OrderRecord, error) {
	var (
		order     secondary.OrderRecord
		lotSize   sql.NullInt64
		notes     sql.NullString
		snapshot  string
		createdAt sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.ProductID,
		&order.WorkshopID,
		&order.QuantityRequested,
		&order.TrackingMode,
		&lotSize,
		&notes,
		&snapshot,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	var rs routing.Snapshot
	if err := json.Unmarshal([]byte(snapshot), &rs); err != nil {
		return nil, fmt.Errorf("failed to decode routing snapshot of order %s: %w", order.ID, err)
	}
	order.RoutingSnapshot = rs
	order.LotSize = int(lotSize.Int64)
	order.Notes = notes.String
	if createdAt.Valid {
		order.CreatedAt = createdAt.Time.UTC()
	}

	return &order, nil
}

// GetLot retrieves a lot by its ID.
func (r *OrderRepository) GetLot(ctx context.Context, id string) (*secondary.LotRecord, error) {
	var (
		lot       secondary.LotRecord
		createdAt sql.NullTime
	)
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, order_id, lot_number, planned_pieces, created_at FROM lots WHERE id = ?`, id,
	).Scan(&lot.ID, &lot.OrderID, &lot.LotNumber, &lot.PlannedPieces, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lot %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	if createdAt.Valid {
		lot.CreatedAt = createdAt.Time.UTC()
	}
	return &lot, nil
}

// ListLots returns an order's lots by lot number.
func (r *OrderRepository) ListLots(ctx context.Context, orderID string) ([]*secondary.LotRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, order_id, lot_number, planned_pieces, created_at FROM lots WHERE order_id = ? ORDER BY lot_number ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	defer rows.Close()

	lots := []*secondary.LotRecord{}
	for rows.Next() {
		var (
			lot       secondary.LotRecord
			createdAt sql.NullTime
		)
		if err := rows.Scan(&lot.ID, &lot.OrderID, &lot.LotNumber, &lot.PlannedPieces, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		if createdAt.Valid {
			lot.CreatedAt = createdAt.Time.UTC()
		}
		lots = append(lots, &lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lots: %w", err)
	}
	return lots, nil
}

// LotRepository adapts OrderRepository to secondary.LotRepository.
type LotRepository struct {
	orders *OrderRepository
}

// NewLotRepository creates a new SQLite lot repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{orders: NewOrderRepository(db)}
}

// GetByID retrieves a lot by its ID.
func (r *LotRepository) GetByID(ctx context.Context, id string) (*secondary.LotRecord, error) {
	return r.orders.GetLot(ctx, id)
}

// ListByOrder returns an order's lots by lot number.
func (r *LotRepository) ListByOrder(ctx context.Context, orderID string) ([]*secondary.LotRecord, error) {
	return r.orders.ListLots(ctx, orderID)
}

// Ensure the repositories implement their interfaces
var (
	_ secondary.OrderRepository = (*OrderRepository)(nil)
	_ secondary.LotRepository   = (*LotRepository)(nil)
)
