package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_event_log_and_outbox",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_lot_size_and_notes_to_orders",
		Up:      migrationV2,
	},
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations applies every migration newer than the recorded schema version.
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

// migrationV1 creates the event log, outbox, remote inbox, orders and lots
// as first released (orders without lot_size/notes).
func migrationV1(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS work_events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			workshop_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			schema_version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_work_events_aggregate ON work_events(aggregate_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			workshop_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			schema_version INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL CHECK(status IN ('pending', 'sending', 'sent', 'failed')) DEFAULT 'pending',
			attempt_count INTEGER NOT NULL DEFAULT 0 CHECK(attempt_count >= 0),
			last_attempt_at DATETIME,
			sent_at DATETIME,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_events_status ON outbox_events(status, timestamp)`,
		`CREATE TABLE IF NOT EXISTS remote_events (
			id TEXT PRIMARY KEY,
			received_at DATETIME NOT NULL,
			payload TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS production_orders (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			workshop_id TEXT NOT NULL,
			quantity_requested INTEGER NOT NULL CHECK(quantity_requested > 0),
			tracking_mode TEXT NOT NULL CHECK(tracking_mode IN ('piece', 'lot', 'hybrid')) DEFAULT 'piece',
			routing_snapshot TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_production_orders_workshop ON production_orders(workshop_id)`,
		`CREATE TABLE IF NOT EXISTS lots (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			lot_number INTEGER NOT NULL CHECK(lot_number > 0),
			planned_pieces INTEGER NOT NULL CHECK(planned_pieces > 0),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (order_id) REFERENCES production_orders(id),
			UNIQUE(order_id, lot_number)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV2 adds the lot size and free-text notes captured at order creation.
func migrationV2(tx *sql.Tx) error {
	if _, err := tx.Exec(`ALTER TABLE production_orders ADD COLUMN lot_size INTEGER`); err != nil {
		return err
	}
	_, err := tx.Exec(`ALTER TABLE production_orders ADD COLUMN notes TEXT`)
	return err
}
