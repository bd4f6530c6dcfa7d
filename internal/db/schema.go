package db

import "database/sql"

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// via GetSchemaSQL() so repository code referencing a missing column fails
// immediately with "no such column".
//
// When adding new columns or tables:
//  1. Append a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Work events (append-only, idempotent by id)
CREATE TABLE IF NOT EXISTS work_events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	workshop_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	schema_version INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_work_events_aggregate ON work_events(aggregate_id, timestamp);

-- Outbox (events awaiting delivery to the remote system)
CREATE TABLE IF NOT EXISTS outbox_events (
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
);

CREATE INDEX IF NOT EXISTS idx_outbox_events_status ON outbox_events(status, timestamp);

-- Remote events (received-set of the in-process remote stand-in)
CREATE TABLE IF NOT EXISTS remote_events (
	id TEXT PRIMARY KEY,
	received_at DATETIME NOT NULL,
	payload TEXT
);

-- Production orders (routing snapshot frozen at creation)
CREATE TABLE IF NOT EXISTS production_orders (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	workshop_id TEXT NOT NULL,
	quantity_requested INTEGER NOT NULL CHECK(quantity_requested > 0),
	tracking_mode TEXT NOT NULL CHECK(tracking_mode IN ('piece', 'lot', 'hybrid')) DEFAULT 'piece',
	lot_size INTEGER,
	notes TEXT,
	routing_snapshot TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_production_orders_workshop ON production_orders(workshop_id);

-- Lots (partition of an order's target quantity)
CREATE TABLE IF NOT EXISTS lots (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	lot_number INTEGER NOT NULL CHECK(lot_number > 0),
	planned_pieces INTEGER NOT NULL CHECK(planned_pieces > 0),
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (order_id) REFERENCES production_orders(id),
	UNIQUE(order_id, lot_number)
);
`

// InitSchema creates the schema on a fresh database, or runs pending
// migrations on an existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Fresh install - create modern schema directly and mark every migration applied
		if _, err := db.Exec(SchemaSQL); err != nil {
			return err
		}
		if err := createVersionTable(db); err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	return RunMigrations(db)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
