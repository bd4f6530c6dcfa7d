// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/mes/internal/adapters/sqlite"
	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/core/routing"
	"github.com/example/mes/internal/db"
	"github.com/example/mes/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// baseTime is a fixed instant tests offset from to get deterministic ordering.
var baseTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// recorded builds an OperationRecorded event at baseTime+offset.
func recorded(id, orderID, opID string, done, scrap int, offset time.Duration) event.Event {
	e := event.New(orderID, "WS-1", event.OperationRecorded{OperationID: opID, QtyDone: done, QtyScrap: scrap}, baseTime.Add(offset))
	e.ID = id
	return e
}

// seedOutbox enqueues a pending item built from e.
func seedOutbox(t *testing.T, repo *sqlite.OutboxRepository, e event.Event) {
	t.Helper()
	if _, err := repo.Enqueue(context.Background(), secondary.OutboxItem{Event: e}); err != nil {
		t.Fatalf("failed to seed outbox item: %v", err)
	}
}

// seedOrder inserts a piece-tracked order with a two-operation routing.
func seedOrder(t *testing.T, testDB *sql.DB, id string) *secondary.OrderRecord {
	t.Helper()
	order := &secondary.OrderRecord{
		ID:                id,
		ProductID:         "PROD-1",
		WorkshopID:        "WS-1",
		QuantityRequested: 20,
		TrackingMode:      "piece",
		RoutingSnapshot: routing.Snapshot{ID: "R-1", ProductID: "PROD-1", Operations: []routing.Operation{
			{OperationID: "op1", Sequence: 10, StandardMinutes: 1.5, Name: "Cut"},
			{OperationID: "op2", Sequence: 20, StandardMinutes: 2, Name: "Sew"},
		}},
	}
	if err := sqlite.NewOrderRepository(testDB).Create(context.Background(), order, nil); err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return order
}
