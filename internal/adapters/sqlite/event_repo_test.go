package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/mes/internal/adapters/sqlite"
	"github.com/example/mes/internal/core/event"
	"github.com/example/mes/internal/ports/secondary"
)

func TestEventRepository_Append(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewEventRepository(db)
	ctx := context.Background()

	t.Run("stores a new event", func(t *testing.T) {
		outcome, err := repo.Append(ctx, recorded("EVT-1", "ORDER-1", "op1", 5, 1, 0))
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if outcome != secondary.Inserted {
			t.Errorf("outcome = %v, want %v", outcome, secondary.Inserted)
		}
	})

	t.Run("repeated id keeps the first write", func(t *testing.T) {
		dup := recorded("EVT-1", "ORDER-1", "op2", 99, 0, time.Minute)

		outcome, err := repo.Append(ctx, dup)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if !outcome.Deduped() {
			t.Errorf("outcome = %v, want already_exists", outcome)
		}

		events, err := repo.ListByAggregate(ctx, "ORDER-1")
		if err != nil {
			t.Fatalf("ListByAggregate failed: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("len(events) = %d, want 1", len(events))
		}
		rec, ok := events[0].Recorded()
		if !ok {
			t.Fatalf("payload = %T, want OperationRecorded", events[0].Payload)
		}
		if rec.OperationID != "op1" || rec.QtyDone != 5 || rec.QtyScrap != 1 {
			t.Errorf("stored payload = %+v, want first write", rec)
		}
	})
}

func TestEventRepository_ListByAggregate(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewEventRepository(db)
	ctx := context.Background()

	// Appended out of order on purpose.
	for _, e := range []event.Event{
		recorded("EVT-3", "ORDER-1", "op1", 3, 0, 3*time.Minute),
		recorded("EVT-1", "ORDER-1", "op1", 1, 0, time.Minute),
		recorded("EVT-X", "ORDER-2", "op1", 7, 0, 2*time.Minute),
		recorded("EVT-2", "ORDER-1", "op2", 2, 0, 2*time.Minute),
	} {
		if _, err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	events, err := repo.ListByAggregate(ctx, "ORDER-1")
	if err != nil {
		t.Fatalf("ListByAggregate failed: %v", err)
	}

	want := []string{"EVT-1", "EVT-2", "EVT-3"}
	if len(events) != len(want) {
		t.Fatalf("len(events) = %d, want %d", len(events), len(want))
	}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("events[%d].ID = %q, want %q", i, events[i].ID, id)
		}
	}
	if !events[0].Timestamp.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("Timestamp = %v, want %v", events[0].Timestamp, baseTime.Add(time.Minute))
	}
	if events[0].SchemaVersion != event.SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", events[0].SchemaVersion, event.SchemaVersion)
	}

	t.Run("unknown aggregate returns empty", func(t *testing.T) {
		events, err := repo.ListByAggregate(ctx, "ORDER-404")
		if err != nil {
			t.Fatalf("ListByAggregate failed: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("len(events) = %d, want 0", len(events))
		}
	})
}

func TestEventRepository_ListByAggregateIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewEventRepository(db)
	ctx := context.Background()

	for _, e := range []event.Event{
		recorded("EVT-A2", "ORDER-A", "op1", 1, 0, 2*time.Minute),
		recorded("EVT-B1", "ORDER-B", "op1", 1, 0, time.Minute),
		recorded("EVT-C1", "ORDER-C", "op1", 1, 0, 0),
	} {
		if _, err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	t.Run("returns events of the listed aggregates", func(t *testing.T) {
		events, err := repo.ListByAggregateIDs(ctx, []string{"ORDER-A", "ORDER-B"})
		if err != nil {
			t.Fatalf("ListByAggregateIDs failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("len(events) = %d, want 2", len(events))
		}
		if events[0].ID != "EVT-B1" || events[1].ID != "EVT-A2" {
			t.Errorf("order = [%s %s], want [EVT-B1 EVT-A2]", events[0].ID, events[1].ID)
		}
	})

	t.Run("empty id list returns empty", func(t *testing.T) {
		events, err := repo.ListByAggregateIDs(ctx, nil)
		if err != nil {
			t.Fatalf("ListByAggregateIDs failed: %v", err)
		}
		if events == nil || len(events) != 0 {
			t.Errorf("events = %v, want empty non-nil slice", events)
		}
	})
}

func TestEventRepository_MalformedPayloadIsOpaque(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewEventRepository(db)
	ctx := context.Background()

	_, err := db.Exec(
		`INSERT INTO work_events (id, type, aggregate_id, workshop_id, timestamp, payload, schema_version) VALUES (?, ?, ?, ?, ?, ?, 1)`,
		"EVT-BAD", event.TypeOperationRecorded, "ORDER-1", "WS-1", baseTime, `{"qtyDone": 3}`,
	)
	if err != nil {
		t.Fatalf("failed to insert raw event: %v", err)
	}

	events, err := repo.ListByAggregate(ctx, "ORDER-1")
	if err != nil {
		t.Fatalf("ListByAggregate failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	opaque, ok := events[0].Payload.(event.Opaque)
	if !ok {
		t.Fatalf("payload = %T, want event.Opaque", events[0].Payload)
	}
	if opaque.Err == nil {
		t.Error("expected decode error on opaque payload")
	}
}
