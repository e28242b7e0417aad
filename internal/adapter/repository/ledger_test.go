package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/stock-ledger/internal/adapter/storage"
	"github.com/rl1809/stock-ledger/internal/core/domain"
)

func newTestLedger(now time.Time) *Ledger {
	l := NewLedger(storage.NewMemoryStore(), NewKeys("test:"))
	l.now = fixedClock(now)
	return l
}

func TestAppend_AssignsIDAndTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	ledger := newTestLedger(now)

	rec, err := ledger.Append(context.Background(), domain.InventoryRecord{
		ProductID: "A",
		Quantity:  5,
		Type:      domain.MovementIn,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected generated id")
	}
	if rec.Timestamp != now.UnixMilli() {
		t.Errorf("expected timestamp %d, got %d", now.UnixMilli(), rec.Timestamp)
	}
}

func TestAppend_InvalidQuantity(t *testing.T) {
	ledger := newTestLedger(time.Now())
	ctx := context.Background()

	for _, typ := range []domain.MovementType{domain.MovementIn, domain.MovementOut} {
		_, err := ledger.Append(ctx, domain.InventoryRecord{ProductID: "A", Quantity: 0, Type: typ})
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("%s: expected ErrInvalidQuantity, got: %v", typ, err)
		}
	}

	_, err := ledger.Append(ctx, domain.InventoryRecord{ProductID: "A", Quantity: 1, Type: "restock"})
	if !errors.Is(err, domain.ErrInvalidMovementType) {
		t.Errorf("expected ErrInvalidMovementType, got: %v", err)
	}

	records, _ := ledger.ListAll(ctx)
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestAppend_AcceptsUnknownProduct(t *testing.T) {
	ledger := newTestLedger(time.Now())

	_, err := ledger.Append(context.Background(), domain.InventoryRecord{ProductID: "ghost", Quantity: 1, Type: domain.MovementOut})
	if err != nil {
		t.Errorf("ledger must not check products, got: %v", err)
	}
}

func TestListByProduct_PreservesOrder(t *testing.T) {
	ledger := newTestLedger(time.Now())
	ctx := context.Background()

	ledger.Append(ctx, domain.InventoryRecord{ID: "1", ProductID: "A", Quantity: 5, Type: domain.MovementIn, Timestamp: 300})
	ledger.Append(ctx, domain.InventoryRecord{ID: "2", ProductID: "B", Quantity: 1, Type: domain.MovementIn, Timestamp: 100})
	ledger.Append(ctx, domain.InventoryRecord{ID: "3", ProductID: "A", Quantity: 2, Type: domain.MovementOut, Timestamp: 100})

	records, err := ledger.ListByProduct(ctx, "A")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Insertion order wins over timestamps
	if records[0].ID != "1" || records[1].ID != "3" {
		t.Errorf("expected order [1 3], got [%s %s]", records[0].ID, records[1].ID)
	}

	all, _ := ledger.ListAll(ctx)
	if len(all) != 3 {
		t.Errorf("expected 3 records, got %d", len(all))
	}
}

func TestCleanup_Boundaries(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		age  time.Duration
		kept bool
	}{
		{"29 days", 29 * day, true},
		{"30 days exactly", 30 * day, true},
		{"30 days and an hour", 30*day + time.Hour, false},
		{"31 days", 31 * day, false},
		{"just now", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newTestLedger(now)
			ctx := context.Background()

			ledger.Append(ctx, domain.InventoryRecord{
				ID:        "rec",
				ProductID: "A",
				Quantity:  1,
				Type:      domain.MovementOut,
				Timestamp: now.Add(-tt.age).UnixMilli(),
			})

			removed, err := ledger.Cleanup(ctx, 30)
			if err != nil {
				t.Fatalf("cleanup failed: %v", err)
			}

			records, _ := ledger.ListAll(ctx)
			if len(records) != 1 {
				t.Fatalf("expected one record, got %+v", records)
			}
			if tt.kept && (records[0].ID != "rec" || removed != 0) {
				t.Errorf("expected record to be kept, removed=%d remaining=%+v", removed, records)
			}
			if !tt.kept && (records[0].ID == "rec" || removed != 1) {
				t.Errorf("expected record to be removed, removed=%d remaining=%+v", removed, records)
			}
		})
	}
}

func TestCleanup_MixedAndNegative(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	ledger := newTestLedger(now)
	ctx := context.Background()

	ledger.Append(ctx, domain.InventoryRecord{ID: "old", ProductID: "A", Quantity: 1, Type: domain.MovementIn, Timestamp: now.AddDate(0, 0, -31).UnixMilli()})
	ledger.Append(ctx, domain.InventoryRecord{ID: "new", ProductID: "A", Quantity: 1, Type: domain.MovementIn, Timestamp: now.AddDate(0, 0, -29).UnixMilli()})

	removed, err := ledger.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	records, _ := ledger.ListAll(ctx)
	if len(records) != 2 || records[1].ID != "new" {
		t.Fatalf("expected checkpoint then the recent record, got %+v", records)
	}
	cp := records[0]
	if cp.Type != domain.MovementEdit || cp.Quantity != 1 || cp.Note != CheckpointNote {
		t.Errorf("unexpected checkpoint %+v", cp)
	}
	if cp.Timestamp != now.AddDate(0, 0, -30).UnixMilli() {
		t.Errorf("expected checkpoint at the cutoff, got %d", cp.Timestamp)
	}

	if _, err := ledger.Cleanup(ctx, -1); !errors.Is(err, domain.ErrInvalidRetention) {
		t.Errorf("expected ErrInvalidRetention, got: %v", err)
	}
}

func TestCleanup_PreservesDerivedStock(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	ledger := newTestLedger(now)
	ctx := context.Background()
	days := func(n int) int64 { return now.AddDate(0, 0, -n).UnixMilli() }

	history := []domain.InventoryRecord{
		{ProductID: "A", Quantity: 100, Type: domain.MovementIn, Timestamp: days(40)},
		{ProductID: "B", Quantity: 5, Type: domain.MovementIn, Timestamp: days(50)},
		{ProductID: "A", Quantity: 30, Type: domain.MovementOut, Timestamp: days(35)},
		{ProductID: "B", Quantity: 5, Type: domain.MovementOut, Timestamp: days(45)},
		{ProductID: "C", Quantity: 3, Type: domain.MovementOut, Timestamp: days(60)},
		{ProductID: "A", Quantity: 2, Type: domain.MovementOut, Timestamp: days(1)},
		{ProductID: "D", Quantity: 8, Type: domain.MovementEdit, Timestamp: days(2)},
	}
	for _, r := range history {
		if _, err := ledger.Append(ctx, r); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	before, _ := ledger.ListAll(ctx)
	want := domain.StockByProduct(before)

	removed, err := ledger.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 5 {
		t.Errorf("expected 5 removed, got %d", removed)
	}

	after, _ := ledger.ListAll(ctx)
	got := domain.StockByProduct(after)
	for _, id := range []string{"A", "B", "C", "D"} {
		if got[id] != want[id] {
			t.Errorf("%s: expected stock %d after cleanup, got %d", id, want[id], got[id])
		}
	}

	// A: checkpoint 70 + out 2; B folds to zero and leaves nothing; C keeps a negative balance
	if len(after) != 4 {
		t.Errorf("expected 4 records after cleanup, got %+v", after)
	}

	// Running again does not churn the checkpoints
	ledger.now = fixedClock(now.Add(48 * time.Hour))
	removed, err = ledger.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("second cleanup failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected checkpoints to be left alone, removed %d", removed)
	}
	again, _ := ledger.ListAll(ctx)
	if got := domain.StockByProduct(again); got["A"] != 68 || got["C"] != -3 {
		t.Errorf("unexpected stock after second cleanup: %v", got)
	}
}

func TestLedger_StoreDown(t *testing.T) {
	ledger := NewLedger(failingStore{}, NewKeys("test:"))

	_, err := ledger.Append(context.Background(), domain.InventoryRecord{ProductID: "A", Quantity: 1, Type: domain.MovementIn})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got: %v", err)
	}
}
