package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/port"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// CheckpointNote marks records written by Cleanup in place of expired ones.
const CheckpointNote = "retention checkpoint"

// Ledger is the append-only movement log. Storage order is authoritative.
type Ledger struct {
	store port.KVStore
	key   string
	now   func() time.Time
	mu    sync.Mutex
}

func NewLedger(store port.KVStore, keys Keys) *Ledger {
	return &Ledger{
		store: store,
		key:   keys.Records,
		now:   time.Now,
	}
}

func (l *Ledger) Append(ctx context.Context, record domain.InventoryRecord) (domain.InventoryRecord, error) {
	if err := domain.ValidateMovement(record.Type, record.Quantity); err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("record for %s: %w", record.ProductID, err)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp == 0 {
		record.Timestamp = domain.Millis(l.now())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := loadList[domain.InventoryRecord](ctx, l.store, l.key)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	records = append(records, record)

	if err := saveJSON(ctx, l.store, l.key, records); err != nil {
		return domain.InventoryRecord{}, err
	}
	return record, nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]domain.InventoryRecord, error) {
	return loadList[domain.InventoryRecord](ctx, l.store, l.key)
}

func (l *Ledger) ListByProduct(ctx context.Context, productID string) ([]domain.InventoryRecord, error) {
	records, err := loadList[domain.InventoryRecord](ctx, l.store, l.key)
	if err != nil {
		return nil, err
	}

	out := make([]domain.InventoryRecord, 0)
	for _, r := range records {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Cleanup drops records whose age, counted in whole days rounded up, is
// more than retentionDays. A record exactly retentionDays old survives.
//
// Dropped records are folded into one checkpoint per product, stamped at
// the cutoff, so the derived stock is the same before and after. Returns
// the number of original records dropped; checkpoints are not counted.
func (l *Ledger) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidRetention, retentionDays)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := loadList[domain.InventoryRecord](ctx, l.store, l.key)
	if err != nil {
		return 0, err
	}

	now := domain.Millis(l.now())
	cutoff := now - int64(retentionDays)*dayMillis

	// Everything up to a product's last expired record is folded, so a
	// checkpoint never lands after a movement it should precede.
	lastExpired := make(map[string]int)
	for i, r := range records {
		if ageInDays(now, r.Timestamp) > int64(retentionDays) {
			lastExpired[r.ProductID] = i
		}
	}
	if len(lastExpired) == 0 {
		return 0, nil
	}

	levels := make(map[string]*domain.StockLevel)
	folded := make(map[string]int)
	kept := make([]domain.InventoryRecord, 0, len(records))
	checkpoints := 0
	for i, r := range records {
		last, ok := lastExpired[r.ProductID]
		if !ok || i > last {
			kept = append(kept, r)
			continue
		}

		lvl, ok := levels[r.ProductID]
		if !ok {
			lvl = domain.NewStockLevel(r.ProductID)
			levels[r.ProductID] = lvl
		}
		lvl.Apply(r)
		folded[r.ProductID]++

		if i != last {
			continue
		}
		// An earlier checkpoint on its own is already minimal.
		if folded[r.ProductID] == 1 && r.Note == CheckpointNote {
			kept = append(kept, r)
			continue
		}
		if lvl.Current != 0 {
			kept = append(kept, checkpoint(r.ProductID, lvl.Current, cutoff))
			checkpoints++
		}
	}

	removed := len(records) - (len(kept) - checkpoints)
	if removed == 0 {
		return 0, nil
	}
	if err := saveJSON(ctx, l.store, l.key, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// checkpoint restates a folded balance as a single movement starting from
// zero: edit for a positive balance, out for a negative one.
func checkpoint(productID string, balance int, ts int64) domain.InventoryRecord {
	rec := domain.InventoryRecord{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  balance,
		Type:      domain.MovementEdit,
		Note:      CheckpointNote,
		Timestamp: ts,
	}
	if balance < 0 {
		rec.Quantity = -balance
		rec.Type = domain.MovementOut
	}
	return rec
}

func (l *Ledger) ReplaceAll(ctx context.Context, records []domain.InventoryRecord) error {
	if records == nil {
		records = []domain.InventoryRecord{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return saveJSON(ctx, l.store, l.key, records)
}

func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return remove(ctx, l.store, l.key)
}

func ageInDays(now, ts int64) int64 {
	diff := now - ts
	if diff < 0 {
		diff = -diff
	}
	return (diff + dayMillis - 1) / dayMillis
}
