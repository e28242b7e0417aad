package domain

// StockLevel replays ledger entries for a single product.
type StockLevel struct {
	ProductID string
	Current   int
	Applied   int
}

func NewStockLevel(productID string) *StockLevel {
	return &StockLevel{ProductID: productID}
}

// Apply folds one record into the running total. Edit is an absolute set.
func (s *StockLevel) Apply(record InventoryRecord) {
	switch record.Type {
	case MovementIn:
		s.Current += record.Quantity
	case MovementOut:
		s.Current -= record.Quantity
	case MovementEdit:
		s.Current = record.Quantity
	default:
		return
	}
	s.Applied++
}

func (s *StockLevel) Replay(records []InventoryRecord) {
	for _, r := range records {
		if r.ProductID != s.ProductID {
			continue
		}
		s.Apply(r)
	}
}

// StockByProduct folds the whole ledger in one pass.
func StockByProduct(records []InventoryRecord) map[string]int {
	levels := make(map[string]*StockLevel)
	for _, r := range records {
		lvl, ok := levels[r.ProductID]
		if !ok {
			lvl = NewStockLevel(r.ProductID)
			levels[r.ProductID] = lvl
		}
		lvl.Apply(r)
	}

	out := make(map[string]int, len(levels))
	for id, lvl := range levels {
		out[id] = lvl.Current
	}
	return out
}
