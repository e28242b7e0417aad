package domain

import (
	"errors"
	"testing"
)

func TestStockLevel_InOutEdit(t *testing.T) {
	lvl := NewStockLevel("A")

	lvl.Replay([]InventoryRecord{
		{ProductID: "A", Quantity: 5, Type: MovementIn},
		{ProductID: "A", Quantity: 2, Type: MovementOut},
	})
	if lvl.Current != 3 {
		t.Fatalf("expected stock 3, got %d", lvl.Current)
	}

	lvl.Apply(InventoryRecord{ProductID: "A", Quantity: 10, Type: MovementEdit})
	if lvl.Current != 10 {
		t.Errorf("expected stock 10 after edit, got %d", lvl.Current)
	}
	if lvl.Applied != 3 {
		t.Errorf("expected 3 applied records, got %d", lvl.Applied)
	}
}

func TestStockLevel_EditResetsThenContinues(t *testing.T) {
	lvl := NewStockLevel("A")
	lvl.Replay([]InventoryRecord{
		{ProductID: "A", Quantity: 50, Type: MovementIn},
		{ProductID: "A", Quantity: 4, Type: MovementEdit},
		{ProductID: "A", Quantity: 3, Type: MovementIn},
		{ProductID: "A", Quantity: 1, Type: MovementOut},
	})
	if lvl.Current != 6 {
		t.Errorf("expected stock 6, got %d", lvl.Current)
	}
}

func TestStockLevel_IgnoresOtherProductsAndUnknownTypes(t *testing.T) {
	lvl := NewStockLevel("A")
	lvl.Replay([]InventoryRecord{
		{ProductID: "B", Quantity: 7, Type: MovementIn},
		{ProductID: "A", Quantity: 2, Type: MovementIn},
		{ProductID: "A", Quantity: 9, Type: "transfer"},
	})
	if lvl.Current != 2 {
		t.Errorf("expected stock 2, got %d", lvl.Current)
	}
	if lvl.Applied != 1 {
		t.Errorf("expected 1 applied record, got %d", lvl.Applied)
	}
}

func TestStockByProduct(t *testing.T) {
	stock := StockByProduct([]InventoryRecord{
		{ProductID: "A", Quantity: 5, Type: MovementIn},
		{ProductID: "B", Quantity: 1, Type: MovementIn},
		{ProductID: "A", Quantity: 2, Type: MovementOut},
		{ProductID: "B", Quantity: 8, Type: MovementEdit},
	})

	if stock["A"] != 3 {
		t.Errorf("expected A=3, got %d", stock["A"])
	}
	if stock["B"] != 8 {
		t.Errorf("expected B=8, got %d", stock["B"])
	}
	if _, ok := stock["C"]; ok {
		t.Error("expected no entry for C")
	}
}

func TestValidateMovement(t *testing.T) {
	tests := []struct {
		name     string
		typ      MovementType
		quantity int
		want     error
	}{
		{"in positive", MovementIn, 1, nil},
		{"in zero", MovementIn, 0, ErrInvalidQuantity},
		{"out negative", MovementOut, -3, ErrInvalidQuantity},
		{"edit zero", MovementEdit, 0, nil},
		{"edit negative", MovementEdit, -1, ErrInvalidQuantity},
		{"unknown type", "transfer", 5, ErrInvalidMovementType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMovement(tt.typ, tt.quantity)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProductValidate(t *testing.T) {
	if err := (Product{ID: "6901234567890"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Product{}).Validate(); !errors.Is(err, ErrInvalidProduct) {
		t.Errorf("expected ErrInvalidProduct for empty id, got %v", err)
	}
	if err := (Product{ID: "x", Quantity: -1}).Validate(); !errors.Is(err, ErrInvalidProduct) {
		t.Errorf("expected ErrInvalidProduct for negative quantity, got %v", err)
	}
}
