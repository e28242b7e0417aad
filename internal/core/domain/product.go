package domain

import (
	"fmt"
	"time"
)

// Product is keyed by its barcode. Quantity is a cached copy of the
// ledger-derived stock.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Quantity    int    `json:"quantity"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type ProductWithStock struct {
	Product
	CurrentStock int `json:"currentStock"`
}

func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidProduct)
	}
	return nil
}

// Millis converts t to epoch milliseconds, the unit every stored timestamp uses.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
