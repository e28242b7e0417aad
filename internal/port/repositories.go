package port

import (
	"context"
	"time"

	"github.com/rl1809/stock-ledger/internal/core/domain"
)

type ProductRepository interface {
	// Create inserts a product, fails with domain.ErrAlreadyExists on a duplicate id
	Create(ctx context.Context, product domain.Product) error

	// Upsert inserts or replaces a product
	Upsert(ctx context.Context, product domain.Product) error

	// BatchUpsert validates every product, then upserts them in one write
	BatchUpsert(ctx context.Context, products []domain.Product) error

	// Get returns domain.ErrNotFound when the id is absent
	Get(ctx context.Context, id string) (*domain.Product, error)

	// Update replaces an existing product and stamps UpdatedAt
	Update(ctx context.Context, product domain.Product) error

	// Delete removes a product, absent ids are a no-op
	Delete(ctx context.Context, id string) error

	List(ctx context.Context) ([]domain.Product, error)

	// ReplaceAll overwrites the whole collection
	ReplaceAll(ctx context.Context, products []domain.Product) error

	Clear(ctx context.Context) error
}

type InventoryLedger interface {
	// Append validates and stores a movement; the product is not checked
	Append(ctx context.Context, record domain.InventoryRecord) (domain.InventoryRecord, error)

	ListAll(ctx context.Context) ([]domain.InventoryRecord, error)

	// ListByProduct filters the ledger, keeping storage order
	ListByProduct(ctx context.Context, productID string) ([]domain.InventoryRecord, error)

	// Cleanup drops records older than retentionDays and returns how many were removed
	Cleanup(ctx context.Context, retentionDays int) (int, error)

	// ReplaceAll overwrites the whole ledger
	ReplaceAll(ctx context.Context, records []domain.InventoryRecord) error

	Clear(ctx context.Context) error
}

type BackupStore interface {
	// Save overwrites the single backup slot and records the backup date
	Save(ctx context.Context, backup domain.Backup) error

	// Load returns domain.ErrNoBackupAvailable when no backup was saved
	Load(ctx context.Context) (*domain.Backup, error)

	// LastBackupDate reports the time of the last backup, ok is false when there is none
	LastBackupDate(ctx context.Context) (t time.Time, ok bool, err error)

	Clear(ctx context.Context) error
}
