package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/port"
)

const DefaultKeyPrefix = "inventory:"

// Keys names the four slots the application keeps in the key-value store.
type Keys struct {
	Products       string
	Records        string
	Backup         string
	LastBackupDate string
}

func NewKeys(prefix string) Keys {
	return Keys{
		Products:       prefix + "products",
		Records:        prefix + "inventory_records",
		Backup:         prefix + "backup",
		LastBackupDate: prefix + "last_backup_date",
	}
}

func (k Keys) All() []string {
	return []string{k.Products, k.Records, k.Backup, k.LastBackupDate}
}

// loadList decodes the JSON array under key; an absent key is an empty list.
func loadList[T any](ctx context.Context, store port.KVStore, key string) ([]T, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if !found || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrStorageUnavailable, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func saveJSON(ctx context.Context, store port.KVStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func remove(ctx context.Context, store port.KVStore, key string) error {
	if err := store.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}
