package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/port"
)

type BackupStore struct {
	store port.KVStore
	keys  Keys
}

func NewBackupStore(store port.KVStore, keys Keys) *BackupStore {
	return &BackupStore{store: store, keys: keys}
}

func (b *BackupStore) Save(ctx context.Context, backup domain.Backup) error {
	if backup.Products == nil {
		backup.Products = []domain.Product{}
	}
	if backup.Records == nil {
		backup.Records = []domain.InventoryRecord{}
	}

	if err := saveJSON(ctx, b.store, b.keys.Backup, backup); err != nil {
		return err
	}

	date := backup.Timestamp.UTC().Format(time.RFC3339Nano)
	if err := b.store.Set(ctx, b.keys.LastBackupDate, date); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (b *BackupStore) Load(ctx context.Context) (*domain.Backup, error) {
	raw, found, err := b.store.Get(ctx, b.keys.Backup)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if !found || raw == "" {
		return nil, domain.ErrNoBackupAvailable
	}

	var backup domain.Backup
	if err := json.Unmarshal([]byte(raw), &backup); err != nil {
		return nil, fmt.Errorf("%w: decode backup: %w", domain.ErrStorageUnavailable, err)
	}
	return &backup, nil
}

func (b *BackupStore) LastBackupDate(ctx context.Context) (time.Time, bool, error) {
	raw, found, err := b.store.Get(ctx, b.keys.LastBackupDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if !found || raw == "" {
		return time.Time{}, false, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: parse last backup date %q: %w", domain.ErrStorageUnavailable, raw, err)
	}
	return t, true, nil
}

func (b *BackupStore) Clear(ctx context.Context) error {
	if err := remove(ctx, b.store, b.keys.Backup); err != nil {
		return err
	}
	return remove(ctx, b.store, b.keys.LastBackupDate)
}
