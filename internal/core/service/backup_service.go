package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/port"
)

const backupMaxAge = 24 * time.Hour

// BackupService keeps a single backup slot holding the product collection
// and the ledger. Restoring is destructive.
type BackupService struct {
	products port.ProductRepository
	ledger   port.InventoryLedger
	backups  port.BackupStore
	lock     sync.Locker
	now      func() time.Time
}

// NewBackupService takes the lock that serializes stock movements so a
// backup never sees a movement half applied. A nil lock gets a private one.
func NewBackupService(products port.ProductRepository, ledger port.InventoryLedger, backups port.BackupStore, lock sync.Locker) *BackupService {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &BackupService{
		products: products,
		ledger:   ledger,
		backups:  backups,
		lock:     lock,
		now:      time.Now,
	}
}

func (s *BackupService) CreateBackup(ctx context.Context) (*domain.Backup, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	backup := domain.Backup{
		Products:  products,
		Records:   records,
		Timestamp: s.now().UTC(),
	}
	if err := s.backups.Save(ctx, backup); err != nil {
		return nil, fmt.Errorf("save backup: %w", err)
	}

	log.Printf("[backup] saved %d products, %d records", len(products), len(records))
	return &backup, nil
}

func (s *BackupService) RestoreFromBackup(ctx context.Context) (*domain.Backup, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	backup, err := s.backups.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.products.ReplaceAll(ctx, backup.Products); err != nil {
		return nil, fmt.Errorf("restore products: %w", err)
	}
	if err := s.ledger.ReplaceAll(ctx, backup.Records); err != nil {
		log.Printf("[backup] products restored but ledger restore failed: %v", err)
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	log.Printf("[backup] restored backup from %s", backup.Timestamp.Format(time.RFC3339))
	return backup, nil
}

func (s *BackupService) LastBackupDate(ctx context.Context) (time.Time, bool, error) {
	return s.backups.LastBackupDate(ctx)
}

// ShouldBackup is true when there is no backup or the last one is more than
// a day old.
func (s *BackupService) ShouldBackup(ctx context.Context) (bool, error) {
	last, ok, err := s.backups.LastBackupDate(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return s.now().Sub(last) > backupMaxAge, nil
}

// ClearAllData removes products, ledger and backup.
func (s *BackupService) ClearAllData(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.products.Clear(ctx); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	if err := s.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	if err := s.backups.Clear(ctx); err != nil {
		return fmt.Errorf("clear backup: %w", err)
	}
	log.Println("[backup] all data cleared")
	return nil
}

// Run checks every interval whether a backup is due and takes one.
func (s *BackupService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.backupIfDue(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *BackupService) backupIfDue(ctx context.Context) {
	due, err := s.ShouldBackup(ctx)
	if err != nil {
		log.Printf("[backup] check failed: %v", err)
		return
	}
	if !due {
		return
	}
	if _, err := s.CreateBackup(ctx); err != nil {
		log.Printf("[backup] scheduled backup failed: %v", err)
	}
}
