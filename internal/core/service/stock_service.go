package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/port"
)

const (
	noteProductCreated = "product created"
	noteProductUpdated = "product updated"
)

type SortOrder string

const (
	SortNewest SortOrder = "desc"
	SortOldest SortOrder = "asc"
)

type ProductQuery struct {
	Search   string // substring of id or name, case-insensitive
	Category string
	Order    SortOrder
}

// StockService owns every operation that touches both the product
// collection and the ledger. Composite operations are serialized.
type StockService struct {
	products port.ProductRepository
	ledger   port.InventoryLedger
	now      func() time.Time
	mu       sync.Mutex
}

func NewStockService(products port.ProductRepository, ledger port.InventoryLedger) *StockService {
	return &StockService{
		products: products,
		ledger:   ledger,
		now:      time.Now,
	}
}

// GetStock folds the product's ledger entries. This is the authoritative
// stock figure; Product.Quantity is only a cache of it.
func (s *StockService) GetStock(ctx context.Context, productID string) (int, error) {
	records, err := s.ledger.ListByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	lvl := domain.NewStockLevel(productID)
	lvl.Replay(records)
	return lvl.Current, nil
}

func (s *StockService) RecordMovement(ctx context.Context, productID string, quantity int, typ domain.MovementType, note string) (int, error) {
	if productID == "" {
		return 0, fmt.Errorf("%w: id is required", domain.ErrInvalidProduct)
	}
	if err := domain.ValidateMovement(typ, quantity); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.Get(ctx, productID)
	exists := true
	if errors.Is(err, domain.ErrNotFound) {
		exists = false
	} else if err != nil {
		return 0, fmt.Errorf("load product: %w", err)
	}

	if !exists {
		if typ != domain.MovementIn {
			return 0, fmt.Errorf("%s %s: %w", typ, productID, domain.ErrProductNotFound)
		}
		product = &domain.Product{ID: productID}
	}

	switch typ {
	case domain.MovementIn:
		product.Quantity += quantity
	case domain.MovementOut:
		if product.Quantity < quantity {
			return 0, fmt.Errorf("out %d of %s with %d on hand: %w", quantity, productID, product.Quantity, domain.ErrInsufficientStock)
		}
		product.Quantity -= quantity
	case domain.MovementEdit:
		product.Quantity = quantity
	}

	if exists {
		err = s.products.Update(ctx, *product)
	} else {
		err = s.products.Create(ctx, *product)
	}
	if err != nil {
		return 0, fmt.Errorf("save product: %w", err)
	}

	_, err = s.ledger.Append(ctx, domain.InventoryRecord{
		ProductID: productID,
		Quantity:  quantity,
		Type:      typ,
		Note:      note,
		Timestamp: domain.Millis(s.now()),
	})
	if err != nil {
		// The product already carries the new quantity; Reconcile repairs it.
		log.Printf("[stock] ledger append failed after updating %s, quantity cache diverged: %v", productID, err)
		return 0, fmt.Errorf("append record: %w", err)
	}

	return product.Quantity, nil
}

// CreateProduct inserts a product. A nonzero opening quantity is recorded
// as an edit so the ledger agrees with the cache.
func (s *StockService) CreateProduct(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.products.Create(ctx, product); err != nil {
		return err
	}
	if product.Quantity == 0 {
		return nil
	}
	return s.recordEdit(ctx, product.ID, product.Quantity, noteProductCreated)
}

// SaveProduct replaces a product's fields, inserting it when upsert is set.
// A quantity change is recorded as an edit.
func (s *StockService) SaveProduct(ctx context.Context, product domain.Product, upsert bool) error {
	if err := product.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.products.Get(ctx, product.ID)
	exists := true
	if errors.Is(err, domain.ErrNotFound) {
		if !upsert {
			return err
		}
		exists = false
	} else if err != nil {
		return fmt.Errorf("load product: %w", err)
	}

	if exists {
		err = s.products.Update(ctx, product)
	} else {
		err = s.products.Upsert(ctx, product)
	}
	if err != nil {
		return err
	}

	if exists && existing.Quantity == product.Quantity {
		return nil
	}
	if !exists && product.Quantity == 0 {
		return nil
	}
	return s.recordEdit(ctx, product.ID, product.Quantity, noteProductUpdated)
}

// SaveProducts upserts a batch in one write, then records an edit for every
// quantity that changed. Later entries for the same id win.
func (s *StockService) SaveProducts(ctx context.Context, batch []domain.Product) error {
	for _, p := range batch {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.products.List(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	quantities := make(map[string]int, len(current))
	for _, p := range current {
		quantities[p.ID] = p.Quantity
	}

	if err := s.products.BatchUpsert(ctx, batch); err != nil {
		return err
	}

	for _, p := range batch {
		prev, ok := quantities[p.ID]
		quantities[p.ID] = p.Quantity
		if (ok && prev == p.Quantity) || (!ok && p.Quantity == 0) {
			continue
		}
		if err := s.recordEdit(ctx, p.ID, p.Quantity, noteProductUpdated); err != nil {
			return err
		}
	}
	return nil
}

// Locker is the lock serializing composite writes. Services that rewrite
// products and ledger together share it.
func (s *StockService) Locker() sync.Locker {
	return &s.mu
}

func (s *StockService) recordEdit(ctx context.Context, productID string, quantity int, note string) error {
	_, err := s.ledger.Append(ctx, domain.InventoryRecord{
		ProductID: productID,
		Quantity:  quantity,
		Type:      domain.MovementEdit,
		Note:      note,
		Timestamp: domain.Millis(s.now()),
	})
	if err != nil {
		log.Printf("[stock] ledger append failed after writing %s, quantity cache diverged: %v", productID, err)
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Reconcile overwrites the cached quantity with the ledger-derived stock.
func (s *StockService) Reconcile(ctx context.Context, productID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.Get(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("reconcile %s: %w", productID, domain.ErrProductNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("load product: %w", err)
	}

	stock, err := s.GetStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	stock = clampStock(productID, stock)

	if product.Quantity == stock {
		return stock, nil
	}

	log.Printf("[stock] reconcile %s: cached %d, ledger %d", productID, product.Quantity, stock)
	product.Quantity = stock
	if err := s.products.Update(ctx, *product); err != nil {
		return 0, fmt.Errorf("save product: %w", err)
	}
	return stock, nil
}

// ReconcileAll repairs every product in one ledger pass and returns how
// many were out of sync.
func (s *StockService) ReconcileAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	stock := domain.StockByProduct(records)
	fixed := 0
	for _, p := range products {
		want := clampStock(p.ID, stock[p.ID])
		if p.Quantity == want {
			continue
		}
		p.Quantity = want
		if err := s.products.Update(ctx, p); err != nil {
			return fixed, fmt.Errorf("save product %s: %w", p.ID, err)
		}
		fixed++
	}

	if fixed > 0 {
		log.Printf("[stock] reconciled %d of %d products", fixed, len(products))
	}
	return fixed, nil
}

func (s *StockService) History(ctx context.Context, productID string) ([]domain.InventoryRecord, error) {
	return s.ledger.ListByProduct(ctx, productID)
}

func (s *StockService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := ""
	if q.Category != "" {
		category = slug.Make(q.Category)
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.ID), search) &&
			!strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if category != "" && slug.Make(p.Category) != category {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Order == SortOldest {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

// ListWithStock attaches the ledger-derived stock to each matching product.
func (s *StockService) ListWithStock(ctx context.Context, q ProductQuery) ([]domain.ProductWithStock, error) {
	products, err := s.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	stock := domain.StockByProduct(records)
	out := make([]domain.ProductWithStock, 0, len(products))
	for _, p := range products {
		out = append(out, domain.ProductWithStock{Product: p, CurrentStock: stock[p.ID]})
	}
	return out, nil
}

func clampStock(productID string, stock int) int {
	if stock < 0 {
		log.Printf("[stock] ledger for %s folds to %d, clamping cache to 0", productID, stock)
		return 0
	}
	return stock
}
