package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/port"
)

// ProductRepository keeps every product in one JSON array. Each write
// loads the array, mutates it and stores it back.
type ProductRepository struct {
	store port.KVStore
	key   string
	now   func() time.Time
	mu    sync.Mutex
}

func NewProductRepository(store port.KVStore, keys Keys) *ProductRepository {
	return &ProductRepository{
		store: store,
		key:   keys.Products,
		now:   time.Now,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := loadList[domain.Product](ctx, r.store, r.key)
	if err != nil {
		return err
	}
	if indexOf(products, product.ID) >= 0 {
		return fmt.Errorf("product %s: %w", product.ID, domain.ErrAlreadyExists)
	}

	r.stamp(&product, nil)
	products = append(products, product)

	return saveJSON(ctx, r.store, r.key, products)
}

func (r *ProductRepository) Upsert(ctx context.Context, product domain.Product) error {
	return r.BatchUpsert(ctx, []domain.Product{product})
}

func (r *ProductRepository) BatchUpsert(ctx context.Context, batch []domain.Product) error {
	for _, p := range batch {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := loadList[domain.Product](ctx, r.store, r.key)
	if err != nil {
		return err
	}

	for _, p := range batch {
		if i := indexOf(products, p.ID); i >= 0 {
			r.stamp(&p, &products[i])
			products[i] = p
		} else {
			r.stamp(&p, nil)
			products = append(products, p)
		}
	}

	return saveJSON(ctx, r.store, r.key, products)
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	products, err := loadList[domain.Product](ctx, r.store, r.key)
	if err != nil {
		return nil, err
	}

	i := indexOf(products, id)
	if i < 0 {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	p := products[i]
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := loadList[domain.Product](ctx, r.store, r.key)
	if err != nil {
		return err
	}

	i := indexOf(products, product.ID)
	if i < 0 {
		return fmt.Errorf("product %s: %w", product.ID, domain.ErrNotFound)
	}

	r.stamp(&product, &products[i])
	products[i] = product

	return saveJSON(ctx, r.store, r.key, products)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := loadList[domain.Product](ctx, r.store, r.key)
	if err != nil {
		return err
	}

	i := indexOf(products, id)
	if i < 0 {
		return nil
	}
	products = append(products[:i], products[i+1:]...)

	return saveJSON(ctx, r.store, r.key, products)
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return loadList[domain.Product](ctx, r.store, r.key)
}

func (r *ProductRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return saveJSON(ctx, r.store, r.key, products)
}

func (r *ProductRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return remove(ctx, r.store, r.key)
}

// stamp sets UpdatedAt to now and carries CreatedAt over from the stored
// version when the caller left it zero.
func (r *ProductRepository) stamp(p *domain.Product, existing *domain.Product) {
	now := domain.Millis(r.now())
	if p.CreatedAt == 0 {
		if existing != nil && existing.CreatedAt != 0 {
			p.CreatedAt = existing.CreatedAt
		} else {
			p.CreatedAt = now
		}
	}
	p.UpdatedAt = now
}

func indexOf(products []domain.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
