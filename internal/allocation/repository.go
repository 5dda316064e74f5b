package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"allocationservice/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository gives access to product aggregates by SKU.
type ProductRepository interface {
	Get(ctx context.Context, sku string) (*domain.Product, error)
	Add(ctx context.Context, product *domain.Product) error
}

// MemoryRepository keeps products in process memory. It guards its own map;
// the products it returns are not synchronized.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemoryRepository(products ...*domain.Product) *MemoryRepository {
	r := &MemoryRepository{products: make(map[string]*domain.Product, len(products))}
	for _, p := range products {
		r.products[p.SKU()] = p
	}
	return r
}

func (r *MemoryRepository) Get(_ context.Context, sku string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[sku]
	if !ok {
		return nil, fmt.Errorf("sku %s: %w", sku, ErrProductNotFound)
	}
	return p, nil
}

// Add stores product, replacing any product with the same SKU.
func (r *MemoryRepository) Add(_ context.Context, product *domain.Product) error {
	if product == nil {
		return errors.New("product is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.SKU()] = product
	return nil
}

// Len returns the number of stored products. The container reports it
// after seeding from the stock file.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
