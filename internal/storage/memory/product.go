// Package memory provides in-memory repository adapters. They back the unit
// tests and the database-less demo mode, and honor the same contracts as the
// postgres adapters, including per-product reservation atomicity.
package memory

import (
	"context"
	"sync"

	"github.com/soni-790/storefront-api/internal/domain/product"
)

// productEntry pairs a product with its own lock so reservations on one
// product never serialize operations on another.
type productEntry struct {
	mu sync.Mutex
	p  product.Product
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository is an in-memory catalog and inventory ledger.
type ProductRepository struct {
	mu      sync.RWMutex // guards the map itself, not product state
	entries map[string]*productEntry
	order   []string // insertion order, newest first for List
}

// NewProductRepository returns an empty in-memory product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{entries: map[string]*productEntry{}}
}

// Put inserts or replaces a product.
func (r *ProductRepository) Put(p product.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[p.ID]; !ok {
		r.order = append([]string{p.ID}, r.order...)
	}
	r.entries[p.ID] = &productEntry{p: p}
}

func (r *ProductRepository) entry(id string) (*productEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// List returns one page of products in newest-first order plus the total count.
func (r *ProductRepository) List(_ context.Context, page, limit int) ([]product.Product, int, error) {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	start := (page - 1) * limit
	if start > len(ids) {
		start = len(ids)
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	out := make([]product.Product, 0, end-start)
	for _, id := range ids[start:end] {
		if e, ok := r.entry(id); ok {
			e.mu.Lock()
			out = append(out, e.p)
			e.mu.Unlock()
		}
	}
	return out, len(ids), nil
}

// GetByID returns a copy of the product.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, product.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	clone := e.p
	return &clone, nil
}

// Reserve decrements stock by qty under the product's lock, so the stock check
// and the write are one atomic step.
func (r *ProductRepository) Reserve(_ context.Context, id string, qty int) (*product.Product, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, product.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.Stock < qty {
		return nil, &product.InsufficientStockError{Title: e.p.Title, Available: e.p.Stock}
	}
	e.p.Stock -= qty
	e.p.Availability = product.AvailabilityForStock(e.p.Stock)
	clone := e.p
	return &clone, nil
}

// Release returns qty units to stock under the product's lock.
func (r *ProductRepository) Release(_ context.Context, id string, qty int) (*product.Product, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, product.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.p.Stock += qty
	e.p.Availability = product.AvailabilityForStock(e.p.Stock)
	clone := e.p
	return &clone, nil
}
