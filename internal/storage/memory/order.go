package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/soni-790/storefront-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is an in-memory order store. Orders are cloned on every read
// and write so a stored aggregate can never be mutated through a returned
// pointer.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewOrderRepository returns an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: map[string]*order.Order{}}
}

// Create stores a clone of the order.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

// FindByID returns a clone of the stored order.
func (r *OrderRepository) FindByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

// FindByUser returns one page of the user's orders, newest first.
func (r *OrderRepository) FindByUser(_ context.Context, userID string, filter order.ListFilter) ([]order.Order, int, error) {
	r.mu.RLock()
	var matched []*order.Order
	for _, o := range r.orders {
		if o.UserID == userID && (filter.Status == "" || o.Status == filter.Status) {
			matched = append(matched, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]order.Order, 0, end-start)
	for _, o := range matched[start:end] {
		page = append(page, *cloneOrder(o))
	}
	return page, len(matched), nil
}

// Update replaces the stored order with a clone of o.
func (r *OrderRepository) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func cloneOrder(o *order.Order) *order.Order {
	clone := *o
	clone.Items = make([]order.LineItem, len(o.Items))
	copy(clone.Items, o.Items)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		clone.DeliveredAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		clone.CancelledAt = &t
	}
	return &clone
}
