package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps placed orders in memory.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]order.Order)}
}

// Create implements order.Repository. Order numbers must be unique.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.orders[o.Number]; dup {
		return errors.Errorf("order %s already exists", o.Number)
	}
	r.orders[o.Number] = *o
	return nil
}

// ByNumber implements order.Repository.
func (r *OrderRepository) ByNumber(_ context.Context, number string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[number]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}
