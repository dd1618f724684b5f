package memory

import (
	"context"
	"sync"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// OrderRepository provides in-memory order storage
type OrderRepository struct {
	mu     sync.RWMutex
	orders []entities.Order
}

// NewOrderRepository creates a new in-memory order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: []entities.Order{},
	}
}

// Verify interface compliance
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// LoadOrders loads orders into the repository
func (r *OrderRepository) LoadOrders(orders []*entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, order := range orders {
		r.orders = append(r.orders, *order)
	}
	return nil
}

// ListOrders returns all orders
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*entities.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*entities.Order, 0, len(r.orders))
	for i := range r.orders {
		order := r.orders[i]
		order.Items = append([]entities.OrderItem(nil), order.Items...)
		orders = append(orders, &order)
	}
	return orders, nil
}
