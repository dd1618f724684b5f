package repositories

import (
	"context"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// OrderRepository provides access to customer orders
type OrderRepository interface {
	ListOrders(ctx context.Context) ([]*entities.Order, error)
}
