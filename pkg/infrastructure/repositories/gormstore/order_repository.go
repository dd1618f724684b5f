package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// OrderRepository reads customer orders from PostgreSQL
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository over db
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// ListOrders returns every order with its items
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*entities.Order, error) {
	var rows []orderModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", mapError(err))
	}

	orders := make([]*entities.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", row.ID, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}
