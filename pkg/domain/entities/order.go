package entities

import (
	"fmt"
	"strings"
)

// OrderStatus represents where a customer order is in its lifecycle
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderDelivered
	OrderCancelled
)

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderDelivered:
		return "Delivered"
	case OrderCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseOrderStatus accepts the English names and the legacy Spanish ones
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendiente":
		return OrderPending, nil
	case "delivered", "entregado":
		return OrderDelivered, nil
	case "cancelled", "canceled", "cancelado":
		return OrderCancelled, nil
	default:
		return 0, fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
	}
}

// OrderItem is one line of a customer order. Orders reference products by
// display name, not by ID.
type OrderItem struct {
	ProductName string `json:"product"`
	Quantity    int64  `json:"quantity"`
}

// Order is a customer order that production may be planned against
type Order struct {
	ID       string
	Customer string
	Status   OrderStatus
	Items    []OrderItem
}

// NewOrder creates a validated Order
func NewOrder(id, customer string, status OrderStatus, items []OrderItem) (*Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: order id cannot be empty", ErrInvalidInput)
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, fmt.Errorf("%w: order %s item %d has no product", ErrInvalidInput, id, i+1)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: order %s item %d quantity must be positive, got %d", ErrInvalidInput, id, i+1, item.Quantity)
		}
	}
	return &Order{ID: id, Customer: customer, Status: status, Items: items}, nil
}

// IsPending reports whether the order still needs to be produced
func (o *Order) IsPending() bool {
	return o.Status == OrderPending
}
