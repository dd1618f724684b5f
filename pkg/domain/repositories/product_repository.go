package repositories

import (
	"context"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// ProductRepository provides access to the product catalog
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]*entities.Product, error)
	// GetProduct returns an error wrapping entities.ErrNotFound for unknown IDs.
	GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error)
}
