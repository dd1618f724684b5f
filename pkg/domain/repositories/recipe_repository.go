package repositories

import (
	"context"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// RecipeRepository provides access to product bills of materials
type RecipeRepository interface {
	// GetRecipeByProduct returns the product's recipe lines in authoring order.
	// A product without a configured recipe yields an empty slice, not an error.
	GetRecipeByProduct(ctx context.Context, productID entities.ProductID) ([]*entities.RecipeLine, error)
}
