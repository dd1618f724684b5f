package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// CatalogRepository reads products and recipes from PostgreSQL
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a catalog repository over db
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Verify interface compliance
var _ repositories.ProductRepository = (*CatalogRepository)(nil)
var _ repositories.RecipeRepository = (*CatalogRepository)(nil)

// ListProducts returns every product ordered by ID
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	var rows []productModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", mapError(err))
	}

	products := make([]*entities.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toEntity()
	}
	return products, nil
}

// GetProduct returns a product by ID
func (r *CatalogRepository) GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	var row productModel
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).Take(&row).Error; err != nil {
		return nil, fmt.Errorf("product %s: %w", id, mapError(err))
	}
	return row.toEntity(), nil
}

// GetRecipeByProduct returns a product's recipe lines in authoring order
func (r *CatalogRepository) GetRecipeByProduct(ctx context.Context, productID entities.ProductID) ([]*entities.RecipeLine, error) {
	var rows []recipeLineModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", string(productID)).
		Order("position, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe for %s: %w", productID, mapError(err))
	}

	lines := make([]*entities.RecipeLine, len(rows))
	for i, row := range rows {
		lines[i] = row.toEntity()
	}
	return lines, nil
}
