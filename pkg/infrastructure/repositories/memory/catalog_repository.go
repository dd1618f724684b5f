package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// CatalogRepository provides in-memory product and recipe storage
type CatalogRepository struct {
	mu            sync.RWMutex
	products      []entities.Product
	productsMap   map[entities.ProductID]int
	recipeLines   []entities.RecipeLine
	recipeIndexes map[entities.ProductID][]int
}

// NewCatalogRepository creates a catalog repository sized for the expected data
func NewCatalogRepository(expectedProducts, expectedRecipeLines int) *CatalogRepository {
	return &CatalogRepository{
		products:      make([]entities.Product, 0, expectedProducts),
		productsMap:   make(map[entities.ProductID]int, expectedProducts),
		recipeLines:   make([]entities.RecipeLine, 0, expectedRecipeLines),
		recipeIndexes: make(map[entities.ProductID][]int, expectedProducts),
	}
}

// Verify interface compliance
var _ repositories.ProductRepository = (*CatalogRepository)(nil)
var _ repositories.RecipeRepository = (*CatalogRepository)(nil)

// LoadProducts loads products into the repository
func (r *CatalogRepository) LoadProducts(products []*entities.Product) error {
	for _, product := range products {
		r.AddProduct(*product)
	}
	return nil
}

// LoadRecipeLines loads recipe lines into the repository
func (r *CatalogRepository) LoadRecipeLines(lines []*entities.RecipeLine) error {
	for _, line := range lines {
		r.AddRecipeLine(*line)
	}
	return nil
}

// AddProduct adds or replaces a product
func (r *CatalogRepository) AddProduct(product entities.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.productsMap[product.ID]; exists {
		r.products[index] = product
		return
	}
	r.productsMap[product.ID] = len(r.products)
	r.products = append(r.products, product)
}

// AddRecipeLine appends a recipe line to its product's recipe
func (r *CatalogRepository) AddRecipeLine(line entities.RecipeLine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := len(r.recipeLines)
	r.recipeLines = append(r.recipeLines, line)
	r.recipeIndexes[line.ProductID] = append(r.recipeIndexes[line.ProductID], index)
}

// ListProducts returns every product in insertion order
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*entities.Product, 0, len(r.products))
	for i := range r.products {
		product := r.products[i]
		products = append(products, &product)
	}
	return products, nil
}

// GetProduct returns a product by ID
func (r *CatalogRepository) GetProduct(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.productsMap[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, entities.ErrNotFound)
	}
	product := r.products[index]
	return &product, nil
}

// GetRecipeByProduct returns the recipe lines of a product
func (r *CatalogRepository) GetRecipeByProduct(ctx context.Context, productID entities.ProductID) ([]*entities.RecipeLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes, exists := r.recipeIndexes[productID]
	if !exists {
		return []*entities.RecipeLine{}, nil
	}

	lines := make([]*entities.RecipeLine, 0, len(indexes))
	for _, index := range indexes {
		line := r.recipeLines[index]
		lines = append(lines, &line)
	}
	return lines, nil
}

// GetAllRecipeLines returns every recipe line, for validation and export
func (r *CatalogRepository) GetAllRecipeLines() []entities.RecipeLine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]entities.RecipeLine, len(r.recipeLines))
	copy(lines, r.recipeLines)
	return lines
}
