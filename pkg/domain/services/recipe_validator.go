package services

import (
	"fmt"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// RecipeValidator checks recipe data against the catalog and the supply list
// at authoring/load time, so planning does not have to trust units blindly.
type RecipeValidator struct{}

// NewRecipeValidator creates a new recipe validator
func NewRecipeValidator() *RecipeValidator {
	return &RecipeValidator{}
}

// UnitMismatch is a recipe line whose unit differs from the supply's stock unit
type UnitMismatch struct {
	ProductID  entities.ProductID
	SupplyID   entities.SupplyID
	RecipeUnit string
	StockUnit  string
}

// ValidationResult contains the results of recipe validation
type ValidationResult struct {
	UnitMismatches   []UnitMismatch
	DuplicateLines   []entities.RecipeLine
	OrphanedSupplies []entities.SupplyID
	OrphanedProducts []entities.ProductID
	ProductsNoRecipe []entities.ProductID
	Errors           []string
	Warnings         []string
}

// IsValid reports whether validation found no errors. Warnings do not count.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateRecipes cross-checks recipe lines, products and supplies.
//
// Errors: lines referencing unknown products or supplies, and duplicate
// (product, supply) pairs. Warnings: unit mismatches against the stock unit and
// active products with no recipe.
func (v *RecipeValidator) ValidateRecipes(
	lines []entities.RecipeLine,
	products []entities.Product,
	supplies []entities.Supply,
) *ValidationResult {
	result := &ValidationResult{
		UnitMismatches:   make([]UnitMismatch, 0),
		DuplicateLines:   make([]entities.RecipeLine, 0),
		OrphanedSupplies: make([]entities.SupplyID, 0),
		OrphanedProducts: make([]entities.ProductID, 0),
		ProductsNoRecipe: make([]entities.ProductID, 0),
		Errors:           make([]string, 0),
		Warnings:         make([]string, 0),
	}

	productSet := make(map[entities.ProductID]bool, len(products))
	for _, p := range products {
		productSet[p.ID] = true
	}
	supplyByID := make(map[entities.SupplyID]entities.Supply, len(supplies))
	for _, s := range supplies {
		supplyByID[s.ID] = s
	}

	type lineKey struct {
		product entities.ProductID
		supply  entities.SupplyID
	}
	seen := make(map[lineKey]bool, len(lines))
	orphanSupplySeen := make(map[entities.SupplyID]bool)
	orphanProductSeen := make(map[entities.ProductID]bool)
	withRecipe := make(map[entities.ProductID]bool)

	for _, line := range lines {
		withRecipe[line.ProductID] = true

		key := lineKey{line.ProductID, line.SupplyID}
		if seen[key] {
			result.DuplicateLines = append(result.DuplicateLines, line)
		}
		seen[key] = true

		if !productSet[line.ProductID] && !orphanProductSeen[line.ProductID] {
			orphanProductSeen[line.ProductID] = true
			result.OrphanedProducts = append(result.OrphanedProducts, line.ProductID)
		}

		supply, exists := supplyByID[line.SupplyID]
		if !exists {
			if !orphanSupplySeen[line.SupplyID] {
				orphanSupplySeen[line.SupplyID] = true
				result.OrphanedSupplies = append(result.OrphanedSupplies, line.SupplyID)
			}
			continue
		}

		if supply.Unit != line.Unit {
			result.UnitMismatches = append(result.UnitMismatches, UnitMismatch{
				ProductID:  line.ProductID,
				SupplyID:   line.SupplyID,
				RecipeUnit: line.Unit,
				StockUnit:  supply.Unit,
			})
		}
	}

	for _, p := range products {
		if p.Active && !withRecipe[p.ID] {
			result.ProductsNoRecipe = append(result.ProductsNoRecipe, p.ID)
		}
	}

	for _, id := range result.OrphanedProducts {
		result.Errors = append(result.Errors, fmt.Sprintf("recipe references unknown product %s", id))
	}
	for _, id := range result.OrphanedSupplies {
		result.Errors = append(result.Errors, fmt.Sprintf("recipe references unknown supply %s", id))
	}
	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d duplicate recipe lines", len(result.DuplicateLines)))
	}
	for _, m := range result.UnitMismatches {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"product %s uses %s in %s but stock is kept in %s", m.ProductID, m.SupplyID, m.RecipeUnit, m.StockUnit))
	}
	for _, id := range result.ProductsNoRecipe {
		result.Warnings = append(result.Warnings, fmt.Sprintf("active product %s has no recipe", id))
	}

	return result
}
