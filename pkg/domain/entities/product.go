package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID identifies a finished good in the catalog
type ProductID string

// Product is a catalog entry. Only active products take part in planning.
type Product struct {
	ID             ProductID `validate:"required"`
	Name           string    `validate:"required"`
	SalePrice      decimal.Decimal
	ProductionCost decimal.Decimal
	Active         bool
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, name string, salePrice, productionCost decimal.Decimal, active bool) (*Product, error) {
	product := &Product{
		ID:             id,
		Name:           name,
		SalePrice:      salePrice,
		ProductionCost: productionCost,
		Active:         active,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate checks a product record read from the store
func (p *Product) Validate() error {
	if err := validateRecord("product", p); err != nil {
		return err
	}
	if p.SalePrice.IsNegative() {
		return fmt.Errorf("%w: product %s sale price cannot be negative, got %s", ErrInvalidInput, p.ID, p.SalePrice)
	}
	if p.ProductionCost.IsNegative() {
		return fmt.Errorf("%w: product %s production cost cannot be negative, got %s", ErrInvalidInput, p.ID, p.ProductionCost)
	}
	return nil
}
