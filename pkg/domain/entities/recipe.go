package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnknownSupplyName is displayed when a recipe line carries no supply name
const UnknownSupplyName = "Unknown"

// RecipeLine is one ingredient of a product's bill of materials. Quantity is
// expressed per single finished unit.
type RecipeLine struct {
	ID         string
	ProductID  ProductID `validate:"required"`
	SupplyID   SupplyID  `validate:"required"`
	SupplyName string
	Quantity   decimal.Decimal
	Unit       string `validate:"required"`
}

// NewRecipeLine creates a validated RecipeLine
func NewRecipeLine(id string, productID ProductID, supplyID SupplyID, supplyName string, quantity decimal.Decimal, unit string) (*RecipeLine, error) {
	line := &RecipeLine{
		ID:         id,
		ProductID:  productID,
		SupplyID:   supplyID,
		SupplyName: supplyName,
		Quantity:   quantity,
		Unit:       unit,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return line, nil
}

// Validate checks a recipe line read from the store
func (l *RecipeLine) Validate() error {
	if err := validateRecord("recipe line", l); err != nil {
		return err
	}
	if !l.Quantity.IsPositive() {
		return fmt.Errorf("%w: recipe line quantity must be positive, got %s", ErrInvalidInput, l.Quantity)
	}
	return nil
}

// DisplayName returns the supply name, or a placeholder when the store left it blank
func (l *RecipeLine) DisplayName() string {
	if l.SupplyName == "" {
		return UnknownSupplyName
	}
	return l.SupplyName
}

// ScaledRequirement is one recipe line multiplied out for a requested quantity
type ScaledRequirement struct {
	ProductID  ProductID
	SupplyID   SupplyID
	SupplyName string
	Unit       string
	Quantity   decimal.Decimal
}
