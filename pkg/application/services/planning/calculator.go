package planning

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// Scale multiplies each recipe line by the desired number of finished units.
// Arithmetic is exact; rounding happens only when a plan is presented.
func Scale(lines []entities.RecipeLine, quantity int64) ([]entities.ScaledRequirement, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: desired quantity cannot be negative, got %d", entities.ErrInvalidInput, quantity)
	}

	scaled := make([]entities.ScaledRequirement, 0, len(lines))
	if quantity == 0 {
		return scaled, nil
	}

	multiplier := decimal.NewFromInt(quantity)
	for _, line := range lines {
		scaled = append(scaled, entities.ScaledRequirement{
			ProductID:  line.ProductID,
			SupplyID:   line.SupplyID,
			SupplyName: line.DisplayName(),
			Unit:       line.Unit,
			Quantity:   line.Quantity.Mul(multiplier),
		})
	}
	return scaled, nil
}
