package planning

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// Classify compares aggregated requirements with the snapshot. A supply that
// is missing from the snapshot counts as zero stock. Output follows the
// aggregation order.
func Classify(totals *entities.RequirementTotals, snapshot entities.StockSnapshot) []entities.IngredientRequirement {
	result := make([]entities.IngredientRequirement, 0, totals.Len())

	for _, total := range totals.Totals() {
		ing := entities.IngredientRequirement{
			SupplyID:     total.SupplyID,
			Name:         total.Name,
			Unit:         total.Unit,
			Required:     total.Required,
			Stock:        decimal.Zero,
			UnitConflict: total.UnitConflict,
		}

		if supply, ok := snapshot.Lookup(total.SupplyID); ok {
			ing.Stock = supply.CurrentStock
			ing.Name = supply.Name
		} else {
			ing.Untracked = true
			log.Warn().
				Str("supply_id", string(total.SupplyID)).
				Err(fmt.Errorf("supply %s referenced by a recipe is not in stock: %w", total.SupplyID, entities.ErrInconsistent)).
				Msg("treating untracked supply as zero stock")
		}

		ing.Missing = decimal.Max(decimal.Zero, ing.Required.Sub(ing.Stock))
		if ing.Missing.IsPositive() {
			ing.Status = entities.Short
		} else {
			ing.Status = entities.Covered
		}
		result = append(result, ing)
	}

	return result
}
