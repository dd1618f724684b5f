package planning

import (
	"github.com/rs/zerolog/log"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// Aggregate sums scaled requirements per supply across every planned product.
// Totals do not depend on product order. When recipe lines disagree on a
// supply's unit the quantities are still summed and the last unit seen is kept.
func Aggregate(products []dto.ProductPlan) *entities.RequirementTotals {
	totals := entities.NewRequirementTotals()
	for _, product := range products {
		for _, req := range product.Requirements {
			totals.Add(req)
		}
	}

	for _, total := range totals.Totals() {
		if total.UnitConflict {
			log.Warn().
				Str("supply_id", string(total.SupplyID)).
				Str("unit", total.Unit).
				Msg("recipes disagree on unit; quantities were summed without conversion")
		}
	}
	return totals
}
