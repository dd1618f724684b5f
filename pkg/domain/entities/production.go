package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductionRequest asks for Quantity finished units of one product
type ProductionRequest struct {
	ProductID ProductID `json:"product_id" yaml:"product"`
	Quantity  int64     `json:"quantity" yaml:"quantity"`
}

// NewProductionRequest creates a validated ProductionRequest. A zero quantity
// is accepted here; planning drops it from the request set.
func NewProductionRequest(productID ProductID, quantity int64) (*ProductionRequest, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id cannot be empty", ErrInvalidInput)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative, got %d", ErrInvalidInput, quantity)
	}
	return &ProductionRequest{ProductID: productID, Quantity: quantity}, nil
}

// IngredientStatus tells whether stock covers an ingredient's requirement
type IngredientStatus int

const (
	Covered IngredientStatus = iota
	Short
)

// String method for IngredientStatus enum
func (s IngredientStatus) String() string {
	switch s {
	case Covered:
		return "Covered"
	case Short:
		return "Short"
	default:
		return "Unknown"
	}
}

// MarshalText renders the status for JSON and CSV output
func (s IngredientStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IngredientRequirement is the classified requirement for one supply
type IngredientRequirement struct {
	SupplyID SupplyID         `json:"supply_id"`
	Name     string           `json:"name"`
	Unit     string           `json:"unit"`
	Required decimal.Decimal  `json:"required"`
	Stock    decimal.Decimal  `json:"stock"`
	Missing  decimal.Decimal  `json:"missing"`
	Status   IngredientStatus `json:"status"`
	// UnitConflict is set when recipe lines disagreed on the unit; Unit holds the last one seen.
	UnitConflict bool `json:"unit_conflict,omitempty"`
	// Untracked is set when the supply was absent from the stock snapshot.
	Untracked bool `json:"untracked,omitempty"`
}

// IsShort reports whether the ingredient has a positive missing quantity
func (r IngredientRequirement) IsShort() bool {
	return r.Status == Short
}

// RequirementTotal is the aggregated requirement for one supply
type RequirementTotal struct {
	SupplyID     SupplyID
	Name         string
	Unit         string
	Required     decimal.Decimal
	UnitConflict bool
}

// RequirementTotals maps supplies to their aggregated requirement, keeping
// first-seen order so output is deterministic for identical input.
type RequirementTotals struct {
	totals []RequirementTotal
	index  map[SupplyID]int
}

// NewRequirementTotals creates an empty aggregate
func NewRequirementTotals() *RequirementTotals {
	return &RequirementTotals{index: make(map[SupplyID]int)}
}

// Add accumulates a scaled requirement. The last unit seen wins for display.
func (t *RequirementTotals) Add(req ScaledRequirement) {
	i, exists := t.index[req.SupplyID]
	if !exists {
		t.index[req.SupplyID] = len(t.totals)
		t.totals = append(t.totals, RequirementTotal{
			SupplyID: req.SupplyID,
			Name:     req.SupplyName,
			Unit:     req.Unit,
			Required: req.Quantity,
		})
		return
	}

	total := &t.totals[i]
	total.Required = total.Required.Add(req.Quantity)
	if req.Unit != total.Unit {
		total.UnitConflict = true
		total.Unit = req.Unit
	}
	if total.Name == UnknownSupplyName && req.SupplyName != UnknownSupplyName {
		total.Name = req.SupplyName
	}
}

// Get returns the aggregated requirement for a supply
func (t *RequirementTotals) Get(id SupplyID) (RequirementTotal, bool) {
	i, exists := t.index[id]
	if !exists {
		return RequirementTotal{}, false
	}
	return t.totals[i], true
}

// Totals returns a copy of every aggregated requirement in first-seen order
func (t *RequirementTotals) Totals() []RequirementTotal {
	result := make([]RequirementTotal, len(t.totals))
	copy(result, t.totals)
	return result
}

// Len returns the number of distinct supplies
func (t *RequirementTotals) Len() int {
	return len(t.totals)
}
