package dto

import (
	"github.com/google/uuid"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// ProductPlan is one requested product multiplied out over its recipe
type ProductPlan struct {
	ProductID    entities.ProductID           `json:"product_id"`
	Name         string                       `json:"name"`
	Quantity     int64                        `json:"quantity"`
	HasRecipe    bool                         `json:"has_recipe"`
	Requirements []entities.ScaledRequirement `json:"requirements"`
}

// ProductIssue records a product that could not be planned. It does not stop
// the rest of the batch.
type ProductIssue struct {
	ProductID entities.ProductID `json:"product_id"`
	Name      string             `json:"name,omitempty"`
	Err       error              `json:"-"`
	Message   string             `json:"error"`
}

// NewProductIssue builds an issue from a planning error
func NewProductIssue(productID entities.ProductID, name string, err error) ProductIssue {
	return ProductIssue{ProductID: productID, Name: name, Err: err, Message: err.Error()}
}

// ProductionPlan is the derived result of one planning pass. It lives only
// for the planning session and can be confirmed at most once.
type ProductionPlan struct {
	SessionID   uuid.UUID                        `json:"session_id"`
	Requests    []entities.ProductionRequest     `json:"requests"`
	Products    []ProductPlan                    `json:"products"`
	Ingredients []entities.IngredientRequirement `json:"ingredients"`
	Issues      []ProductIssue                   `json:"issues,omitempty"`
	Snapshot    entities.StockSnapshot           `json:"-"`

	confirmed bool
}

// ShortIngredients returns the ingredients whose stock does not cover the requirement
func (p *ProductionPlan) ShortIngredients() []entities.IngredientRequirement {
	var short []entities.IngredientRequirement
	for _, ing := range p.Ingredients {
		if ing.IsShort() {
			short = append(short, ing)
		}
	}
	return short
}

// HasShortage reports whether any ingredient is short
func (p *ProductionPlan) HasShortage() bool {
	for _, ing := range p.Ingredients {
		if ing.IsShort() {
			return true
		}
	}
	return false
}

// Confirmed reports whether the plan has already been committed. Callers that
// race on the same plan must serialize access themselves.
func (p *ProductionPlan) Confirmed() bool {
	return p.confirmed
}

// MarkConfirmed makes the plan single-use
func (p *ProductionPlan) MarkConfirmed() {
	p.confirmed = true
}
