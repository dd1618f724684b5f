package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplyID identifies a raw material held in stock
type SupplyID string

// Supply is a raw material with its current quantity on hand. CurrentStock may
// be negative after a production run that was confirmed despite a shortage.
type Supply struct {
	ID           SupplyID `validate:"required"`
	Name         string   `validate:"required"`
	CurrentStock decimal.Decimal
	Unit         string `validate:"required"`
	UnitCost     decimal.Decimal
}

// NewSupply creates a validated Supply
func NewSupply(id SupplyID, name string, currentStock decimal.Decimal, unit string, unitCost decimal.Decimal) (*Supply, error) {
	supply := &Supply{
		ID:           id,
		Name:         name,
		CurrentStock: currentStock,
		Unit:         unit,
		UnitCost:     unitCost,
	}
	if err := supply.Validate(); err != nil {
		return nil, err
	}
	return supply, nil
}

// Validate checks a supply record read from the store
func (s *Supply) Validate() error {
	if err := validateRecord("supply", s); err != nil {
		return err
	}
	if s.UnitCost.IsNegative() {
		return fmt.Errorf("%w: supply %s unit cost cannot be negative, got %s", ErrInvalidInput, s.ID, s.UnitCost)
	}
	return nil
}

// StockAdjustment is a signed change to one supply's stock. When Expected is
// set the store must refuse the change unless the stock on hand equals it.
type StockAdjustment struct {
	SupplyID SupplyID
	Delta    decimal.Decimal
	Expected *decimal.Decimal
}

// StockMovement records one applied adjustment for auditing
type StockMovement struct {
	ID        uuid.UUID
	CommitID  uuid.UUID
	SupplyID  SupplyID
	Delta     decimal.Decimal
	Before    decimal.Decimal
	After     decimal.Decimal
	Reason    string
	CreatedAt time.Time
}

// Movement reasons recorded in the stock audit trail
const (
	// MovementReasonProduction marks deductions made by a confirmed production run
	MovementReasonProduction = "production"
	// MovementReasonAdjustment marks single-supply writes, including rollback compensations
	MovementReasonAdjustment = "adjustment"
)

// StockSnapshot is a point-in-time read of every supply. It is never mutated
// after construction.
type StockSnapshot struct {
	TakenAt  time.Time
	supplies map[SupplyID]Supply
	order    []SupplyID
}

// NewStockSnapshot builds a snapshot from a supply listing. Later duplicates of
// the same ID replace earlier ones.
func NewStockSnapshot(supplies []Supply, takenAt time.Time) StockSnapshot {
	snapshot := StockSnapshot{
		TakenAt:  takenAt,
		supplies: make(map[SupplyID]Supply, len(supplies)),
		order:    make([]SupplyID, 0, len(supplies)),
	}
	for _, s := range supplies {
		if _, seen := snapshot.supplies[s.ID]; !seen {
			snapshot.order = append(snapshot.order, s.ID)
		}
		snapshot.supplies[s.ID] = s
	}
	return snapshot
}

// Lookup returns the supply as it was when the snapshot was taken
func (s StockSnapshot) Lookup(id SupplyID) (Supply, bool) {
	supply, ok := s.supplies[id]
	return supply, ok
}

// Supplies returns every supply in listing order
func (s StockSnapshot) Supplies() []Supply {
	result := make([]Supply, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.supplies[id])
	}
	return result
}

// Len returns the number of supplies in the snapshot
func (s StockSnapshot) Len() int {
	return len(s.order)
}
