package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// SupplyRepository provides access to raw-material stock
type SupplyRepository interface {
	ListSupplies(ctx context.Context) ([]*entities.Supply, error)
	// UpdateStock applies a signed adjustment and returns the supply as written.
	// A negative delta is consumption.
	UpdateStock(ctx context.Context, id entities.SupplyID, delta decimal.Decimal) (*entities.Supply, error)
}

// StockTransactor is implemented by stores that can apply several stock
// adjustments as one atomic write. Adjustments carrying an Expected value must
// fail the whole write with entities.ErrCommitConflict when the stock on hand
// differs.
type StockTransactor interface {
	ApplyStockAdjustments(
		ctx context.Context,
		commitID uuid.UUID,
		adjustments []entities.StockAdjustment,
	) ([]entities.StockMovement, error)
}
