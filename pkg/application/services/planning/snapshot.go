package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// TakeSnapshot reads every supply in a single listing call. Malformed supply
// records fail the snapshot rather than feeding bad numbers into a plan.
func TakeSnapshot(ctx context.Context, supplies repositories.SupplyRepository, takenAt time.Time) (entities.StockSnapshot, error) {
	listed, err := supplies.ListSupplies(ctx)
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("failed to read stock snapshot: %w", err)
	}

	valid := make([]entities.Supply, 0, len(listed))
	for i, s := range listed {
		if s == nil {
			return entities.StockSnapshot{}, fmt.Errorf("%w: supply listing has an empty record at position %d", entities.ErrInvalidInput, i+1)
		}
		if err := s.Validate(); err != nil {
			return entities.StockSnapshot{}, fmt.Errorf("stock snapshot: %w", err)
		}
		valid = append(valid, *s)
	}
	return entities.NewStockSnapshot(valid, takenAt), nil
}
