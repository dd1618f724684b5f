package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// SupplyRepository provides in-memory stock storage with atomic multi-supply
// adjustments
type SupplyRepository struct {
	mu          sync.RWMutex
	supplies    []entities.Supply
	suppliesMap map[entities.SupplyID]int
	movements   []entities.StockMovement
	now         func() time.Time
}

// NewSupplyRepository creates a new in-memory supply repository
func NewSupplyRepository() *SupplyRepository {
	return &SupplyRepository{
		supplies:    []entities.Supply{},
		suppliesMap: make(map[entities.SupplyID]int),
		movements:   []entities.StockMovement{},
		now:         time.Now,
	}
}

// Verify interface compliance
var _ repositories.SupplyRepository = (*SupplyRepository)(nil)
var _ repositories.StockTransactor = (*SupplyRepository)(nil)

// LoadSupplies loads supplies into the repository
func (r *SupplyRepository) LoadSupplies(supplies []*entities.Supply) error {
	for _, supply := range supplies {
		r.AddSupply(*supply)
	}
	return nil
}

// AddSupply adds or replaces a supply
func (r *SupplyRepository) AddSupply(supply entities.Supply) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.suppliesMap[supply.ID]; exists {
		r.supplies[index] = supply
		return
	}
	r.suppliesMap[supply.ID] = len(r.supplies)
	r.supplies = append(r.supplies, supply)
}

// ListSupplies returns every supply under a single read lock, so the listing
// is one coherent point in time
func (r *SupplyRepository) ListSupplies(ctx context.Context) ([]*entities.Supply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	supplies := make([]*entities.Supply, 0, len(r.supplies))
	for i := range r.supplies {
		supply := r.supplies[i]
		supplies = append(supplies, &supply)
	}
	return supplies, nil
}

// GetSupply returns a supply by ID
func (r *SupplyRepository) GetSupply(id entities.SupplyID) (*entities.Supply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.suppliesMap[id]
	if !exists {
		return nil, fmt.Errorf("supply %s: %w", id, entities.ErrNotFound)
	}
	supply := r.supplies[index]
	return &supply, nil
}

// UpdateStock applies a signed delta to one supply and records it as an
// adjustment movement with no commit ID
func (r *SupplyRepository) UpdateStock(ctx context.Context, id entities.SupplyID, delta decimal.Decimal) (*entities.Supply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.suppliesMap[id]
	if !exists {
		return nil, fmt.Errorf("supply %s: %w", id, entities.ErrNotFound)
	}
	supply := &r.supplies[index]
	before := supply.CurrentStock
	supply.CurrentStock = before.Add(delta)
	r.movements = append(r.movements, entities.StockMovement{
		ID:        uuid.New(),
		CommitID:  uuid.Nil,
		SupplyID:  id,
		Delta:     delta,
		Before:    before,
		After:     supply.CurrentStock,
		Reason:    entities.MovementReasonAdjustment,
		CreatedAt: r.now(),
	})

	updated := *supply
	return &updated, nil
}

// ApplyStockAdjustments validates every adjustment first and only then writes
// all of them, so either every supply changes or none does.
func (r *SupplyRepository) ApplyStockAdjustments(
	ctx context.Context,
	commitID uuid.UUID,
	adjustments []entities.StockAdjustment,
) ([]entities.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	indexes := make([]int, len(adjustments))
	for i, adj := range adjustments {
		index, exists := r.suppliesMap[adj.SupplyID]
		if !exists {
			return nil, fmt.Errorf("supply %s: %w", adj.SupplyID, entities.ErrNotFound)
		}
		current := r.supplies[index].CurrentStock
		if adj.Expected != nil && !current.Equal(*adj.Expected) {
			return nil, fmt.Errorf("supply %s stock is %s, expected %s: %w",
				adj.SupplyID, current, adj.Expected, entities.ErrCommitConflict)
		}
		indexes[i] = index
	}

	createdAt := r.now()
	movements := make([]entities.StockMovement, 0, len(adjustments))
	for i, adj := range adjustments {
		supply := &r.supplies[indexes[i]]
		before := supply.CurrentStock
		supply.CurrentStock = before.Add(adj.Delta)
		movements = append(movements, entities.StockMovement{
			ID:        uuid.New(),
			CommitID:  commitID,
			SupplyID:  adj.SupplyID,
			Delta:     adj.Delta,
			Before:    before,
			After:     supply.CurrentStock,
			Reason:    entities.MovementReasonProduction,
			CreatedAt: createdAt,
		})
	}
	r.movements = append(r.movements, movements...)

	return movements, nil
}

// GetMovements returns the audit trail of applied adjustments
func (r *SupplyRepository) GetMovements() []entities.StockMovement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	movements := make([]entities.StockMovement, len(r.movements))
	copy(movements, r.movements)
	return movements
}
