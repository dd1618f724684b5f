package gormstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// SupplyRepository stores stock in PostgreSQL. Every write locks the affected
// rows and leaves an audit row in stock_movements.
type SupplyRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSupplyRepository creates a supply repository over db
func NewSupplyRepository(db *gorm.DB) *SupplyRepository {
	return &SupplyRepository{db: db, now: time.Now}
}

// Verify interface compliance
var _ repositories.SupplyRepository = (*SupplyRepository)(nil)
var _ repositories.StockTransactor = (*SupplyRepository)(nil)

// ListSupplies reads every supply in one statement, which PostgreSQL answers
// from a single snapshot
func (r *SupplyRepository) ListSupplies(ctx context.Context) ([]*entities.Supply, error) {
	var rows []supplyModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list supplies: %w", mapError(err))
	}

	supplies := make([]*entities.Supply, len(rows))
	for i, row := range rows {
		supplies[i] = row.toEntity()
	}
	return supplies, nil
}

// UpdateStock applies a signed delta to one supply
func (r *SupplyRepository) UpdateStock(ctx context.Context, id entities.SupplyID, delta decimal.Decimal) (*entities.Supply, error) {
	var updated *entities.Supply
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movement, row, err := r.adjust(tx, uuid.Nil, entities.StockAdjustment{SupplyID: id, Delta: delta}, entities.MovementReasonAdjustment)
		if err != nil {
			return err
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", mapError(err))
		}
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// ApplyStockAdjustments writes every adjustment in one transaction. Rows are
// locked in ID order so concurrent commits cannot deadlock each other.
func (r *SupplyRepository) ApplyStockAdjustments(
	ctx context.Context,
	commitID uuid.UUID,
	adjustments []entities.StockAdjustment,
) ([]entities.StockMovement, error) {
	ordered := lockOrder(adjustments)
	bySupply := make(map[entities.SupplyID]stockMovementModel, len(ordered))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]stockMovementModel, 0, len(ordered))
		for _, adj := range ordered {
			movement, _, err := r.adjust(tx, commitID, adj, entities.MovementReasonProduction)
			if err != nil {
				return err
			}
			rows = append(rows, movement)
			bySupply[adj.SupplyID] = movement
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to record stock movements: %w", mapError(err))
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	movements := make([]entities.StockMovement, 0, len(adjustments))
	for _, adj := range adjustments {
		movements = append(movements, bySupply[adj.SupplyID].toEntity())
	}
	return movements, nil
}

// lockOrder returns a copy of adjustments sorted by supply ID, the order in
// which their rows are locked
func lockOrder(adjustments []entities.StockAdjustment) []entities.StockAdjustment {
	ordered := append([]entities.StockAdjustment(nil), adjustments...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SupplyID < ordered[j].SupplyID })
	return ordered
}

// Movements returns the audit rows of one commit
func (r *SupplyRepository) Movements(ctx context.Context, commitID uuid.UUID) ([]entities.StockMovement, error) {
	var rows []stockMovementModel
	err := r.db.WithContext(ctx).Where("commit_id = ?", commitID).Order("supply_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", mapError(err))
	}
	movements := make([]entities.StockMovement, len(rows))
	for i, row := range rows {
		movements[i] = row.toEntity()
	}
	return movements, nil
}

// adjust locks one supply row, checks the expected stock and writes the new
// value. It returns the movement to record without inserting it.
func (r *SupplyRepository) adjust(
	tx *gorm.DB,
	commitID uuid.UUID,
	adj entities.StockAdjustment,
	reason string,
) (stockMovementModel, supplyModel, error) {
	var row supplyModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", string(adj.SupplyID)).
		Take(&row).Error
	if err != nil {
		return stockMovementModel{}, row, fmt.Errorf("supply %s: %w", adj.SupplyID, mapError(err))
	}

	before := row.CurrentStock
	if adj.Expected != nil && !before.Equal(*adj.Expected) {
		return stockMovementModel{}, row, fmt.Errorf("supply %s stock is %s, expected %s: %w",
			adj.SupplyID, before, adj.Expected, entities.ErrCommitConflict)
	}

	row.CurrentStock = before.Add(adj.Delta)
	err = tx.Model(&supplyModel{}).
		Where("id = ?", row.ID).
		Update("current_stock", row.CurrentStock).Error
	if err != nil {
		return stockMovementModel{}, row, fmt.Errorf("failed to update supply %s: %w", adj.SupplyID, mapError(err))
	}

	return stockMovementModel{
		ID:        uuid.New(),
		CommitID:  commitID,
		SupplyID:  row.ID,
		Delta:     adj.Delta,
		Before:    before,
		After:     row.CurrentStock,
		Reason:    reason,
		CreatedAt: r.now(),
	}, row, nil
}
