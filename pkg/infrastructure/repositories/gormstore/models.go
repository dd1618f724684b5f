package gormstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

type productModel struct {
	ID             string          `gorm:"primaryKey"`
	Name           string          `gorm:"index;not null"`
	SalePrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ProductionCost decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (productModel) TableName() string { return "products" }

type supplyModel struct {
	ID           string          `gorm:"primaryKey"`
	Name         string          `gorm:"not null"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	Unit         string          `gorm:"not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (supplyModel) TableName() string { return "supplies" }

type recipeLineModel struct {
	ID         string `gorm:"primaryKey"`
	ProductID  string `gorm:"index;not null"`
	SupplyID   string `gorm:"index;not null"`
	SupplyName string
	Quantity   decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Unit       string          `gorm:"not null"`
	Position   int             `gorm:"not null;default:0"`
}

func (recipeLineModel) TableName() string { return "recipe_lines" }

type orderModel struct {
	ID        string `gorm:"primaryKey"`
	Customer  string
	Status    string `gorm:"index;not null"`
	CreatedAt time.Time

	Items []orderItemModel `gorm:"foreignKey:OrderID"`
}

func (orderModel) TableName() string { return "orders" }

type orderItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     string `gorm:"index;not null"`
	ProductName string `gorm:"not null"`
	Quantity    int64  `gorm:"not null"`
	Position    int    `gorm:"not null;default:0"`
}

func (orderItemModel) TableName() string { return "order_items" }

// stockMovementModel is the audit row written for every stock change
type stockMovementModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CommitID  uuid.UUID       `gorm:"type:uuid;index"`
	SupplyID  string          `gorm:"index;not null"`
	Delta     decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Before    decimal.Decimal `gorm:"column:stock_before;type:decimal(14,4);not null"`
	After     decimal.Decimal `gorm:"column:stock_after;type:decimal(14,4);not null"`
	Reason    string          `gorm:"not null"`
	CreatedAt time.Time
}

func (stockMovementModel) TableName() string { return "stock_movements" }

func (m productModel) toEntity() *entities.Product {
	return &entities.Product{
		ID:             entities.ProductID(m.ID),
		Name:           m.Name,
		SalePrice:      m.SalePrice,
		ProductionCost: m.ProductionCost,
		Active:         m.Active,
	}
}

func fromProduct(p *entities.Product) productModel {
	return productModel{
		ID:             string(p.ID),
		Name:           p.Name,
		SalePrice:      p.SalePrice,
		ProductionCost: p.ProductionCost,
		Active:         p.Active,
	}
}

func (m supplyModel) toEntity() *entities.Supply {
	return &entities.Supply{
		ID:           entities.SupplyID(m.ID),
		Name:         m.Name,
		CurrentStock: m.CurrentStock,
		Unit:         m.Unit,
		UnitCost:     m.UnitCost,
	}
}

func fromSupply(s *entities.Supply) supplyModel {
	return supplyModel{
		ID:           string(s.ID),
		Name:         s.Name,
		CurrentStock: s.CurrentStock,
		Unit:         s.Unit,
		UnitCost:     s.UnitCost,
	}
}

func (m recipeLineModel) toEntity() *entities.RecipeLine {
	return &entities.RecipeLine{
		ID:         m.ID,
		ProductID:  entities.ProductID(m.ProductID),
		SupplyID:   entities.SupplyID(m.SupplyID),
		SupplyName: m.SupplyName,
		Quantity:   m.Quantity,
		Unit:       m.Unit,
	}
}

func fromRecipeLine(l *entities.RecipeLine, position int) recipeLineModel {
	return recipeLineModel{
		ID:         l.ID,
		ProductID:  string(l.ProductID),
		SupplyID:   string(l.SupplyID),
		SupplyName: l.SupplyName,
		Quantity:   l.Quantity,
		Unit:       l.Unit,
		Position:   position,
	}
}

func (m orderModel) toEntity() (*entities.Order, error) {
	status, err := entities.ParseOrderStatus(m.Status)
	if err != nil {
		return nil, err
	}
	items := make([]entities.OrderItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = entities.OrderItem{ProductName: item.ProductName, Quantity: item.Quantity}
	}
	return &entities.Order{ID: m.ID, Customer: m.Customer, Status: status, Items: items}, nil
}

func fromOrder(o *entities.Order) orderModel {
	items := make([]orderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemModel{OrderID: o.ID, ProductName: item.ProductName, Quantity: item.Quantity, Position: i}
	}
	return orderModel{ID: o.ID, Customer: o.Customer, Status: o.Status.String(), Items: items}
}

func (m stockMovementModel) toEntity() entities.StockMovement {
	return entities.StockMovement{
		ID:        m.ID,
		CommitID:  m.CommitID,
		SupplyID:  entities.SupplyID(m.SupplyID),
		Delta:     m.Delta,
		Before:    m.Before,
		After:     m.After,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}
