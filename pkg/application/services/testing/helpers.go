package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/repositories/memory"
)

// Fixture IDs shared by the application-layer tests
const (
	ConchaVainilla entities.ProductID = "concha-vainilla"
	Bolillo        entities.ProductID = "bolillo"
	Pan            entities.ProductID = "pan-de-muerto"
	Galleta        entities.ProductID = "galleta"
	Retired        entities.ProductID = "rosca-retirada"

	Flour  entities.SupplyID = "flour"
	Sugar  entities.SupplyID = "sugar"
	Butter entities.SupplyID = "butter"
	Yeast  entities.SupplyID = "yeast"
)

// Now is the fixed clock used by the application-layer tests
func Now() time.Time {
	return time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)
}

// BakeryData bundles the repositories of a test bakery
type BakeryData struct {
	Catalog  *memory.CatalogRepository
	Supplies *memory.SupplyRepository
	Orders   *memory.OrderRepository
}

// MustCreateProduct is a helper for tests - panics on validation error
func MustCreateProduct(id entities.ProductID, name string, active bool) *entities.Product {
	product, err := entities.NewProduct(id, name, decimal.NewFromInt(12), decimal.NewFromInt(5), active)
	if err != nil {
		panic(err)
	}
	return product
}

// MustCreateRecipeLine is a helper for tests - panics on validation error
func MustCreateRecipeLine(productID entities.ProductID, supplyID entities.SupplyID, name, quantity, unit string) *entities.RecipeLine {
	line, err := entities.NewRecipeLine(
		string(productID)+"/"+string(supplyID),
		productID,
		supplyID,
		name,
		decimal.RequireFromString(quantity),
		unit,
	)
	if err != nil {
		panic(err)
	}
	return line
}

// MustCreateSupply is a helper for tests - panics on validation error
func MustCreateSupply(id entities.SupplyID, name, stock, unit string) *entities.Supply {
	supply, err := entities.NewSupply(id, name, decimal.RequireFromString(stock), unit, decimal.NewFromInt(1))
	if err != nil {
		panic(err)
	}
	return supply
}

// MustCreateOrder is a helper for tests - panics on validation error
func MustCreateOrder(id string, status entities.OrderStatus, items ...entities.OrderItem) *entities.Order {
	order, err := entities.NewOrder(id, "cliente "+id, status, items)
	if err != nil {
		panic(err)
	}
	return order
}

// BuildBakeryTestData builds a small bakery:
//
//	Concha Vainilla: flour 0.2 kg, sugar 0.05 kg
//	Bolillo:         flour 0.06 kg, yeast 0.002 kg
//	Pan de Muerto:   flour 0.1 kg, butter 0.02 kg, sugar 0.03 kg
//	Galleta:         no recipe
//	Rosca Retirada:  inactive
//
// Stock: flour 8 kg, sugar 5 kg, butter 1 kg, yeast 0.5 kg.
func BuildBakeryTestData() *BakeryData {
	catalog := memory.NewCatalogRepository(5, 8)
	_ = catalog.LoadProducts([]*entities.Product{
		MustCreateProduct(ConchaVainilla, "Concha Vainilla", true),
		MustCreateProduct(Bolillo, "Bolillo", true),
		MustCreateProduct(Pan, "Pan de Muerto", true),
		MustCreateProduct(Galleta, "Galleta", true),
		MustCreateProduct(Retired, "Rosca Retirada", false),
	})
	_ = catalog.LoadRecipeLines([]*entities.RecipeLine{
		MustCreateRecipeLine(ConchaVainilla, Flour, "Flour", "0.2", "kg"),
		MustCreateRecipeLine(ConchaVainilla, Sugar, "Sugar", "0.05", "kg"),
		MustCreateRecipeLine(Bolillo, Flour, "Flour", "0.06", "kg"),
		MustCreateRecipeLine(Bolillo, Yeast, "Yeast", "0.002", "kg"),
		MustCreateRecipeLine(Pan, Flour, "Flour", "0.1", "kg"),
		MustCreateRecipeLine(Pan, Butter, "Butter", "0.02", "kg"),
		MustCreateRecipeLine(Pan, Sugar, "Sugar", "0.03", "kg"),
		MustCreateRecipeLine(Retired, Flour, "Flour", "0.3", "kg"),
	})

	supplies := memory.NewSupplyRepository()
	_ = supplies.LoadSupplies([]*entities.Supply{
		MustCreateSupply(Flour, "Flour", "8", "kg"),
		MustCreateSupply(Sugar, "Sugar", "5", "kg"),
		MustCreateSupply(Butter, "Butter", "1", "kg"),
		MustCreateSupply(Yeast, "Yeast", "0.5", "kg"),
	})

	orders := memory.NewOrderRepository()
	_ = orders.LoadOrders([]*entities.Order{
		MustCreateOrder("o-1", entities.OrderPending,
			entities.OrderItem{ProductName: "Concha Vainilla", Quantity: 20},
			entities.OrderItem{ProductName: "Bolillo", Quantity: 50}),
		MustCreateOrder("o-2", entities.OrderPending,
			entities.OrderItem{ProductName: "concha vainilla ", Quantity: 30},
			entities.OrderItem{ProductName: "Empanada", Quantity: 4}),
		MustCreateOrder("o-3", entities.OrderDelivered,
			entities.OrderItem{ProductName: "Concha Vainilla", Quantity: 100}),
		MustCreateOrder("o-4", entities.OrderPending,
			entities.OrderItem{ProductName: "Rosca Retirada", Quantity: 2}),
	})

	return &BakeryData{Catalog: catalog, Supplies: supplies, Orders: orders}
}

// BuildSimpleTestData builds the single-product bakery used by the basic
// scenarios: Concha Vainilla with flour 0.2 kg and sugar 0.05 kg against
// stock of flour 8 kg and sugar 5 kg.
func BuildSimpleTestData() *BakeryData {
	catalog := memory.NewCatalogRepository(1, 2)
	_ = catalog.LoadProducts([]*entities.Product{
		MustCreateProduct(ConchaVainilla, "Concha Vainilla", true),
	})
	_ = catalog.LoadRecipeLines([]*entities.RecipeLine{
		MustCreateRecipeLine(ConchaVainilla, Flour, "Flour", "0.2", "kg"),
		MustCreateRecipeLine(ConchaVainilla, Sugar, "Sugar", "0.05", "kg"),
	})

	supplies := memory.NewSupplyRepository()
	_ = supplies.LoadSupplies([]*entities.Supply{
		MustCreateSupply(Flour, "Flour", "8", "kg"),
		MustCreateSupply(Sugar, "Sugar", "5", "kg"),
	})

	return &BakeryData{Catalog: catalog, Supplies: supplies, Orders: memory.NewOrderRepository()}
}
