package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// File names inside a data directory
const (
	ProductsFile = "products.csv"
	SuppliesFile = "supplies.csv"
	RecipesFile  = "recipes.csv"
	OrdersFile   = "orders.csv"
)

var (
	productsHeader = []string{"id", "name", "sale_price", "production_cost", "active"}
	suppliesHeader = []string{"id", "name", "current_stock", "unit", "unit_cost"}
	recipesHeader  = []string{"id", "product_id", "supply_id", "supply_name", "quantity", "unit"}
	ordersHeader   = []string{"order_id", "customer", "status", "product", "quantity"}
)

// DataSet is everything read from a data directory
type DataSet struct {
	Products []*entities.Product
	Supplies []*entities.Supply
	Recipes  []*entities.RecipeLine
	Orders   []*entities.Order
}

// Loader handles loading bakery data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDataDir reads products, supplies and recipes from dir. The orders file
// is optional.
func (l *Loader) LoadDataDir(dir string) (*DataSet, error) {
	products, err := l.LoadProducts(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}
	supplies, err := l.LoadSupplies(filepath.Join(dir, SuppliesFile))
	if err != nil {
		return nil, err
	}
	recipes, err := l.LoadRecipes(filepath.Join(dir, RecipesFile))
	if err != nil {
		return nil, err
	}

	orders, err := l.LoadOrders(filepath.Join(dir, OrdersFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &DataSet{Products: products, Supplies: supplies, Recipes: recipes, Orders: orders}, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	records, err := readRecords(filename, "products", productsHeader)
	if err != nil {
		return nil, err
	}

	products := make([]*entities.Product, 0, len(records))
	for i, record := range records {
		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadSupplies loads supplies from a CSV file
func (l *Loader) LoadSupplies(filename string) ([]*entities.Supply, error) {
	records, err := readRecords(filename, "supplies", suppliesHeader)
	if err != nil {
		return nil, err
	}

	supplies := make([]*entities.Supply, 0, len(records))
	for i, record := range records {
		supply, err := parseSupply(record)
		if err != nil {
			return nil, fmt.Errorf("supplies CSV row %d: %w", i+2, err)
		}
		supplies = append(supplies, supply)
	}
	return supplies, nil
}

// LoadRecipes loads recipe lines from a CSV file. Row order is the recipe's
// authoring order.
func (l *Loader) LoadRecipes(filename string) ([]*entities.RecipeLine, error) {
	records, err := readRecords(filename, "recipes", recipesHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.RecipeLine, 0, len(records))
	for i, record := range records {
		quantity, err := decimal.NewFromString(strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w: invalid quantity: %s", i+2, entities.ErrInvalidInput, record[4])
		}
		line, err := entities.NewRecipeLine(
			record[0],
			entities.ProductID(record[1]),
			entities.SupplyID(record[2]),
			record[3],
			quantity,
			record[5],
		)
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadOrders loads customer orders from a CSV file with one row per order
// item. Rows of the same order_id are grouped in first-seen order.
func (l *Loader) LoadOrders(filename string) ([]*entities.Order, error) {
	records, err := readRecords(filename, "orders", ordersHeader)
	if err != nil {
		return nil, err
	}

	type pending struct {
		customer string
		status   entities.OrderStatus
		items    []entities.OrderItem
	}
	byID := make(map[string]*pending)
	var ids []string

	for i, record := range records {
		status, err := entities.ParseOrderStatus(record[2])
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", i+2, err)
		}
		quantity, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w: invalid quantity: %s", i+2, entities.ErrInvalidInput, record[4])
		}

		id := record[0]
		o, seen := byID[id]
		if !seen {
			o = &pending{customer: record[1], status: status}
			byID[id] = o
			ids = append(ids, id)
		}
		o.items = append(o.items, entities.OrderItem{ProductName: record[3], Quantity: quantity})
	}

	orders := make([]*entities.Order, 0, len(ids))
	for _, id := range ids {
		o := byID[id]
		order, err := entities.NewOrder(id, o.customer, o.status, o.items)
		if err != nil {
			return nil, fmt.Errorf("orders CSV: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// WriteSupplies writes supplies back in the format LoadSupplies reads. The
// file is replaced atomically.
func (l *Loader) WriteSupplies(filename string, supplies []*entities.Supply) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".supplies-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary supplies file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(suppliesHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write supplies header: %w", err)
	}
	for _, s := range supplies {
		record := []string{
			string(s.ID),
			s.Name,
			s.CurrentStock.String(),
			s.Unit,
			s.UnitCost.String(),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write supply %s: %w", s.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush supplies CSV: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close supplies CSV: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to replace supplies file %s: %w", filename, err)
	}
	return nil
}

// readRecords opens a CSV file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(expectedHeader)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseProduct(record []string) (*entities.Product, error) {
	salePrice, err := parseDecimal("sale_price", record[2])
	if err != nil {
		return nil, err
	}
	productionCost, err := parseDecimal("production_cost", record[3])
	if err != nil {
		return nil, err
	}
	active, err := strconv.ParseBool(strings.TrimSpace(record[4]))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid active flag: %s", entities.ErrInvalidInput, record[4])
	}
	return entities.NewProduct(entities.ProductID(record[0]), record[1], salePrice, productionCost, active)
}

func parseSupply(record []string) (*entities.Supply, error) {
	stock, err := parseDecimal("current_stock", record[2])
	if err != nil {
		return nil, err
	}
	unitCost, err := parseDecimal("unit_cost", record[4])
	if err != nil {
		return nil, err
	}
	return entities.NewSupply(entities.SupplyID(record[0]), record[1], stock, record[3], unitCost)
}

// parseDecimal reads a numeric column; an empty cell is zero
func parseDecimal(column, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s: %s", entities.ErrInvalidInput, column, value)
	}
	return d, nil
}
