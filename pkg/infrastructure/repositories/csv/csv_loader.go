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
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// File names read by LoadSnapshot
const (
	ProductsFile  = "products.csv"
	LocationsFile = "locations.csv"
	TransfersFile = "transfers.csv"
	OrdersFile    = "orders.csv"
)

var (
	productsHeader  = []string{"product_id", "code", "price"}
	locationsHeader = []string{"location_id", "kind", "name"}
	transfersHeader = []string{"transfer_id", "source_id", "source_kind", "target_id", "target_kind", "date", "status", "product_id", "quantity"}
	ordersHeader    = []string{"order_id", "status", "vehicle_id", "product_id", "quantity", "unit_price"}
)

// Loader handles loading reconciliation inputs from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// Files names the CSV file of each input. Transfers and Orders may be empty.
type Files struct {
	Products  string
	Locations string
	Transfers string
	Orders    string
}

// DirFiles returns the standard file names inside dir. Movement files that do
// not exist are left empty.
func DirFiles(dir string) Files {
	files := Files{
		Products:  filepath.Join(dir, ProductsFile),
		Locations: filepath.Join(dir, LocationsFile),
	}
	if path := filepath.Join(dir, TransfersFile); exists(path) {
		files.Transfers = path
	}
	if path := filepath.Join(dir, OrdersFile); exists(path) {
		files.Orders = path
	}
	return files
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// LoadSnapshot reads every input named by files into one snapshot
func (l *Loader) LoadSnapshot(files Files) (*entities.Snapshot, error) {
	products, err := l.LoadProducts(files.Products)
	if err != nil {
		return nil, err
	}
	locations, err := l.LoadLocations(files.Locations)
	if err != nil {
		return nil, err
	}

	snapshot := &entities.Snapshot{}
	for _, p := range products {
		snapshot.Products = append(snapshot.Products, *p)
	}
	for _, loc := range locations {
		snapshot.Locations = append(snapshot.Locations, *loc)
	}

	if files.Transfers != "" {
		transfers, err := l.LoadTransfers(files.Transfers)
		if err != nil {
			return nil, err
		}
		for _, t := range transfers {
			snapshot.Transfers = append(snapshot.Transfers, *t)
		}
	}
	if files.Orders != "" {
		orders, err := l.LoadOrders(files.Orders)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			snapshot.Orders = append(snapshot.Orders, *o)
		}
	}

	return snapshot, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	records, err := readRecords(filename, "products", productsHeader)
	if err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records {
		price, err := decimal.NewFromString(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: invalid price: %s", i+2, record[2])
		}
		product, err := entities.NewProduct(entities.ProductID(record[0]), record[1], price)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}

	return products, nil
}

// LoadLocations loads warehouses and vehicles from a CSV file
func (l *Loader) LoadLocations(filename string) ([]*entities.Location, error) {
	records, err := readRecords(filename, "locations", locationsHeader)
	if err != nil {
		return nil, err
	}

	var locations []*entities.Location
	for i, record := range records {
		kind, err := entities.ParseLocationKind(strings.ToLower(record[1]))
		if err != nil {
			return nil, fmt.Errorf("locations CSV row %d: %w", i+2, err)
		}
		location, err := entities.NewLocation(entities.LocationID(record[0]), kind, record[2])
		if err != nil {
			return nil, fmt.Errorf("locations CSV row %d: %w", i+2, err)
		}
		locations = append(locations, location)
	}

	return locations, nil
}

// LoadTransfers loads transfers from a CSV file with one row per line item.
// Rows sharing a transfer_id form one transfer and must agree on its header fields.
func (l *Loader) LoadTransfers(filename string) ([]*entities.TransferEvent, error) {
	records, err := readRecords(filename, "transfers", transfersHeader)
	if err != nil {
		return nil, err
	}

	var transfers []*entities.TransferEvent
	byID := make(map[string]*entities.TransferEvent)

	for i, record := range records {
		header, line, err := parseTransferRow(record)
		if err != nil {
			return nil, fmt.Errorf("transfers CSV row %d: %w", i+2, err)
		}

		existing, seen := byID[header.ID]
		if !seen {
			header.Lines = []entities.TransferLine{line}
			byID[header.ID] = header
			transfers = append(transfers, header)
			continue
		}

		if existing.SourceID != header.SourceID || existing.SourceKind != header.SourceKind ||
			existing.TargetID != header.TargetID || existing.TargetKind != header.TargetKind ||
			!existing.Date.Equal(header.Date) || existing.Status != header.Status {
			return nil, fmt.Errorf("transfers CSV row %d: transfer %s disagrees with its earlier rows", i+2, header.ID)
		}
		existing.Lines = append(existing.Lines, line)
	}

	return transfers, nil
}

// LoadOrders loads orders from a CSV file with one row per line item.
// An empty vehicle_id means the order is unassigned.
func (l *Loader) LoadOrders(filename string) ([]*entities.OrderEvent, error) {
	records, err := readRecords(filename, "orders", ordersHeader)
	if err != nil {
		return nil, err
	}

	var orders []*entities.OrderEvent
	byID := make(map[string]*entities.OrderEvent)

	for i, record := range records {
		order, line, err := parseOrderRow(record)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", i+2, err)
		}

		existing, seen := byID[order.ID]
		if !seen {
			order.Lines = []entities.OrderLine{line}
			byID[order.ID] = order
			orders = append(orders, order)
			continue
		}

		if existing.Status != order.Status || existing.VehicleID != order.VehicleID {
			return nil, fmt.Errorf("orders CSV row %d: order %s disagrees with its earlier rows", i+2, order.ID)
		}
		existing.Lines = append(existing.Lines, line)
	}

	return orders, nil
}

// Helper functions for parsing CSV records

// readRecords returns the data rows of a CSV file after checking its header
func readRecords(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
	}

	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}

	return true
}

func parseTransferRow(record []string) (*entities.TransferEvent, entities.TransferLine, error) {
	sourceKind, err := entities.ParseLocationKind(strings.ToLower(record[2]))
	if err != nil {
		return nil, entities.TransferLine{}, fmt.Errorf("invalid source_kind: %w", err)
	}
	targetKind, err := entities.ParseLocationKind(strings.ToLower(record[4]))
	if err != nil {
		return nil, entities.TransferLine{}, fmt.Errorf("invalid target_kind: %w", err)
	}

	date, err := parseDate(record[5])
	if err != nil {
		return nil, entities.TransferLine{}, err
	}

	status, err := entities.ParseTransferStatus(strings.ToLower(record[6]))
	if err != nil {
		return nil, entities.TransferLine{}, err
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(record[8]), 10, 64)
	if err != nil {
		return nil, entities.TransferLine{}, fmt.Errorf("invalid quantity: %s", record[8])
	}

	line := entities.TransferLine{ProductID: entities.ProductID(record[7]), Quantity: entities.Quantity(quantity)}
	transfer, err := entities.NewTransferEvent(
		record[0],
		entities.LocationID(record[1]),
		sourceKind,
		entities.LocationID(record[3]),
		targetKind,
		[]entities.TransferLine{line},
		date,
		status,
	)
	if err != nil {
		return nil, entities.TransferLine{}, err
	}
	return transfer, line, nil
}

func parseOrderRow(record []string) (*entities.OrderEvent, entities.OrderLine, error) {
	status, err := entities.ParseOrderStatus(strings.ToLower(record[1]))
	if err != nil {
		return nil, entities.OrderLine{}, err
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
	if err != nil {
		return nil, entities.OrderLine{}, fmt.Errorf("invalid quantity: %s", record[4])
	}

	unitPrice := decimal.Zero
	if s := strings.TrimSpace(record[5]); s != "" {
		unitPrice, err = decimal.NewFromString(s)
		if err != nil {
			return nil, entities.OrderLine{}, fmt.Errorf("invalid unit_price: %s", record[5])
		}
	}

	line := entities.OrderLine{ProductID: entities.ProductID(record[3]), Quantity: entities.Quantity(quantity), UnitPrice: unitPrice}
	order, err := entities.NewOrderEvent(record[0], []entities.OrderLine{line}, status, entities.LocationID(record[2]))
	if err != nil {
		return nil, entities.OrderLine{}, err
	}
	return order, line, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 timestamps
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if date, err := time.Parse("2006-01-02", s); err == nil {
		return date, nil
	}
	date, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return date, nil
}
