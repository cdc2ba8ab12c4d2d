package projection

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/application/dto"
	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
)

// DefaultLowStockThreshold flags quantities below 10 units
const DefaultLowStockThreshold entities.Quantity = 10

// AllLocations selects every location in TotalValue
const AllLocations entities.LocationID = ""

// View answers reporting queries from a single reconciliation result. Every
// query of one view observes the same replay. The view takes ownership of the
// snapshot and result it is built from; every method returns fresh values.
type View struct {
	snapshot  *entities.Snapshot
	result    *reconciliation.Result
	threshold entities.Quantity

	products  map[entities.ProductID]entities.Product
	locations map[entities.LocationID]entities.Location
}

// NewView creates a view over a snapshot and the result reconciled from it
func NewView(snapshot *entities.Snapshot, result *reconciliation.Result, lowStockThreshold entities.Quantity) *View {
	v := &View{
		snapshot:  snapshot,
		result:    result,
		threshold: lowStockThreshold,
		products:  make(map[entities.ProductID]entities.Product, len(snapshot.Products)),
		locations: make(map[entities.LocationID]entities.Location, len(snapshot.Locations)),
	}
	for _, p := range snapshot.Products {
		v.products[p.ID] = p
	}
	for _, l := range snapshot.Locations {
		v.locations[l.ID] = l
	}
	return v
}

// Revision returns the revision of the snapshot the view was built from
func (v *View) Revision() string {
	return v.snapshot.Revision
}

// LowStockThreshold returns the threshold used by Lines to flag low stock
func (v *View) LowStockThreshold() entities.Quantity {
	return v.threshold
}

// Result returns the reconciliation result behind the view.
// Callers must treat it as read-only.
func (v *View) Result() *reconciliation.Result {
	return v.result
}

// Diagnostics returns a copy of the reference diagnostics of the replay
func (v *View) Diagnostics() []reconciliation.ReferenceError {
	return append([]reconciliation.ReferenceError(nil), v.result.Diagnostics...)
}

// Snapshot returns a copy of the snapshot the view was reconciled from
func (v *View) Snapshot() *entities.Snapshot {
	return v.snapshot.Clone()
}

func (v *View) quantity(location entities.LocationID, product entities.ProductID) entities.Quantity {
	qty, _ := v.result.Quantities.Get(location, product)
	return qty
}

// ByLocation lists every product held at a location with its value
func (v *View) ByLocation(id entities.LocationID) ([]dto.ProductStock, error) {
	if _, exists := v.locations[id]; !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrLocationNotFound, id)
	}

	stock := make([]dto.ProductStock, 0, len(v.snapshot.Products))
	for _, product := range v.snapshot.Products {
		qty := v.quantity(id, product.ID)
		stock = append(stock, dto.ProductStock{
			ProductID:   product.ID,
			ProductCode: product.Code,
			Quantity:    qty,
			Value:       product.Value(qty),
		})
	}
	return stock, nil
}

// ByLocationKind lists the stock lines of every location of one kind
func (v *View) ByLocationKind(kind entities.LocationKind) []dto.StockLine {
	return v.Lines(Filter{Kind: kind})
}

// ByProduct lists every location with its quantity of a product
func (v *View) ByProduct(id entities.ProductID) ([]dto.ProductLocation, error) {
	if _, exists := v.products[id]; !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrProductNotFound, id)
	}

	holders := make([]dto.ProductLocation, 0, len(v.snapshot.Locations))
	for _, location := range v.snapshot.Locations {
		holders = append(holders, dto.ProductLocation{
			LocationID:   location.ID,
			LocationName: location.Name,
			LocationKind: location.Kind,
			Quantity:     v.quantity(location.ID, id),
		})
	}
	return holders, nil
}

// LowStock lists every pair whose quantity is strictly below threshold,
// negative quantities included
func (v *View) LowStock(threshold entities.Quantity) []dto.StockLine {
	var low []dto.StockLine
	for _, line := range v.lines(Filter{}, threshold) {
		if line.Quantity < threshold {
			low = append(low, line)
		}
	}
	return low
}

// TotalValue sums quantity times price over one location, or over all
// locations for AllLocations
func (v *View) TotalValue(location entities.LocationID) (decimal.Decimal, error) {
	if location != AllLocations {
		if _, exists := v.locations[location]; !exists {
			return decimal.Zero, fmt.Errorf("%w: %s", repositories.ErrLocationNotFound, location)
		}
	}

	total := decimal.Zero
	for _, line := range v.Lines(Filter{LocationID: location}) {
		total = total.Add(line.Value)
	}
	return total, nil
}

// Filter narrows the flattened stock report. Zero values do not filter.
type Filter struct {
	Kind        entities.LocationKind
	LocationID  entities.LocationID
	ProductID   entities.ProductID
	NonZeroOnly bool
	LowOnly     bool
}

// Lines flattens the quantity map into report rows, in catalog location order
// then catalog product order, flagging rows below the view's threshold
func (v *View) Lines(filter Filter) []dto.StockLine {
	return v.lines(filter, v.threshold)
}

func (v *View) lines(filter Filter, threshold entities.Quantity) []dto.StockLine {
	lines := make([]dto.StockLine, 0)
	for _, location := range v.snapshot.Locations {
		if filter.Kind != "" && location.Kind != filter.Kind {
			continue
		}
		if filter.LocationID != "" && location.ID != filter.LocationID {
			continue
		}
		for _, product := range v.snapshot.Products {
			if filter.ProductID != "" && product.ID != filter.ProductID {
				continue
			}
			qty := v.quantity(location.ID, product.ID)
			if filter.NonZeroOnly && qty == 0 {
				continue
			}
			low := qty < threshold
			if filter.LowOnly && !low {
				continue
			}
			lines = append(lines, dto.StockLine{
				LocationID:   location.ID,
				LocationName: location.Name,
				LocationKind: location.Kind,
				ProductID:    product.ID,
				ProductCode:  product.Code,
				Quantity:     qty,
				UnitPrice:    product.Price,
				Value:        product.Value(qty),
				LowStock:     low,
			})
		}
	}
	return lines
}

// VehicleLoadings lists transfers onto vehicles in date order, valued at current prices
func (v *View) VehicleLoadings(filter dto.LoadingFilter) []dto.LoadingLine {
	loadings := make([]dto.LoadingLine, 0)
	for _, transfer := range v.snapshot.Transfers {
		if transfer.TargetKind != entities.Vehicle {
			continue
		}
		ranged := !filter.From.IsZero() || !filter.To.IsZero()
		if ranged && transfer.Date.IsZero() {
			continue
		}
		if !filter.From.IsZero() && day(transfer.Date) < day(filter.From) {
			continue
		}
		if !filter.To.IsZero() && day(transfer.Date) > day(filter.To) {
			continue
		}
		if filter.SourceID != "" && transfer.SourceID != filter.SourceID {
			continue
		}
		if filter.VehicleID != "" && transfer.TargetID != filter.VehicleID {
			continue
		}

		line := dto.LoadingLine{
			TransferID:  transfer.ID,
			Date:        transfer.Date,
			Status:      transfer.Status,
			SourceID:    transfer.SourceID,
			SourceName:  v.locations[transfer.SourceID].Name,
			VehicleID:   transfer.TargetID,
			VehicleName: v.locations[transfer.TargetID].Name,
			Value:       decimal.Zero,
		}
		for _, item := range transfer.Lines {
			line.TotalQuantity += item.Quantity
			if product, exists := v.products[item.ProductID]; exists {
				line.Value = line.Value.Add(product.Value(item.Quantity))
			}
		}
		loadings = append(loadings, line)
	}

	sort.SliceStable(loadings, func(i, j int) bool {
		if !loadings[i].Date.Equal(loadings[j].Date) {
			return loadings[i].Date.Before(loadings[j].Date)
		}
		return loadings[i].TransferID < loadings[j].TransferID
	})
	return loadings
}

// day reduces a time to its UTC calendar day
func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
