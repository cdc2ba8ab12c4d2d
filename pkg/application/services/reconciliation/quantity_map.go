package reconciliation

import (
	"sort"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// QuantityMap holds the derived on-hand quantity per location and product
type QuantityMap map[entities.LocationID]map[entities.ProductID]entities.Quantity

// Get returns the quantity of a product at a location
func (m QuantityMap) Get(location entities.LocationID, product entities.ProductID) (entities.Quantity, bool) {
	products, exists := m[location]
	if !exists {
		return 0, false
	}
	qty, exists := products[product]
	return qty, exists
}

func (m QuantityMap) add(location entities.LocationID, product entities.ProductID, delta entities.Quantity) {
	m[location][product] += delta
}

// Clone returns an independent copy of the map
func (m QuantityMap) Clone() QuantityMap {
	clone := make(QuantityMap, len(m))
	for location, products := range m {
		inner := make(map[entities.ProductID]entities.Quantity, len(products))
		for product, qty := range products {
			inner[product] = qty
		}
		clone[location] = inner
	}
	return clone
}

// Equal reports whether both maps hold the same cells with the same quantities
func (m QuantityMap) Equal(other QuantityMap) bool {
	if len(m) != len(other) {
		return false
	}
	for location, products := range m {
		otherProducts, exists := other[location]
		if !exists || len(products) != len(otherProducts) {
			return false
		}
		for product, qty := range products {
			otherQty, exists := otherProducts[product]
			if !exists || otherQty != qty {
				return false
			}
		}
	}
	return true
}

// Cell is a single location and product pair with its quantity
type Cell struct {
	LocationID entities.LocationID
	ProductID  entities.ProductID
	Quantity   entities.Quantity
}

// Cells returns every cell sorted by location then product id
func (m QuantityMap) Cells() []Cell {
	cells := make([]Cell, 0, len(m))
	for location, products := range m {
		for product, qty := range products {
			cells = append(cells, Cell{LocationID: location, ProductID: product, Quantity: qty})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].LocationID != cells[j].LocationID {
			return cells[i].LocationID < cells[j].LocationID
		}
		return cells[i].ProductID < cells[j].ProductID
	})
	return cells
}
