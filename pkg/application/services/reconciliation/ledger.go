package reconciliation

import "github.com/fieldops/stockrecon/pkg/domain/entities"

// Movement breaks a derived quantity down by cause
type Movement struct {
	Opening     entities.Quantity `json:"opening"`
	TransferIn  entities.Quantity `json:"transfer_in"`
	TransferOut entities.Quantity `json:"transfer_out"`
	// InTransitOut is the part of TransferOut that has not been confirmed at the target
	InTransitOut entities.Quantity `json:"in_transit_out"`
	OrderOut     entities.Quantity `json:"order_out"`
}

// OnHand returns the quantity the movement adds up to
func (m Movement) OnHand() entities.Quantity {
	return m.Opening + m.TransferIn - m.TransferOut - m.OrderOut
}

// Ledger holds the movement breakdown per location and product
type Ledger map[entities.LocationID]map[entities.ProductID]Movement

// Get returns the movement of a product at a location
func (l Ledger) Get(location entities.LocationID, product entities.ProductID) (Movement, bool) {
	products, exists := l[location]
	if !exists {
		return Movement{}, false
	}
	movement, exists := products[product]
	return movement, exists
}

func (l Ledger) update(location entities.LocationID, product entities.ProductID, fn func(m *Movement)) {
	movement := l[location][product]
	fn(&movement)
	l[location][product] = movement
}

// Equal reports whether both ledgers hold the same movements
func (l Ledger) Equal(other Ledger) bool {
	if len(l) != len(other) {
		return false
	}
	for location, products := range l {
		otherProducts, exists := other[location]
		if !exists || len(products) != len(otherProducts) {
			return false
		}
		for product, movement := range products {
			if otherMovement, exists := otherProducts[product]; !exists || otherMovement != movement {
				return false
			}
		}
	}
	return true
}
