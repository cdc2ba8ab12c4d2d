package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the delivery progression of a customer order
type OrderStatus string

const (
	OrderPendingWarehouse OrderStatus = "pending_warehouse"
	OrderAssignedToDriver OrderStatus = "assigned_to_driver"
	OrderOutForDelivery   OrderStatus = "out_for_delivery"
	OrderDelivered        OrderStatus = "delivered"
	OrderFailed           OrderStatus = "failed"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendingWarehouse, OrderAssignedToDriver, OrderOutForDelivery, OrderDelivered, OrderFailed:
		return true
	default:
		return false
	}
}

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return string(s)
}

// ParseOrderStatus converts a textual status into an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status: %q", s)
	}
	return status, nil
}

// WithdrawsStock reports whether an order in this status has physically left its vehicle.
// Failed deliveries are assumed to still be on the vehicle; returns are not modelled.
func (s OrderStatus) WithdrawsStock() bool {
	return s == OrderOutForDelivery || s == OrderDelivered
}

// OrderLine is a single product quantity on a customer order
type OrderLine struct {
	ProductID ProductID       `validate:"required"`
	Quantity  Quantity        `validate:"gt=0"`
	UnitPrice decimal.Decimal `validate:"gte=0"`
}

// OrderEvent represents the current state of a customer order.
// An empty VehicleID means the order has not been assigned to a vehicle.
type OrderEvent struct {
	ID        string      `validate:"required"`
	Lines     []OrderLine `validate:"required,min=1,dive"`
	Status    OrderStatus `validate:"required,oneof=pending_warehouse assigned_to_driver out_for_delivery delivered failed"`
	VehicleID LocationID
}

// NewOrderEvent creates a validated OrderEvent
func NewOrderEvent(id string, lines []OrderLine, status OrderStatus, vehicleID LocationID) (*OrderEvent, error) {
	if id == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order %s: at least one line is required", id)
	}
	for i, line := range lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("order %s line %d: product id cannot be empty", id, i)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("order %s line %d: quantity must be positive, got %d", id, i, line.Quantity)
		}
	}
	if !status.Valid() {
		return nil, fmt.Errorf("order %s: unknown status %q", id, string(status))
	}

	return &OrderEvent{
		ID:        id,
		Lines:     append([]OrderLine(nil), lines...),
		Status:    status,
		VehicleID: vehicleID,
	}, nil
}

// Assigned reports whether the order names a fulfilling vehicle
func (o *OrderEvent) Assigned() bool {
	return o.VehicleID != ""
}

// Total returns the order value at the prices captured when it was placed
func (o *OrderEvent) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Clone returns a deep copy of the order
func (o OrderEvent) Clone() OrderEvent {
	o.Lines = cloneSlice(o.Lines)
	return o
}
