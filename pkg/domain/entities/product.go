package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID represents a unique product identifier
type ProductID string

// Quantity represents an integer quantity of stock units.
// Derived quantities may be negative.
type Quantity int64

// Product represents a sellable product as supplied by the catalog
type Product struct {
	ID    ProductID       `validate:"required"`
	Code  string
	Price decimal.Decimal `validate:"gte=0"`
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, code string, price decimal.Decimal) (*Product, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative, got %s", price)
	}

	return &Product{
		ID:    id,
		Code:  code,
		Price: price,
	}, nil
}

// Value returns the monetary value of qty units at the product's price
func (p Product) Value(qty Quantity) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(qty)))
}
