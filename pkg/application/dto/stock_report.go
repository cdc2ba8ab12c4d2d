package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// StockLine is one location and product row of the flattened stock report
type StockLine struct {
	LocationID   entities.LocationID   `json:"location_id"`
	LocationName string                `json:"location_name"`
	LocationKind entities.LocationKind `json:"location_kind"`
	ProductID    entities.ProductID    `json:"product_id"`
	ProductCode  string                `json:"product_code"`
	Quantity     entities.Quantity     `json:"quantity"`
	UnitPrice    decimal.Decimal       `json:"unit_price"`
	Value        decimal.Decimal       `json:"value"`
	LowStock     bool                  `json:"low_stock"`
}

// ProductStock is a product held at one location
type ProductStock struct {
	ProductID   entities.ProductID `json:"product_id"`
	ProductCode string             `json:"product_code"`
	Quantity    entities.Quantity  `json:"quantity"`
	Value       decimal.Decimal    `json:"value"`
}

// ProductLocation is one location holding a given product
type ProductLocation struct {
	LocationID   entities.LocationID   `json:"location_id"`
	LocationName string                `json:"location_name"`
	LocationKind entities.LocationKind `json:"location_kind"`
	Quantity     entities.Quantity     `json:"quantity"`
}

// NegativeStock is a location and product pair derived below zero
type NegativeStock struct {
	LocationID entities.LocationID `json:"location_id"`
	ProductID  entities.ProductID  `json:"product_id"`
	Quantity   entities.Quantity   `json:"quantity"`
}

// LoadingFilter selects transfers for the vehicle loading report.
// Zero values do not filter. From and To compare calendar days, both inclusive.
type LoadingFilter struct {
	From      time.Time
	To        time.Time
	SourceID  entities.LocationID
	VehicleID entities.LocationID
}

// LoadingLine summarises one transfer onto a vehicle
type LoadingLine struct {
	TransferID    string                  `json:"transfer_id"`
	Date          time.Time               `json:"date"`
	Status        entities.TransferStatus `json:"status"`
	SourceID      entities.LocationID     `json:"source_id"`
	SourceName    string                  `json:"source_name"`
	VehicleID     entities.LocationID     `json:"vehicle_id"`
	VehicleName   string                  `json:"vehicle_name"`
	TotalQuantity entities.Quantity       `json:"total_quantity"`
	Value         decimal.Decimal         `json:"value"`
}
