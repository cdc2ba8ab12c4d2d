package sqldb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// Product is a row of the products table
type Product struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Code      string          `gorm:"size:64"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is a row of the locations table: a warehouse or a vehicle
type Location struct {
	ID        string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"size:20;not null"` // warehouse / vehicle
	Name      string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockTransfer is a movement between two locations. Writers that change its
// items must also touch UpdatedAt.
type StockTransfer struct {
	ID          string    `gorm:"primaryKey;size:64"`
	SourceID    string    `gorm:"size:64;index;not null"`
	SourceKind  string    `gorm:"size:20;not null"`
	TargetID    string    `gorm:"size:64;index;not null"`
	TargetKind  string    `gorm:"size:20;not null"`
	Date        time.Time `gorm:"index"`
	ConfirmedAt *time.Time
	Status      string `gorm:"size:20;not null"` // pending / completed / cancelled
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []StockTransferItem `gorm:"foreignKey:TransferID;constraint:OnDelete:CASCADE"`
}

// StockTransferItem is one product line of a transfer
type StockTransferItem struct {
	ID         uint   `gorm:"primaryKey"`
	TransferID string `gorm:"size:64;index;not null"`
	Line       int    `gorm:"not null"`
	ProductID  string `gorm:"size:64;not null"`
	Quantity   int64  `gorm:"not null"`
}

// Order is a customer order. VehicleID is null until a vehicle is assigned.
type Order struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Status    string  `gorm:"size:30;not null"`
	VehicleID *string `gorm:"size:64;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is one product line of an order with its price at order time
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   string          `gorm:"size:64;index;not null"`
	Line      int             `gorm:"not null"`
	ProductID string          `gorm:"size:64;not null"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null"`
}

// Models lists every table the snapshot source reads, in migration order
func Models() []interface{} {
	return []interface{}{&Product{}, &Location{}, &StockTransfer{}, &StockTransferItem{}, &Order{}, &OrderItem{}}
}

func (p Product) toEntity() entities.Product {
	return entities.Product{ID: entities.ProductID(p.ID), Code: p.Code, Price: p.Price}
}

func (l Location) toEntity() entities.Location {
	return entities.Location{ID: entities.LocationID(l.ID), Kind: entities.LocationKind(l.Kind), Name: l.Name}
}

func (t StockTransfer) toEntity() entities.TransferEvent {
	transfer := entities.TransferEvent{
		ID:          t.ID,
		SourceID:    entities.LocationID(t.SourceID),
		SourceKind:  entities.LocationKind(t.SourceKind),
		TargetID:    entities.LocationID(t.TargetID),
		TargetKind:  entities.LocationKind(t.TargetKind),
		Date:        t.Date,
		ConfirmedAt: t.ConfirmedAt,
		Status:      entities.TransferStatus(t.Status),
	}
	for _, item := range t.Items {
		transfer.Lines = append(transfer.Lines, entities.TransferLine{
			ProductID: entities.ProductID(item.ProductID),
			Quantity:  entities.Quantity(item.Quantity),
		})
	}
	return transfer
}

func (o Order) toEntity() entities.OrderEvent {
	order := entities.OrderEvent{ID: o.ID, Status: entities.OrderStatus(o.Status)}
	if o.VehicleID != nil {
		order.VehicleID = entities.LocationID(*o.VehicleID)
	}
	for _, item := range o.Items {
		order.Lines = append(order.Lines, entities.OrderLine{
			ProductID: entities.ProductID(item.ProductID),
			Quantity:  entities.Quantity(item.Quantity),
			UnitPrice: item.UnitPrice,
		})
	}
	return order
}
