package repositories

import (
	"context"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// TransferRepository provides read-only access to the current state of stock transfers
type TransferRepository interface {
	ListTransfers(ctx context.Context) ([]entities.TransferEvent, error)
}

// OrderRepository provides read-only access to the current state of customer orders
type OrderRepository interface {
	ListOrders(ctx context.Context) ([]entities.OrderEvent, error)
}
