package repositories

import (
	"context"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// CatalogRepository provides read-only access to products and locations
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]entities.Product, error)
	ListLocations(ctx context.Context) ([]entities.Location, error)
}
