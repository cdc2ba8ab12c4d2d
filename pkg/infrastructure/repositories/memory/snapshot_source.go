package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
)

const maxSnapshotAttempts = 5

// SnapshotSource reads a consistent snapshot across the catalog and movement
// repositories. A read is retried when a write lands between its parts.
type SnapshotSource struct {
	instance  string
	catalog   *CatalogRepository
	movements *MovementRepository
}

// NewSnapshotSource creates a snapshot source over the given repositories
func NewSnapshotSource(catalog *CatalogRepository, movements *MovementRepository) *SnapshotSource {
	return &SnapshotSource{
		instance:  uuid.NewString(),
		catalog:   catalog,
		movements: movements,
	}
}

// Verify interface compliance
var _ repositories.SnapshotSource = (*SnapshotSource)(nil)

// Snapshot returns copies of every product, location, transfer and order.
// The revision changes whenever any repository is written.
func (s *SnapshotSource) Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	for attempt := 0; attempt < maxSnapshotAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		before := s.revision()

		products, err := s.catalog.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		locations, err := s.catalog.ListLocations(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list locations: %w", err)
		}
		transfers, err := s.movements.ListTransfers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list transfers: %w", err)
		}
		orders, err := s.movements.ListOrders(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}

		if s.revision() == before {
			return &entities.Snapshot{
				Products:  products,
				Locations: locations,
				Transfers: transfers,
				Orders:    orders,
				Revision:  before,
			}, nil
		}
	}
	return nil, fmt.Errorf("repositories kept changing during %d snapshot attempts", maxSnapshotAttempts)
}

func (s *SnapshotSource) revision() string {
	return fmt.Sprintf("mem:%s:%d.%d", s.instance, s.catalog.Version(), s.movements.Version())
}

// NewRepositories loads a snapshot into fresh catalog and movement repositories
func NewRepositories(snapshot *entities.Snapshot) (*CatalogRepository, *MovementRepository) {
	catalog := NewCatalogRepository(len(snapshot.Products), len(snapshot.Locations))
	for _, product := range snapshot.Products {
		catalog.AddProduct(product)
	}
	for _, location := range snapshot.Locations {
		catalog.AddLocation(location)
	}

	movements := NewMovementRepository(len(snapshot.Transfers), len(snapshot.Orders))
	for _, transfer := range snapshot.Transfers {
		movements.AddTransfer(transfer)
	}
	for _, order := range snapshot.Orders {
		movements.AddOrder(order)
	}
	return catalog, movements
}
