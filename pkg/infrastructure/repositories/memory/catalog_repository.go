package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
)

// CatalogRepository provides in-memory product and location storage.
// Insertion order is preserved and used as catalog order.
type CatalogRepository struct {
	mu            sync.RWMutex
	products      []entities.Product
	productIndex  map[entities.ProductID]int
	locations     []entities.Location
	locationIndex map[entities.LocationID]int
	version       uint64
}

// NewCatalogRepository creates a new in-memory catalog repository
func NewCatalogRepository(expectedProducts, expectedLocations int) *CatalogRepository {
	return &CatalogRepository{
		products:      make([]entities.Product, 0, expectedProducts),
		productIndex:  make(map[entities.ProductID]int, expectedProducts),
		locations:     make([]entities.Location, 0, expectedLocations),
		locationIndex: make(map[entities.LocationID]int, expectedLocations),
	}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// AddProduct adds a product, replacing any product with the same id in place
func (r *CatalogRepository) AddProduct(product entities.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.productIndex[product.ID]; exists {
		r.products[index] = product
	} else {
		r.productIndex[product.ID] = len(r.products)
		r.products = append(r.products, product)
	}
	r.version++
}

// AddLocation adds a location, replacing any location with the same id in place
func (r *CatalogRepository) AddLocation(location entities.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.locationIndex[location.ID]; exists {
		r.locations[index] = location
	} else {
		r.locationIndex[location.ID] = len(r.locations)
		r.locations = append(r.locations, location)
	}
	r.version++
}

// GetProduct returns a copy of the product with the given id
func (r *CatalogRepository) GetProduct(id entities.ProductID) (*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.productIndex[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrProductNotFound, id)
	}
	product := r.products[index]
	return &product, nil
}

// GetLocation returns a copy of the location with the given id
func (r *CatalogRepository) GetLocation(id entities.LocationID) (*entities.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.locationIndex[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrLocationNotFound, id)
	}
	location := r.locations[index]
	return &location, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.Product(nil), r.products...), nil
}

func (r *CatalogRepository) ListLocations(ctx context.Context) ([]entities.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entities.Location(nil), r.locations...), nil
}

// Version increases on every write
func (r *CatalogRepository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}
