package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/memory"
)

// Fixture ids shared by the scenario builders
const (
	Warehouse  entities.LocationID = "W1"
	Vehicle    entities.LocationID = "V1"
	Product    entities.ProductID  = "P1"
	Accessory  entities.ProductID  = "P2"
	TransferID                     = "TR-1"
)

// TransferDate is the date of the scenario transfer
var TransferDate = time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

// BuildScenarioCatalog returns one warehouse, one vehicle and two products.
// P1 is priced at 10, P2 at 2.50.
func BuildScenarioCatalog() *entities.Snapshot {
	return &entities.Snapshot{
		Products: []entities.Product{
			{ID: Product, Code: "WATER-20L", Price: decimal.NewFromInt(10)},
			{ID: Accessory, Code: "CUP-PACK", Price: decimal.RequireFromString("2.50")},
		},
		Locations: []entities.Location{
			{ID: Warehouse, Kind: entities.Warehouse, Name: "Central Warehouse"},
			{ID: Vehicle, Kind: entities.Vehicle, Name: "Van 1"},
		},
	}
}

// BuildTransferScenario moves 50 x P1 from the warehouse to the vehicle with the given status
func BuildTransferScenario(status entities.TransferStatus) *entities.Snapshot {
	snapshot := BuildScenarioCatalog()
	snapshot.Transfers = []entities.TransferEvent{
		{
			ID:         TransferID,
			SourceID:   Warehouse,
			SourceKind: entities.Warehouse,
			TargetID:   Vehicle,
			TargetKind: entities.Vehicle,
			Lines:      []entities.TransferLine{{ProductID: Product, Quantity: 50}},
			Date:       TransferDate,
			Status:     status,
		},
	}
	return snapshot
}

// BuildScenarioA is a completed transfer of 50 x P1: warehouse 450, vehicle 50
func BuildScenarioA() *entities.Snapshot {
	return BuildTransferScenario(entities.TransferCompleted)
}

// BuildScenarioB is the same transfer still pending: warehouse 450, vehicle 0
func BuildScenarioB() *entities.Snapshot {
	return BuildTransferScenario(entities.TransferPending)
}

// BuildScenarioC adds a delivered order of 5 x P1 on the vehicle: vehicle 45, warehouse 450
func BuildScenarioC() *entities.Snapshot {
	snapshot := BuildScenarioA()
	snapshot.Orders = []entities.OrderEvent{
		{
			ID:        "ORD-1",
			Lines:     []entities.OrderLine{{ProductID: Product, Quantity: 5, UnitPrice: decimal.NewFromInt(12)}},
			Status:    entities.OrderDelivered,
			VehicleID: Vehicle,
		},
	}
	return snapshot
}

// BuildScenarioD adds a delivered order of 10 x P1 with no vehicle. With the
// warehouse as fallback location the warehouse ends at 440.
func BuildScenarioD() *entities.Snapshot {
	snapshot := BuildScenarioA()
	snapshot.Orders = []entities.OrderEvent{
		{
			ID:     "ORD-2",
			Lines:  []entities.OrderLine{{ProductID: Product, Quantity: 10, UnitPrice: decimal.NewFromInt(12)}},
			Status: entities.OrderDelivered,
		},
	}
	return snapshot
}

// BuildDistributionTestData builds a two-warehouse, two-vehicle fleet with
// transfers and orders in every status
func BuildDistributionTestData() (*memory.CatalogRepository, *memory.MovementRepository) {
	products := []entities.Product{
		{ID: "P1", Code: "WATER-20L", Price: decimal.NewFromInt(10)},
		{ID: "P2", Code: "CUP-PACK", Price: decimal.RequireFromString("2.50")},
		{ID: "P3", Code: "DISPENSER", Price: decimal.NewFromInt(120)},
	}
	locations := []entities.Location{
		{ID: "W1", Kind: entities.Warehouse, Name: "Central Warehouse"},
		{ID: "W2", Kind: entities.Warehouse, Name: "North Depot"},
		{ID: "V1", Kind: entities.Vehicle, Name: "Van 1"},
		{ID: "V2", Kind: entities.Vehicle, Name: "Van 2"},
	}

	day := func(d int) time.Time { return time.Date(2025, 5, d, 8, 0, 0, 0, time.UTC) }

	transfers := []entities.TransferEvent{
		{
			ID: "TR-1", SourceID: "W1", SourceKind: entities.Warehouse, TargetID: "V1", TargetKind: entities.Vehicle,
			Lines:  []entities.TransferLine{{ProductID: "P1", Quantity: 50}, {ProductID: "P2", Quantity: 20}},
			Date:   day(20),
			Status: entities.TransferCompleted,
		},
		{
			ID: "TR-2", SourceID: "W1", SourceKind: entities.Warehouse, TargetID: "V2", TargetKind: entities.Vehicle,
			Lines:  []entities.TransferLine{{ProductID: "P1", Quantity: 30}},
			Date:   day(21),
			Status: entities.TransferPending,
		},
		{
			ID: "TR-3", SourceID: "W2", SourceKind: entities.Warehouse, TargetID: "V2", TargetKind: entities.Vehicle,
			Lines:  []entities.TransferLine{{ProductID: "P3", Quantity: 4}},
			Date:   day(21),
			Status: entities.TransferCancelled,
		},
		{
			ID: "TR-4", SourceID: "W1", SourceKind: entities.Warehouse, TargetID: "W2", TargetKind: entities.Warehouse,
			Lines:  []entities.TransferLine{{ProductID: "P3", Quantity: 495}},
			Date:   day(22),
			Status: entities.TransferCompleted,
		},
	}

	orders := []entities.OrderEvent{
		{ID: "ORD-1", Lines: []entities.OrderLine{{ProductID: "P1", Quantity: 5, UnitPrice: decimal.NewFromInt(12)}}, Status: entities.OrderDelivered, VehicleID: "V1"},
		{ID: "ORD-2", Lines: []entities.OrderLine{{ProductID: "P2", Quantity: 18, UnitPrice: decimal.NewFromInt(3)}}, Status: entities.OrderOutForDelivery, VehicleID: "V1"},
		{ID: "ORD-3", Lines: []entities.OrderLine{{ProductID: "P1", Quantity: 7, UnitPrice: decimal.NewFromInt(12)}}, Status: entities.OrderOutForDelivery, VehicleID: "V2"},
		{ID: "ORD-4", Lines: []entities.OrderLine{{ProductID: "P1", Quantity: 100, UnitPrice: decimal.NewFromInt(12)}}, Status: entities.OrderPendingWarehouse},
		{ID: "ORD-5", Lines: []entities.OrderLine{{ProductID: "P3", Quantity: 1, UnitPrice: decimal.NewFromInt(150)}}, Status: entities.OrderFailed, VehicleID: "V2"},
	}

	return memory.NewRepositories(&entities.Snapshot{
		Products:  products,
		Locations: locations,
		Transfers: transfers,
		Orders:    orders,
	})
}
