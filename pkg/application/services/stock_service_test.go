package services

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
	domainservices "github.com/fieldops/stockrecon/pkg/domain/services"
	"github.com/fieldops/stockrecon/pkg/infrastructure/cache"
	"github.com/fieldops/stockrecon/pkg/infrastructure/events"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/fieldops/stockrecon/pkg/infrastructure/testing"
)

// staticSource returns copies of a fixed snapshot
type staticSource struct {
	snapshot *entities.Snapshot
	reads    int
}

func (s *staticSource) Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	s.reads++
	return s.snapshot.Clone(), nil
}

// countingCache records purges on top of an LRU
type countingCache struct {
	*cache.LRU[*projection.View]
	purges int
}

func (c *countingCache) Purge(ctx context.Context) error {
	c.purges++
	return c.LRU.Purge(ctx)
}

func newCountingCache(t *testing.T) *countingCache {
	t.Helper()
	lru, err := cache.NewLRU[*projection.View](8)
	if err != nil {
		t.Fatalf("NewLRU failed: %v", err)
	}
	return &countingCache{LRU: lru}
}

func TestStockService_View(t *testing.T) {
	catalog, movements := testhelpers.BuildDistributionTestData()
	service := NewStockService(memory.NewSnapshotSource(catalog, movements), DefaultStockConfig(), nil, nil)

	view, err := service.View(context.Background())
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	stock, err := view.ByLocation("V1")
	if err != nil {
		t.Fatalf("ByLocation failed: %v", err)
	}
	if stock[0].Quantity != 45 {
		t.Errorf("Expected V1/P1 = 45, got %d", stock[0].Quantity)
	}
	if view.LowStockThreshold() != projection.DefaultLowStockThreshold {
		t.Errorf("Expected default threshold, got %d", view.LowStockThreshold())
	}
}

func TestStockService_CachesByRevision(t *testing.T) {
	ctx := context.Background()
	catalog, movements := testhelpers.BuildDistributionTestData()
	views := newCountingCache(t)
	service := NewStockService(memory.NewSnapshotSource(catalog, movements), DefaultStockConfig(), views, nil)

	first, err := service.View(ctx)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	second, _ := service.View(ctx)
	if first != second {
		t.Error("Expected unchanged revision to be served from cache")
	}

	transfer, _ := movements.GetTransfer("TR-2")
	transfer.Status = entities.TransferCompleted
	movements.AddTransfer(*transfer)

	third, _ := service.View(ctx)
	if third == first {
		t.Fatal("Expected a new view after the movement repository changed")
	}
	holders, _ := third.ByProduct("P1")
	for _, h := range holders {
		if h.LocationID == "V2" && h.Quantity != 23 {
			t.Errorf("Expected V2/P1 = 23 after completion, got %d", h.Quantity)
		}
	}
}

func TestStockService_NoCachingWithoutRevision(t *testing.T) {
	source := &staticSource{snapshot: testhelpers.BuildScenarioA()}
	views := newCountingCache(t)
	service := NewStockService(source, DefaultStockConfig(), views, nil)

	first, _ := service.View(context.Background())
	second, _ := service.View(context.Background())

	if first == second {
		t.Error("Expected a fresh view for snapshots without a revision")
	}
	if views.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d entries", views.Len())
	}
}

func TestStockService_PurgesOnMovementEvents(t *testing.T) {
	store := events.NewInMemoryEventStore(nil)
	catalog, movements := testhelpers.BuildDistributionTestData()
	views := newCountingCache(t)
	service := NewStockService(memory.NewSnapshotSource(catalog, movements), DefaultStockConfig(), views, nil)

	if err := store.Subscribe(events.MovementEventTypes, movements); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := service.Subscribe(store); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	before, _ := service.View(context.Background())
	if views.Len() != 1 {
		t.Fatalf("Expected one cached view, got %d", views.Len())
	}

	if err := store.AppendEvent(events.OrderStream("ORD-4"), events.NewOrderAssignedEvent("ORD-4", "V2")); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}
	store.AppendEvent(events.OrderStream("ORD-4"), events.NewOrderStatusChangedEvent("ORD-4", entities.OrderPendingWarehouse, entities.OrderDelivered))

	if views.purges != 2 {
		t.Errorf("Expected 2 purges, got %d", views.purges)
	}

	after, _ := service.View(context.Background())
	if after == before {
		t.Fatal("Expected a new view after events were appended")
	}
	stock, _ := after.ByLocation("V2")
	if stock[0].Quantity != -107 {
		t.Errorf("Expected V2/P1 = -107 after delivering ORD-4 from V2, got %d", stock[0].Quantity)
	}
}

func TestStockService_Errors(t *testing.T) {
	if _, err := NewStockService(nil, DefaultStockConfig(), nil, nil).View(context.Background()); !errors.Is(err, ErrNoSnapshotSource) {
		t.Errorf("Expected ErrNoSnapshotSource, got %v", err)
	}

	invalid := testhelpers.BuildScenarioA()
	invalid.Transfers[0].Status = "lost"
	_, err := NewStockService(&staticSource{snapshot: invalid}, DefaultStockConfig(), nil, nil).View(context.Background())

	var validationErr *domainservices.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}
