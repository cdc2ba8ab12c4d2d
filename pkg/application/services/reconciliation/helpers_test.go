package reconciliation

import (
	"context"
	"testing"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/memory"
)

func newTestSnapshot(t *testing.T, catalog *memory.CatalogRepository, movements *memory.MovementRepository) *entities.Snapshot {
	t.Helper()
	snapshot, err := memory.NewSnapshotSource(catalog, movements).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	return snapshot
}
