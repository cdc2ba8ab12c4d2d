package repositories

import (
	"context"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// SnapshotSource acquires a consistent copy of catalog and movement data.
// Implementations must release any resources they hold before returning.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*entities.Snapshot, error)
}
