package reconciliation

import (
	"fmt"
	"strings"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// Reference baselines: every warehouse opens with 500 units of every product,
// every vehicle opens empty. They stand in for a real opening-balance ledger.
const (
	DefaultWarehouseBaseline entities.Quantity = 500
	DefaultVehicleBaseline   entities.Quantity = 0
)

// BaselinePolicy supplies the opening quantity of every product at a location of the given kind
type BaselinePolicy interface {
	Baseline(kind entities.LocationKind) entities.Quantity
}

// BaselineTable is a BaselinePolicy backed by a fixed table. Kinds missing
// from the table open at zero.
type BaselineTable map[entities.LocationKind]entities.Quantity

// Baseline implements BaselinePolicy
func (t BaselineTable) Baseline(kind entities.LocationKind) entities.Quantity {
	return t[kind]
}

// BaselineFunc adapts a function to a BaselinePolicy
type BaselineFunc func(kind entities.LocationKind) entities.Quantity

// Baseline implements BaselinePolicy
func (f BaselineFunc) Baseline(kind entities.LocationKind) entities.Quantity {
	return f(kind)
}

// DefaultBaselines returns the reference baseline table
func DefaultBaselines() BaselineTable {
	return BaselineTable{
		entities.Warehouse: DefaultWarehouseBaseline,
		entities.Vehicle:   DefaultVehicleBaseline,
	}
}

// Policy holds the replay parameters that are not part of the event data
type Policy struct {
	Baseline BaselinePolicy

	// FallbackLocationID is the default consolidation location. Orders that
	// withdraw stock without an assigned vehicle are deducted here. Choosing the
	// wrong location silently corrupts that location's figures; leaving it empty
	// turns every unassigned withdrawal into a reference diagnostic instead.
	FallbackLocationID entities.LocationID
}

// DefaultPolicy returns the reference baselines with no fallback location
func DefaultPolicy() Policy {
	return Policy{Baseline: DefaultBaselines()}
}

// baseline returns the opening quantity for kind, using the reference table when unset
func (p Policy) baseline(kind entities.LocationKind) entities.Quantity {
	if p.Baseline == nil {
		return DefaultBaselines().Baseline(kind)
	}
	return p.Baseline.Baseline(kind)
}

// Fingerprint identifies the policy's observable behaviour, for use in cache keys
func (p Policy) Fingerprint() string {
	parts := make([]string, 0, len(entities.LocationKinds)+1)
	for _, kind := range entities.LocationKinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, p.baseline(kind)))
	}
	parts = append(parts, "fallback="+string(p.FallbackLocationID))
	return strings.Join(parts, ",")
}
