package consistency

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/fieldops/stockrecon/pkg/application/dto"
	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// Reconciler is the part of the engine the checks exercise
type Reconciler interface {
	Reconcile(snapshot *entities.Snapshot) (*reconciliation.Result, error)
}

// IsIdempotent reconciles the snapshot twice and reports whether both results
// are structurally equal and the snapshot is unchanged afterwards. A snapshot
// that fails validation returns the validation error.
func IsIdempotent(engine Reconciler, snapshot *entities.Snapshot) (bool, error) {
	before := snapshot.Clone()

	first, err := engine.Reconcile(snapshot)
	if err != nil {
		return false, err
	}
	second, err := engine.Reconcile(snapshot)
	if err != nil {
		return false, err
	}

	if !first.Equal(second) {
		return false, nil
	}
	return reflect.DeepEqual(before, snapshot), nil
}

// IsOrderIndependent reports whether reconciling the snapshot with its
// transfers and orders in reverse order yields the same result
func IsOrderIndependent(engine Reconciler, snapshot *entities.Snapshot) (bool, error) {
	reversed := snapshot.Clone()
	for i, j := 0, len(reversed.Transfers)-1; i < j; i, j = i+1, j-1 {
		reversed.Transfers[i], reversed.Transfers[j] = reversed.Transfers[j], reversed.Transfers[i]
	}
	for i, j := 0, len(reversed.Orders)-1; i < j; i, j = i+1, j-1 {
		reversed.Orders[i], reversed.Orders[j] = reversed.Orders[j], reversed.Orders[i]
	}

	forward, err := engine.Reconcile(snapshot)
	if err != nil {
		return false, err
	}
	backward, err := engine.Reconcile(reversed)
	if err != nil {
		return false, err
	}
	return forward.Equal(backward), nil
}

// NegativeStockReport lists every location and product pair below zero,
// sorted by location then product
func NegativeStockReport(quantities reconciliation.QuantityMap) []dto.NegativeStock {
	report := make([]dto.NegativeStock, 0)
	for _, cell := range quantities.Cells() {
		if cell.Quantity < 0 {
			report = append(report, dto.NegativeStock{
				LocationID: cell.LocationID,
				ProductID:  cell.ProductID,
				Quantity:   cell.Quantity,
			})
		}
	}
	return report
}

// LedgerMismatch is a cell whose movement breakdown does not add up to its quantity
type LedgerMismatch struct {
	LocationID entities.LocationID
	ProductID  entities.ProductID
	Quantity   entities.Quantity
	Ledger     entities.Quantity
}

func (m LedgerMismatch) String() string {
	return fmt.Sprintf("%s/%s: quantity %d, ledger %d", m.LocationID, m.ProductID, m.Quantity, m.Ledger)
}

// VerifyLedger checks Quantity = Opening + TransferIn - TransferOut - OrderOut
// for every cell and that the ledger and the quantity map cover the same cells
func VerifyLedger(result *reconciliation.Result) []LedgerMismatch {
	var mismatches []LedgerMismatch

	for _, cell := range result.Quantities.Cells() {
		movement, exists := result.Ledger.Get(cell.LocationID, cell.ProductID)
		if !exists || movement.OnHand() != cell.Quantity {
			mismatches = append(mismatches, LedgerMismatch{
				LocationID: cell.LocationID,
				ProductID:  cell.ProductID,
				Quantity:   cell.Quantity,
				Ledger:     movement.OnHand(),
			})
		}
	}

	for location, products := range result.Ledger {
		for product, movement := range products {
			if _, exists := result.Quantities.Get(location, product); !exists {
				mismatches = append(mismatches, LedgerMismatch{
					LocationID: location,
					ProductID:  product,
					Ledger:     movement.OnHand(),
				})
			}
		}
	}

	sort.Slice(mismatches, func(i, j int) bool {
		if mismatches[i].LocationID != mismatches[j].LocationID {
			return mismatches[i].LocationID < mismatches[j].LocationID
		}
		return mismatches[i].ProductID < mismatches[j].ProductID
	})
	return mismatches
}
