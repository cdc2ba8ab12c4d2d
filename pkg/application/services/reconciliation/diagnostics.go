package reconciliation

import (
	"fmt"
	"sort"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// EventKind names the collection a diagnostic came from
type EventKind string

const (
	TransferEventKind EventKind = "transfer"
	OrderEventKind    EventKind = "order"
)

// ReferenceReason classifies an unresolved reference
type ReferenceReason string

const (
	UnknownProduct       ReferenceReason = "unknown product"
	UnknownLocation      ReferenceReason = "unknown location"
	KindMismatch         ReferenceReason = "kind mismatch"
	NoWithdrawalLocation ReferenceReason = "no withdrawal location"
)

// ReferenceError reports an event line item whose effect was skipped because
// it names a product or location that the catalog does not resolve. It is
// returned as a diagnostic next to the result, never as the call's error.
type ReferenceError struct {
	Event      EventKind             `json:"event"`
	EventID    string                `json:"event_id"`
	Line       int                   `json:"line"`
	Reason     ReferenceReason       `json:"reason"`
	ProductID  entities.ProductID    `json:"product_id,omitempty"`
	LocationID entities.LocationID   `json:"location_id,omitempty"`
	Declared   entities.LocationKind `json:"declared_kind,omitempty"`
	Actual     entities.LocationKind `json:"actual_kind,omitempty"`
}

func (e ReferenceError) Error() string {
	prefix := fmt.Sprintf("%s %s line %d", e.Event, e.EventID, e.Line)
	switch e.Reason {
	case UnknownProduct:
		return fmt.Sprintf("%s: unknown product %q", prefix, e.ProductID)
	case UnknownLocation:
		return fmt.Sprintf("%s: unknown location %q", prefix, e.LocationID)
	case KindMismatch:
		return fmt.Sprintf("%s: location %q is a %s but the event declares %s", prefix, e.LocationID, e.Actual, e.Declared)
	case NoWithdrawalLocation:
		return fmt.Sprintf("%s: no assigned vehicle and no fallback location configured", prefix)
	default:
		return fmt.Sprintf("%s: %s", prefix, e.Reason)
	}
}

func sortDiagnostics(diagnostics []ReferenceError) {
	sort.Slice(diagnostics, func(i, j int) bool {
		a, b := diagnostics[i], diagnostics[j]
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		return a.LocationID < b.LocationID
	})
}
