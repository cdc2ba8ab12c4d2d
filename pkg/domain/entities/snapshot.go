package entities

// Snapshot is a consistent, read-only copy of everything a reconciliation reads.
// Revision identifies the state of the underlying sources; an empty revision
// means the source cannot tell whether its data changed.
type Snapshot struct {
	Products  []Product       `validate:"dive"`
	Locations []Location      `validate:"dive"`
	Transfers []TransferEvent `validate:"dive"`
	Orders    []OrderEvent    `validate:"dive"`
	Revision  string
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		Products:  cloneSlice(s.Products),
		Locations: cloneSlice(s.Locations),
		Revision:  s.Revision,
	}
	if s.Transfers != nil {
		clone.Transfers = make([]TransferEvent, len(s.Transfers))
		for i, t := range s.Transfers {
			clone.Transfers[i] = t.Clone()
		}
	}
	if s.Orders != nil {
		clone.Orders = make([]OrderEvent, len(s.Orders))
		for i, o := range s.Orders {
			clone.Orders[i] = o.Clone()
		}
	}
	return clone
}

// cloneSlice copies s while keeping a nil slice nil
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
