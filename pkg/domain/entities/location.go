package entities

import "fmt"

// LocationID represents a unique location identifier, shared by warehouses and vehicles
type LocationID string

// LocationKind discriminates physical and mobile stock locations
type LocationKind string

const (
	Warehouse LocationKind = "warehouse"
	Vehicle   LocationKind = "vehicle"
)

// LocationKinds lists every supported kind in reporting order
var LocationKinds = []LocationKind{Warehouse, Vehicle}

// Valid reports whether k is a known location kind
func (k LocationKind) Valid() bool {
	return k == Warehouse || k == Vehicle
}

// String method for LocationKind enum
func (k LocationKind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return string(k)
}

// ParseLocationKind converts a textual kind into a LocationKind
func ParseLocationKind(s string) (LocationKind, error) {
	kind := LocationKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown location kind: %q", s)
	}
	return kind, nil
}

// Location represents a unit of stock custody: a warehouse or a delivery vehicle
type Location struct {
	ID   LocationID   `validate:"required"`
	Kind LocationKind `validate:"required,oneof=warehouse vehicle"`
	Name string
}

// NewLocation creates a validated Location
func NewLocation(id LocationID, kind LocationKind, name string) (*Location, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("location id cannot be empty")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown location kind: %q", string(kind))
	}

	return &Location{
		ID:   id,
		Kind: kind,
		Name: name,
	}, nil
}
