package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

func validSnapshot() *entities.Snapshot {
	return &entities.Snapshot{
		Products: []entities.Product{
			{ID: "P1", Code: "SKU-1", Price: decimal.NewFromInt(10)},
		},
		Locations: []entities.Location{
			{ID: "W1", Kind: entities.Warehouse, Name: "Central"},
			{ID: "V1", Kind: entities.Vehicle, Name: "Van 1"},
		},
		Transfers: []entities.TransferEvent{
			{
				ID:         "TR-1",
				SourceID:   "W1",
				SourceKind: entities.Warehouse,
				TargetID:   "V1",
				TargetKind: entities.Vehicle,
				Lines:      []entities.TransferLine{{ProductID: "P1", Quantity: 50}},
				Status:     entities.TransferCompleted,
			},
		},
		Orders: []entities.OrderEvent{
			{
				ID:        "ORD-1",
				Lines:     []entities.OrderLine{{ProductID: "P1", Quantity: 5, UnitPrice: decimal.NewFromInt(12)}},
				Status:    entities.OrderDelivered,
				VehicleID: "V1",
			},
		},
	}
}

func TestSnapshotValidator_AcceptsWellFormedSnapshot(t *testing.T) {
	validator := NewSnapshotValidator()

	if err := validator.Validate(validSnapshot()); err != nil {
		t.Fatalf("Expected valid snapshot, got %v", err)
	}
	if err := validator.Validate(&entities.Snapshot{}); err != nil {
		t.Fatalf("Expected empty snapshot to be valid, got %v", err)
	}
}

func TestSnapshotValidator_RejectsMalformedEntities(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(s *entities.Snapshot)
		expectIssue string
	}{
		{
			"transfer without status",
			func(s *entities.Snapshot) { s.Transfers[0].Status = "" },
			"transfer TR-1: Status is required",
		},
		{
			"transfer with unknown status",
			func(s *entities.Snapshot) { s.Transfers[0].Status = "lost" },
			`transfer TR-1: Status must be one of [pending completed cancelled], got "lost"`,
		},
		{
			"transfer without lines",
			func(s *entities.Snapshot) { s.Transfers[0].Lines = nil },
			"transfer TR-1: Lines is required",
		},
		{
			"transfer line with zero quantity",
			func(s *entities.Snapshot) { s.Transfers[0].Lines[0].Quantity = 0 },
			"transfer TR-1: Lines[0].Quantity must be greater than 0, got 0",
		},
		{
			"order line without product",
			func(s *entities.Snapshot) { s.Orders[0].Lines[0].ProductID = "" },
			"order ORD-1: Lines[0].ProductID is required",
		},
		{
			"order with unknown status",
			func(s *entities.Snapshot) { s.Orders[0].Status = "shipped" },
			`order ORD-1: Status must be one of [pending_warehouse assigned_to_driver out_for_delivery delivered failed], got "shipped"`,
		},
		{
			"location with unknown kind",
			func(s *entities.Snapshot) { s.Locations[1].Kind = "store" },
			`location V1: Kind must be one of [warehouse vehicle], got "store"`,
		},
		{
			"product with negative price",
			func(s *entities.Snapshot) { s.Products[0].Price = decimal.NewFromInt(-3) },
			"product P1: Price must be at least 0, got -3",
		},
		{
			"product without id",
			func(s *entities.Snapshot) { s.Products[0].ID = "" },
			"product <no id>: ID is required",
		},
		{
			"duplicate transfer ids",
			func(s *entities.Snapshot) { s.Transfers = append(s.Transfers, s.Transfers[0].Clone()) },
			"transfer TR-1: duplicate id",
		},
		{
			"duplicate location ids",
			func(s *entities.Snapshot) { s.Locations[1].ID = "W1" },
			"location W1: duplicate id",
		},
	}

	validator := NewSnapshotValidator()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := validSnapshot()
			tc.mutate(snapshot)

			err := validator.Validate(snapshot)
			if err == nil {
				t.Fatalf("Expected validation error for %s, but got none", tc.name)
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.expectIssue) {
				t.Errorf("Expected error to contain '%s', got '%s'", tc.expectIssue, err.Error())
			}
		})
	}
}

func TestSnapshotValidator_ReportsEveryIssue(t *testing.T) {
	snapshot := validSnapshot()
	snapshot.Transfers[0].Status = ""
	snapshot.Orders[0].Lines[0].Quantity = -1

	err := NewSnapshotValidator().Validate(snapshot)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if len(validationErr.Issues) != 2 {
		t.Errorf("Expected 2 issues, got %d: %v", len(validationErr.Issues), validationErr.Issues)
	}
}

func TestSnapshotValidator_NilSnapshot(t *testing.T) {
	err := NewSnapshotValidator().Validate(nil)
	if err == nil || !strings.Contains(err.Error(), "snapshot <no id>: is missing") {
		t.Errorf("Expected missing snapshot error, got %v", err)
	}
}
