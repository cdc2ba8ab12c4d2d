package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, ProductsFile, "product_id,code,price\nP1,WATER-20L,10\nP2,CUP-PACK,2.50\n")
	writeFile(t, dir, LocationsFile, "location_id,kind,name\nW1,warehouse,Central Warehouse\nV1,vehicle,Van 1\n")
	writeFile(t, dir, TransfersFile, strings.Join([]string{
		"transfer_id,source_id,source_kind,target_id,target_kind,date,status,product_id,quantity",
		"TR-1,W1,warehouse,V1,vehicle,2025-05-20,completed,P1,50",
		"TR-1,W1,warehouse,V1,vehicle,2025-05-20,completed,P2,20",
		"TR-2,W1,warehouse,V1,vehicle,2025-05-21T09:30:00Z,pending,P1,5",
	}, "\n")+"\n")
	writeFile(t, dir, OrdersFile, strings.Join([]string{
		"order_id,status,vehicle_id,product_id,quantity,unit_price",
		"ORD-1,delivered,V1,P1,5,12",
		"ORD-1,delivered,V1,P2,1,3.10",
		"ORD-2,pending_warehouse,,P1,10,",
	}, "\n")+"\n")
	return dir
}

func TestLoader_LoadSnapshot(t *testing.T) {
	snapshot, err := NewLoader().LoadSnapshot(DirFiles(writeScenario(t)))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if len(snapshot.Products) != 2 || len(snapshot.Locations) != 2 {
		t.Fatalf("Expected 2 products and 2 locations, got %d and %d", len(snapshot.Products), len(snapshot.Locations))
	}
	if !snapshot.Products[1].Price.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected price 2.50, got %s", snapshot.Products[1].Price)
	}
	if snapshot.Locations[1].Kind != entities.Vehicle {
		t.Errorf("Expected V1 to be a vehicle, got %s", snapshot.Locations[1].Kind)
	}

	if len(snapshot.Transfers) != 2 {
		t.Fatalf("Expected 2 transfers, got %d", len(snapshot.Transfers))
	}
	first := snapshot.Transfers[0]
	if first.ID != "TR-1" || len(first.Lines) != 2 || first.Lines[1].Quantity != 20 {
		t.Errorf("Expected TR-1 with two lines, got %+v", first)
	}
	if !first.Date.Equal(time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected date %s", first.Date)
	}
	if snapshot.Transfers[1].Date.Hour() != 9 {
		t.Errorf("Expected RFC 3339 timestamp to be parsed, got %s", snapshot.Transfers[1].Date)
	}

	if len(snapshot.Orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(snapshot.Orders))
	}
	if len(snapshot.Orders[0].Lines) != 2 || snapshot.Orders[0].VehicleID != "V1" {
		t.Errorf("Expected ORD-1 with two lines on V1, got %+v", snapshot.Orders[0])
	}
	if snapshot.Orders[1].Assigned() || !snapshot.Orders[1].Lines[0].UnitPrice.IsZero() {
		t.Errorf("Expected ORD-2 unassigned with zero price, got %+v", snapshot.Orders[1])
	}
}

func TestLoader_MovementFilesAreOptional(t *testing.T) {
	dir := writeScenario(t)
	os.Remove(filepath.Join(dir, TransfersFile))
	os.Remove(filepath.Join(dir, OrdersFile))

	snapshot, err := NewLoader().LoadSnapshot(DirFiles(dir))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snapshot.Transfers != nil || snapshot.Orders != nil {
		t.Errorf("Expected no movements, got %d transfers and %d orders", len(snapshot.Transfers), len(snapshot.Orders))
	}
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		file        string
		content     string
		load        func(l *Loader, path string) error
		expectError string
	}{
		{
			name:        "header mismatch",
			file:        ProductsFile,
			content:     "id,code,price\nP1,X,1\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadProducts(p); return err },
			expectError: "products CSV header mismatch",
		},
		{
			name:        "bad price",
			file:        ProductsFile,
			content:     "product_id,code,price\nP1,X,ten\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadProducts(p); return err },
			expectError: "products CSV row 2: invalid price: ten",
		},
		{
			name:        "unknown location kind",
			file:        LocationsFile,
			content:     "location_id,kind,name\nS1,store,Shop\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadLocations(p); return err },
			expectError: `locations CSV row 2: unknown location kind: "store"`,
		},
		{
			name: "transfer rows disagree",
			file: TransfersFile,
			content: "transfer_id,source_id,source_kind,target_id,target_kind,date,status,product_id,quantity\n" +
				"TR-1,W1,warehouse,V1,vehicle,2025-05-20,completed,P1,5\n" +
				"TR-1,W1,warehouse,V1,vehicle,2025-05-20,pending,P2,5\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadTransfers(p); return err },
			expectError: "transfers CSV row 3: transfer TR-1 disagrees with its earlier rows",
		},
		{
			name: "zero quantity",
			file: TransfersFile,
			content: "transfer_id,source_id,source_kind,target_id,target_kind,date,status,product_id,quantity\n" +
				"TR-1,W1,warehouse,V1,vehicle,2025-05-20,completed,P1,0\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadTransfers(p); return err },
			expectError: "quantity must be positive",
		},
		{
			name:        "bad date",
			file:        TransfersFile,
			content:     "transfer_id,source_id,source_kind,target_id,target_kind,date,status,product_id,quantity\nTR-1,W1,warehouse,V1,vehicle,20/05/2025,completed,P1,1\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadTransfers(p); return err },
			expectError: "invalid date format: 20/05/2025",
		},
		{
			name:        "unknown order status",
			file:        OrdersFile,
			content:     "order_id,status,vehicle_id,product_id,quantity,unit_price\nORD-1,shipped,V1,P1,1,1\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadOrders(p); return err },
			expectError: `unknown order status: "shipped"`,
		},
		{
			name:        "missing column",
			file:        OrdersFile,
			content:     "order_id,status,vehicle_id,product_id,quantity,unit_price\nORD-1,delivered,V1,P1,1\n",
			load:        func(l *Loader, p string) error { _, err := l.LoadOrders(p); return err },
			expectError: "wrong number of fields",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tc.file, tc.content)
			err := tc.load(NewLoader(), path)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error to contain '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}
