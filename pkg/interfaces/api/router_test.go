package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/fieldops/stockrecon/pkg/application/services"
	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	domainservices "github.com/fieldops/stockrecon/pkg/domain/services"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/fieldops/stockrecon/pkg/infrastructure/testing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	catalog, movements := testhelpers.BuildDistributionTestData()
	service := services.NewStockService(memory.NewSnapshotSource(catalog, movements), services.DefaultStockConfig(), nil, nil)
	return NewRouter(service, service.Config().Policy.Fingerprint(), nil)
}

type failingProvider struct {
	err error
}

func (p failingProvider) View(ctx context.Context) (*projection.View, error) {
	return nil, p.err
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Expected JSON body, got %q: %v", rec.Body.String(), err)
	}
}

func TestRouter_StatusCodes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusNoContent},
		{"/stock", http.StatusOK},
		{"/stock?kind=truck", http.StatusBadRequest},
		{"/stock?nonzero=maybe", http.StatusBadRequest},
		{"/stock/locations/W2", http.StatusOK},
		{"/stock/locations/X9", http.StatusNotFound},
		{"/stock/products/P1", http.StatusOK},
		{"/stock/products/P9", http.StatusNotFound},
		{"/stock/low?threshold=low", http.StatusBadRequest},
		{"/stock/value?location=X9", http.StatusNotFound},
		{"/stock/loadings?from=21-05-2025", http.StatusBadRequest},
		{"/stock/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := get(t, router, tt.path); rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_Lines(t *testing.T) {
	rec := get(t, newTestRouter(), "/stock?kind=vehicle&nonzero=true")

	var body struct {
		Revision string `json:"revision"`
		Lines    []struct {
			LocationID string `json:"location_id"`
			Quantity   int64  `json:"quantity"`
			LowStock   bool   `json:"low_stock"`
		} `json:"lines"`
	}
	decode(t, rec, &body)

	if body.Revision == "" {
		t.Error("Expected a revision")
	}
	if len(body.Lines) != 3 {
		t.Fatalf("Expected 3 non-zero vehicle lines, got %+v", body.Lines)
	}
	if body.Lines[2].LocationID != "V2" || body.Lines[2].Quantity != -7 || !body.Lines[2].LowStock {
		t.Errorf("Expected low V2 line at -7, got %+v", body.Lines[2])
	}
}

func TestRouter_ByLocationAndProduct(t *testing.T) {
	router := newTestRouter()

	var location struct {
		Products []struct {
			ProductID string `json:"product_id"`
			Quantity  int64  `json:"quantity"`
		} `json:"products"`
	}
	decode(t, get(t, router, "/stock/locations/W2"), &location)
	if len(location.Products) != 3 || location.Products[2].Quantity != 995 {
		t.Errorf("Expected W2 to hold 995 of P3, got %+v", location.Products)
	}

	var product struct {
		Locations []struct {
			LocationID string `json:"location_id"`
			Quantity   int64  `json:"quantity"`
		} `json:"locations"`
	}
	decode(t, get(t, router, "/stock/products/P1"), &product)
	expected := map[string]int64{"W1": 420, "W2": 500, "V1": 45, "V2": -7}
	if len(product.Locations) != len(expected) {
		t.Fatalf("Expected %d locations, got %+v", len(expected), product.Locations)
	}
	for _, l := range product.Locations {
		if expected[l.LocationID] != l.Quantity {
			t.Errorf("%s: expected %d, got %d", l.LocationID, expected[l.LocationID], l.Quantity)
		}
	}
}

func TestRouter_LowStockAndValue(t *testing.T) {
	router := newTestRouter()

	var low struct {
		Threshold int64             `json:"threshold"`
		Lines     []json.RawMessage `json:"lines"`
	}
	decode(t, get(t, router, "/stock/low"), &low)
	if low.Threshold != 10 || len(low.Lines) != 6 {
		t.Errorf("Expected 6 lines below the default threshold 10, got %d below %d", len(low.Lines), low.Threshold)
	}

	decode(t, get(t, router, "/stock/low?threshold=1"), &low)
	if len(low.Lines) != 4 {
		t.Errorf("Expected 4 lines below 1, got %d", len(low.Lines))
	}

	decode(t, get(t, router, "/stock/low?threshold=-1"), &low)
	if low.Threshold != -1 || len(low.Lines) != 1 {
		t.Errorf("Expected only the negative cell below -1, got %d below %d", len(low.Lines), low.Threshold)
	}

	var value struct {
		Value string `json:"value"`
	}
	decode(t, get(t, router, "/stock/value?location=W1"), &value)
	if value.Value != "6000" {
		t.Errorf("Expected W1 value 6000, got %s", value.Value)
	}
	decode(t, get(t, router, "/stock/value"), &value)
	if value.Value != "132035" {
		t.Errorf("Expected total value 132035, got %s", value.Value)
	}

	var negative struct {
		NegativeStock []struct {
			LocationID string `json:"location_id"`
			Quantity   int64  `json:"quantity"`
		} `json:"negative_stock"`
	}
	decode(t, get(t, router, "/stock/negative"), &negative)
	if len(negative.NegativeStock) != 1 || negative.NegativeStock[0].Quantity != -7 {
		t.Errorf("Expected V2/P1 at -7, got %+v", negative.NegativeStock)
	}
}

func TestRouter_Loadings(t *testing.T) {
	router := newTestRouter()

	var body struct {
		Loadings []struct {
			TransferID string `json:"transfer_id"`
		} `json:"loadings"`
	}

	decode(t, get(t, router, "/stock/loadings"), &body)
	if len(body.Loadings) != 3 {
		t.Errorf("Expected 3 vehicle loadings, got %+v", body.Loadings)
	}

	decode(t, get(t, router, "/stock/loadings?from=2025-05-21&to=2025-05-21"), &body)
	if len(body.Loadings) != 2 || body.Loadings[0].TransferID != "TR-2" {
		t.Errorf("Expected TR-2 and TR-3, got %+v", body.Loadings)
	}

	decode(t, get(t, router, "/stock/loadings?vehicle=V1&source=W1"), &body)
	if len(body.Loadings) != 1 || body.Loadings[0].TransferID != "TR-1" {
		t.Errorf("Expected TR-1, got %+v", body.Loadings)
	}
}

func TestRouter_ExportXLSX(t *testing.T) {
	rec := get(t, newTestRouter(), "/stock/export.xlsx?kind=warehouse")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Unexpected content type %s", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Expected a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Stock")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	// header, 6 warehouse lines, total
	if len(rows) != 8 {
		t.Errorf("Expected 8 rows, got %d", len(rows))
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &domainservices.ValidationError{Issues: []domainservices.Issue{{Entity: "transfer", ID: "TR-1", Problem: "duplicate id"}}}, http.StatusUnprocessableEntity},
		{"no source", services.ErrNoSnapshotSource, http.StatusServiceUnavailable},
		{"database down", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(failingProvider{err: tt.err}, "", nil)
			if rec := get(t, router, "/stock"); rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(correlationHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get(correlationHeader); got != "req-42" {
		t.Errorf("Expected correlation id to be echoed, got %q", got)
	}

	if got := get(t, router, "/healthz").Header().Get(correlationHeader); got == "" {
		t.Error("Expected a generated correlation id")
	}
}
