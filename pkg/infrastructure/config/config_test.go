package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"STOCK_WAREHOUSE_BASELINE", "STOCK_VEHICLE_BASELINE", "STOCK_FALLBACK_LOCATION", "STOCK_LOW_THRESHOLD",
		"LOG_LEVEL", "LOG_FORMAT", "CACHE_SIZE", "CACHE_TTL", "REDIS_ADDRESS", "DATABASE_DSN", "HTTP_ADDR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WarehouseBaseline != 500 || cfg.VehicleBaseline != 0 {
		t.Errorf("Expected baselines 500/0, got %d/%d", cfg.WarehouseBaseline, cfg.VehicleBaseline)
	}
	if cfg.FallbackLocation != "" {
		t.Errorf("Expected no fallback location, got %q", cfg.FallbackLocation)
	}
	if cfg.LowStockThreshold != 10 || cfg.CacheSize != 64 || cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" || cfg.HTTPAddr != ":8080" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOCK_WAREHOUSE_BASELINE", "250")
	t.Setenv("STOCK_VEHICLE_BASELINE", "5")
	t.Setenv("STOCK_FALLBACK_LOCATION", " W1 ")
	t.Setenv("STOCK_LOW_THRESHOLD", "3")
	t.Setenv("CACHE_SIZE", "0")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WarehouseBaseline != 250 || cfg.VehicleBaseline != 5 || cfg.LowStockThreshold != 3 {
		t.Errorf("Unexpected quantities %+v", cfg)
	}
	if cfg.FallbackLocation != "W1" {
		t.Errorf("Expected trimmed fallback W1, got %q", cfg.FallbackLocation)
	}
	if cfg.CacheSize != 0 || cfg.CacheTTL != 90*time.Second || cfg.RedisAddress != "localhost:6379" {
		t.Errorf("Unexpected cache settings %+v", cfg)
	}
}

func TestLoad_MalformedValues(t *testing.T) {
	testCases := []struct {
		key         string
		value       string
		expectError string
	}{
		{"STOCK_WAREHOUSE_BASELINE", "lots", `invalid STOCK_WAREHOUSE_BASELINE "lots"`},
		{"STOCK_LOW_THRESHOLD", "1.5", `invalid STOCK_LOW_THRESHOLD "1.5"`},
		{"CACHE_SIZE", "-1", "CACHE_SIZE must not be negative"},
		{"CACHE_TTL", "5", `invalid CACHE_TTL "5"`},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, but got none", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error to contain '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}
