package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

// Config holds the runtime settings of the stockrecon binaries
type Config struct {
	WarehouseBaseline entities.Quantity
	VehicleBaseline   entities.Quantity
	FallbackLocation  entities.LocationID
	LowStockThreshold entities.Quantity

	LogLevel  string
	LogFormat string

	CacheSize    int
	CacheTTL     time.Duration
	RedisAddress string
	DatabaseDSN  string
	HTTPAddr     string
}

// Load reads an optional .env file and then the environment.
// Unset variables take their defaults; malformed ones are errors.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		FallbackLocation: entities.LocationID(getEnv("STOCK_FALLBACK_LOCATION", "")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		RedisAddress:     getEnv("REDIS_ADDRESS", ""),
		DatabaseDSN:      getEnv("DATABASE_DSN", ""),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.WarehouseBaseline, err = quantityFromEnv("STOCK_WAREHOUSE_BASELINE", 500); err != nil {
		return nil, err
	}
	if cfg.VehicleBaseline, err = quantityFromEnv("STOCK_VEHICLE_BASELINE", 0); err != nil {
		return nil, err
	}
	if cfg.LowStockThreshold, err = quantityFromEnv("STOCK_LOW_THRESHOLD", 10); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = intFromEnv("CACHE_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("CACHE_SIZE must not be negative, got %d", cfg.CacheSize)
	}
	if cfg.CacheTTL, err = durationFromEnv("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func quantityFromEnv(key string, def entities.Quantity) (entities.Quantity, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return entities.Quantity(n), nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
