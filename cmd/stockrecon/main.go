package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fieldops/stockrecon/pkg/infrastructure/config"
	"github.com/fieldops/stockrecon/pkg/interfaces/cli/commands"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Command line flags; defaults come from the environment
	var (
		scenarioDir       = flag.String("scenario", "", "Path to scenario directory containing CSV files")
		productsFile      = flag.String("products", "", "Path to products CSV file")
		locationsFile     = flag.String("locations", "", "Path to locations CSV file")
		transfersFile     = flag.String("transfers", "", "Path to transfers CSV file")
		ordersFile        = flag.String("orders", "", "Path to orders CSV file")
		dsn               = flag.String("dsn", cfg.DatabaseDSN, "Postgres DSN to read from instead of CSV files")
		warehouseBaseline = flag.Int64("warehouse-baseline", int64(cfg.WarehouseBaseline), "Opening quantity per product at warehouses")
		vehicleBaseline   = flag.Int64("vehicle-baseline", int64(cfg.VehicleBaseline), "Opening quantity per product at vehicles")
		fallbackLocation  = flag.String("fallback-location", string(cfg.FallbackLocation), "Location charged for orders without a vehicle")
		threshold         = flag.Int64("threshold", int64(cfg.LowStockThreshold), "Low-stock threshold")
		kind              = flag.String("kind", "", "Only locations of this kind: warehouse, vehicle")
		location          = flag.String("location", "", "Only this location")
		product           = flag.String("product", "", "Only this product")
		nonZero           = flag.Bool("nonzero", false, "Hide zero quantities")
		lowOnly           = flag.Bool("low", false, "Only low-stock lines")
		outputDir         = flag.String("output", "", "Output directory for results (optional)")
		format            = flag.String("format", "text", "Output format: text, json, csv, xlsx")
		check             = flag.Bool("check", false, "Run consistency checks")
		verbose           = flag.Bool("verbose", false, "Enable verbose output")
		help              = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	cmdConfig := commands.Config{
		ScenarioDir:       *scenarioDir,
		ProductsFile:      *productsFile,
		LocationsFile:     *locationsFile,
		TransfersFile:     *transfersFile,
		OrdersFile:        *ordersFile,
		DatabaseDSN:       *dsn,
		WarehouseBaseline: *warehouseBaseline,
		VehicleBaseline:   *vehicleBaseline,
		FallbackLocation:  *fallbackLocation,
		Threshold:         *threshold,
		Kind:              *kind,
		Location:          *location,
		Product:           *product,
		NonZero:           *nonZero,
		LowOnly:           *lowOnly,
		OutputDir:         *outputDir,
		Format:            *format,
		Check:             *check,
		Verbose:           *verbose,
		Help:              *help,
	}

	cmd := commands.NewStockCommand(cmdConfig)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		if !errors.Is(err, commands.ErrChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
