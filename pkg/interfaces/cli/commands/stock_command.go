package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fieldops/stockrecon/pkg/application/services"
	"github.com/fieldops/stockrecon/pkg/application/services/consistency"
	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
	"github.com/fieldops/stockrecon/pkg/infrastructure/logging"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/csv"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/memory"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/sqldb"
	"github.com/fieldops/stockrecon/pkg/interfaces/cli/output"
)

// ErrChecksFailed is returned after the report is written when a consistency check fails
var ErrChecksFailed = errors.New("consistency checks failed")

// Config holds configuration for the stock command
type Config struct {
	ScenarioDir   string
	ProductsFile  string
	LocationsFile string
	TransfersFile string
	OrdersFile    string
	DatabaseDSN   string

	WarehouseBaseline int64
	VehicleBaseline   int64
	FallbackLocation  string
	Threshold         int64

	Kind     string
	Location string
	Product  string
	NonZero  bool
	LowOnly  bool

	OutputDir string
	Format    string
	Check     bool
	Verbose   bool
	Help      bool

	// Out receives the report; os.Stdout when nil
	Out io.Writer
}

// StockCommand reconciles one snapshot and reports the derived stock
type StockCommand struct {
	config Config
	logger *logrus.Logger
}

// NewStockCommand creates a new stock command with the given configuration
func NewStockCommand(config Config) *StockCommand {
	if config.Out == nil {
		config.Out = os.Stdout
	}

	level := "warn"
	if config.Verbose {
		level = "debug"
	}
	logger := logging.New(level, "text")
	logger.SetOutput(os.Stderr)

	return &StockCommand{config: config, logger: logger}
}

// Execute runs the stock command
func (c *StockCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	filter, err := c.filter()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	source, err := c.snapshotSource()
	if err != nil {
		return err
	}

	stockConfig := services.StockConfig{
		Policy:            c.policy(),
		LowStockThreshold: entities.Quantity(c.config.Threshold),
	}
	service := services.NewStockService(source, stockConfig, nil, c.logger)

	startTime := time.Now()
	view, err := service.View(ctx)
	reconcileTime := time.Since(startTime)
	if err != nil {
		return err
	}

	report := output.NewReport(view, filter, stockConfig.Policy.Fingerprint())

	checksPassed := true
	if c.config.Check {
		report.Checks = runChecks(service.Engine(), view)
		for _, check := range report.Checks {
			checksPassed = checksPassed && check.Passed
		}
	}

	outputConfig := output.Config{
		Format:        c.config.Format,
		OutputDir:     c.config.OutputDir,
		Verbose:       c.config.Verbose,
		ReconcileTime: reconcileTime,
		Out:           c.config.Out,
	}
	if err := output.Generate(report, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if !checksPassed {
		return ErrChecksFailed
	}
	return nil
}

// validateInputs validates the command configuration
func (c *StockCommand) validateInputs() error {
	if c.config.DatabaseDSN == "" && c.config.ScenarioDir == "" &&
		(c.config.ProductsFile == "" || c.config.LocationsFile == "") {
		return fmt.Errorf("must specify -scenario directory, -products and -locations files, or -dsn")
	}
	return nil
}

func (c *StockCommand) filter() (projection.Filter, error) {
	filter := projection.Filter{
		LocationID:  entities.LocationID(c.config.Location),
		ProductID:   entities.ProductID(c.config.Product),
		NonZeroOnly: c.config.NonZero,
		LowOnly:     c.config.LowOnly,
	}
	if c.config.Kind != "" {
		kind, err := entities.ParseLocationKind(c.config.Kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = kind
	}
	return filter, nil
}

func (c *StockCommand) policy() reconciliation.Policy {
	return reconciliation.Policy{
		Baseline: reconciliation.BaselineTable{
			entities.Warehouse: entities.Quantity(c.config.WarehouseBaseline),
			entities.Vehicle:   entities.Quantity(c.config.VehicleBaseline),
		},
		FallbackLocationID: entities.LocationID(c.config.FallbackLocation),
	}
}

// snapshotSource opens postgres when a DSN is given, otherwise loads the CSV
// files into in-memory repositories
func (c *StockCommand) snapshotSource() (repositories.SnapshotSource, error) {
	if c.config.DatabaseDSN != "" {
		db, err := sqldb.Open(c.config.DatabaseDSN, c.logger)
		if err != nil {
			return nil, err
		}
		return sqldb.NewSnapshotSource(db), nil
	}

	files := c.resolveInputFiles()
	if _, err := os.Stat(files.Products); err != nil {
		return nil, fmt.Errorf("products file not found: %s", files.Products)
	}
	if _, err := os.Stat(files.Locations); err != nil {
		return nil, fmt.Errorf("locations file not found: %s", files.Locations)
	}

	loader := csv.NewLoader()
	snapshot, err := loader.LoadSnapshot(files)
	if err != nil {
		return nil, fmt.Errorf("error loading CSV files: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"products":  len(snapshot.Products),
		"locations": len(snapshot.Locations),
		"transfers": len(snapshot.Transfers),
		"orders":    len(snapshot.Orders),
	}).Debug("data loaded")

	catalog, movements := memory.NewRepositories(snapshot)
	return memory.NewSnapshotSource(catalog, movements), nil
}

// resolveInputFiles determines the actual file paths to use
func (c *StockCommand) resolveInputFiles() csv.Files {
	if c.config.ScenarioDir != "" {
		return csv.DirFiles(c.config.ScenarioDir)
	}
	return csv.Files{
		Products:  c.config.ProductsFile,
		Locations: c.config.LocationsFile,
		Transfers: c.config.TransfersFile,
		Orders:    c.config.OrdersFile,
	}
}

// runChecks runs the consistency checks over the snapshot and result of one view
func runChecks(engine consistency.Reconciler, view *projection.View) []output.Check {
	var checks []output.Check
	snapshot := view.Snapshot()
	result := view.Result()

	replayed, err := engine.Reconcile(snapshot)
	if err == nil && !replayed.Equal(result) {
		err = fmt.Errorf("replay of revision %q differs from the report", view.Revision())
	}
	checks = append(checks, checkFrom("replay matches report", err == nil, err))

	idempotent, err := consistency.IsIdempotent(engine, snapshot)
	checks = append(checks, checkFrom("idempotent", idempotent, err))

	independent, err := consistency.IsOrderIndependent(engine, snapshot)
	checks = append(checks, checkFrom("order independent", independent, err))

	mismatches := consistency.VerifyLedger(result)
	ledger := output.Check{Name: "ledger balances", Passed: len(mismatches) == 0}
	if len(mismatches) > 0 {
		ledger.Detail = mismatches[0].String()
		if len(mismatches) > 1 {
			ledger.Detail += fmt.Sprintf(" (and %d more)", len(mismatches)-1)
		}
	}
	checks = append(checks, ledger)

	// negative stock is reported, not failed
	negative := consistency.NegativeStockReport(result.Quantities)
	checks = append(checks, output.Check{
		Name:   "negative stock",
		Passed: true,
		Detail: fmt.Sprintf("%d negative cells", len(negative)),
	})

	return checks
}

func checkFrom(name string, passed bool, err error) output.Check {
	if err != nil {
		return output.Check{Name: name, Passed: false, Detail: err.Error()}
	}
	return output.Check{Name: name, Passed: passed}
}

// showHelp displays the help message
func (c *StockCommand) showHelp() {
	fmt.Fprintf(c.config.Out, `stockrecon - multi-location stock reconciliation

USAGE:
    stockrecon -scenario <directory>                 # Use scenario directory with CSV files
    stockrecon -products <file> -locations <file> ... # Use individual CSV files
    stockrecon -dsn <postgres dsn>                    # Read from the database

OPTIONS:
    -scenario <dir>             Path to scenario directory containing CSV files
    -products <file>            Path to products CSV file
    -locations <file>           Path to locations CSV file
    -transfers <file>           Path to transfers CSV file (optional)
    -orders <file>              Path to orders CSV file (optional)
    -dsn <dsn>                  Postgres DSN (default: DATABASE_DSN)
    -warehouse-baseline <n>     Opening quantity per product at warehouses (default: 500)
    -vehicle-baseline <n>       Opening quantity per product at vehicles (default: 0)
    -fallback-location <id>     Location charged for orders without a vehicle
    -threshold <n>              Low-stock threshold (default: 10)
    -kind <kind>                Only warehouse or vehicle locations
    -location <id>              Only this location
    -product <id>               Only this product
    -nonzero                    Hide zero quantities
    -low                        Only low-stock lines
    -format <fmt>               Output format: text, json, csv, xlsx (default: text)
    -output <dir>               Output directory for results (required for csv, xlsx)
    -check                      Run consistency checks
    -verbose                    Enable verbose output
    -help                       Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── products.csv    # product_id,code,price
    ├── locations.csv   # location_id,kind,name
    ├── transfers.csv   # transfer_id,source_id,source_kind,target_id,target_kind,date,status,product_id,quantity
    └── orders.csv      # order_id,status,vehicle_id,product_id,quantity,unit_price

EXAMPLES:
    stockrecon -scenario examples/distribution
    stockrecon -scenario examples/distribution -kind vehicle -nonzero
    stockrecon -scenario examples/distribution -fallback-location W1 -check
    stockrecon -scenario examples/distribution -format xlsx -output results/
`)
}
