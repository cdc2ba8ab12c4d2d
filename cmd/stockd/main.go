package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fieldops/stockrecon/pkg/application/services"
	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
	"github.com/fieldops/stockrecon/pkg/infrastructure/cache"
	"github.com/fieldops/stockrecon/pkg/infrastructure/config"
	"github.com/fieldops/stockrecon/pkg/infrastructure/events"
	"github.com/fieldops/stockrecon/pkg/infrastructure/logging"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/csv"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/memory"
	"github.com/fieldops/stockrecon/pkg/infrastructure/repositories/sqldb"
	"github.com/fieldops/stockrecon/pkg/interfaces/api"
)

func main() {
	scenarioDir := flag.String("scenario", "", "Serve a CSV scenario directory from memory instead of DATABASE_DSN")
	migrate := flag.Bool("migrate", false, "Create or update the database tables before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	store := events.NewInMemoryEventStore(logger)
	source, err := snapshotSource(cfg, *scenarioDir, *migrate, store, logger)
	if err != nil {
		logging.LogError(logger, "main", "snapshotSource", "startup", nil, err)
		os.Exit(1)
	}

	viewCache, err := viewCache(sigCtx, cfg, logger)
	if err != nil {
		logging.LogError(logger, "main", "viewCache", "startup", nil, err)
		os.Exit(1)
	}

	stockConfig := services.StockConfig{
		Policy: reconciliation.Policy{
			Baseline: reconciliation.BaselineTable{
				entities.Warehouse: cfg.WarehouseBaseline,
				entities.Vehicle:   cfg.VehicleBaseline,
			},
			FallbackLocationID: cfg.FallbackLocation,
		},
		LowStockThreshold: cfg.LowStockThreshold,
	}
	service := services.NewStockService(source, stockConfig, viewCache, logger)
	if err := service.Subscribe(store); err != nil {
		logging.LogError(logger, "main", "Subscribe", "startup", nil, err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(service, stockConfig.Policy.Fingerprint(), logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "policy": stockConfig.Policy.Fingerprint()}).Info("stockd listening")

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "server"}).Error(err)
		}
	}
}

// snapshotSource serves a CSV scenario from memory, with its transfers and
// orders recorded in the event store and folded back into the movement
// repository, or reads postgres when no scenario is given
func snapshotSource(cfg *config.Config, scenarioDir string, migrate bool, store events.EventStore, logger *logrus.Logger) (repositories.SnapshotSource, error) {
	if scenarioDir != "" {
		snapshot, err := csv.NewLoader().LoadSnapshot(csv.DirFiles(scenarioDir))
		if err != nil {
			return nil, err
		}
		catalog, movements := memory.NewRepositories(&entities.Snapshot{
			Products:  snapshot.Products,
			Locations: snapshot.Locations,
		})
		if err := store.Subscribe(events.MovementEventTypes, movements); err != nil {
			return nil, err
		}
		if err := events.RecordMovements(store, snapshot); err != nil {
			return nil, err
		}
		logger.WithField("scenario", scenarioDir).Info("serving scenario from memory")
		return memory.NewSnapshotSource(catalog, movements), nil
	}

	if cfg.DatabaseDSN == "" {
		return nil, services.ErrNoSnapshotSource
	}
	db, err := sqldb.Open(cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := sqldb.Migrate(db); err != nil {
			return nil, err
		}
	}
	return sqldb.NewSnapshotSource(db), nil
}

// viewCache layers the in-process LRU in front of Redis; either may be disabled
func viewCache(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.ViewCache, error) {
	var layers []cache.Cache[*projection.View]

	if cfg.CacheSize > 0 {
		lru, err := cache.NewLRU[*projection.View](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		layers = append(layers, lru)
	}

	if cfg.RedisAddress != "" {
		client, err := cache.ConnectRedis(ctx, cfg.RedisAddress, 5, logger)
		if err != nil {
			return nil, err
		}
		layers = append(layers, cache.NewRedis[*projection.View](client, "stockrecon", cfg.CacheTTL))
	}

	if len(layers) == 0 {
		return nil, nil
	}
	return cache.NewTiered(layers...), nil
}
