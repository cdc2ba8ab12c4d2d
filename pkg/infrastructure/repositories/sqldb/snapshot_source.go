package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
)

// Open connects to postgres and tunes the connection pool
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.Info("connected to database")
	return db, nil
}

// Migrate creates or updates every table the snapshot source reads
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// SnapshotSource reads the reconciliation inputs from postgres inside a
// single read-only repeatable-read transaction
type SnapshotSource struct {
	db *gorm.DB
}

// NewSnapshotSource creates a snapshot source over db
func NewSnapshotSource(db *gorm.DB) *SnapshotSource {
	return &SnapshotSource{db: db}
}

// Verify interface compliance
var _ repositories.SnapshotSource = (*SnapshotSource)(nil)

// Snapshot reads every product, location, transfer and order as of one point in time
func (s *SnapshotSource) Snapshot(ctx context.Context) (*entities.Snapshot, error) {
	snapshot := &entities.Snapshot{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []Product
		if err := tx.Order("created_at, id").Find(&products).Error; err != nil {
			return fmt.Errorf("failed to read products: %w", err)
		}
		var locations []Location
		if err := tx.Order("created_at, id").Find(&locations).Error; err != nil {
			return fmt.Errorf("failed to read locations: %w", err)
		}
		var transfers []StockTransfer
		if err := tx.Preload("Items", byLine).Order("date, id").Find(&transfers).Error; err != nil {
			return fmt.Errorf("failed to read transfers: %w", err)
		}
		var orders []Order
		if err := tx.Preload("Items", byLine).Order("created_at, id").Find(&orders).Error; err != nil {
			return fmt.Errorf("failed to read orders: %w", err)
		}

		revision, err := readRevision(tx)
		if err != nil {
			return err
		}

		for _, p := range products {
			snapshot.Products = append(snapshot.Products, p.toEntity())
		}
		for _, l := range locations {
			snapshot.Locations = append(snapshot.Locations, l.toEntity())
		}
		for _, t := range transfers {
			snapshot.Transfers = append(snapshot.Transfers, t.toEntity())
		}
		for _, o := range orders {
			snapshot.Orders = append(snapshot.Orders, o.toEntity())
		}
		snapshot.Revision = revision
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func byLine(db *gorm.DB) *gorm.DB {
	return db.Order("line")
}

type revisionRow struct {
	Products      int64
	Locations     int64
	Transfers     int64
	TransferItems int64
	Orders        int64
	OrderItems    int64
	Stamp         *time.Time
}

const revisionQuery = `SELECT
	(SELECT count(*) FROM products) AS products,
	(SELECT count(*) FROM locations) AS locations,
	(SELECT count(*) FROM stock_transfers) AS transfers,
	(SELECT count(*) FROM stock_transfer_items) AS transfer_items,
	(SELECT count(*) FROM orders) AS orders,
	(SELECT count(*) FROM order_items) AS order_items,
	GREATEST(
		(SELECT max(updated_at) FROM products),
		(SELECT max(updated_at) FROM locations),
		(SELECT max(updated_at) FROM stock_transfers),
		(SELECT max(updated_at) FROM orders)
	) AS stamp`

// readRevision summarises the tables in the same transaction as the read.
// Row counts catch deletions, the newest updated_at catches edits.
func readRevision(tx *gorm.DB) (string, error) {
	var row revisionRow
	if err := tx.Raw(revisionQuery).Scan(&row).Error; err != nil {
		return "", fmt.Errorf("failed to read revision: %w", err)
	}

	var stamp int64
	if row.Stamp != nil {
		stamp = row.Stamp.UnixNano()
	}
	return fmt.Sprintf("sql:%d.%d.%d.%d.%d.%d@%d",
		row.Products, row.Locations, row.Transfers, row.TransferItems, row.Orders, row.OrderItems, stamp), nil
}
