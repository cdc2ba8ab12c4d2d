package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fieldops/stockrecon/pkg/application/services/projection"
	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
	"github.com/fieldops/stockrecon/pkg/infrastructure/events"
)

// ErrNoSnapshotSource is returned when the service has nothing to read from
var ErrNoSnapshotSource = errors.New("no snapshot source configured")

// ViewCache stores reconciled views by key
type ViewCache interface {
	Get(ctx context.Context, key string) (*projection.View, bool, error)
	Set(ctx context.Context, key string, view *projection.View) error
	Purge(ctx context.Context) error
}

// StockConfig holds the replay and reporting parameters of the stock service
type StockConfig struct {
	Policy            reconciliation.Policy
	LowStockThreshold entities.Quantity
}

// DefaultStockConfig returns the reference policy and low-stock threshold
func DefaultStockConfig() StockConfig {
	return StockConfig{
		Policy:            reconciliation.DefaultPolicy(),
		LowStockThreshold: projection.DefaultLowStockThreshold,
	}
}

// StockService derives stock views on demand. Each call acquires one snapshot
// and answers from one replay; views are cached by snapshot revision.
type StockService struct {
	source repositories.SnapshotSource
	engine *reconciliation.Engine
	cache  ViewCache
	config StockConfig
	logger *logrus.Logger
}

// NewStockService creates a stock service. The cache and logger are optional.
func NewStockService(source repositories.SnapshotSource, config StockConfig, cache ViewCache, logger *logrus.Logger) *StockService {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &StockService{
		source: source,
		engine: reconciliation.NewEngine(config.Policy, logger),
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Verify interface compliance
var _ events.EventHandler = (*StockService)(nil)

// Engine returns the reconciliation engine used by the service
func (s *StockService) Engine() *reconciliation.Engine {
	return s.engine
}

// Config returns the service configuration
func (s *StockService) Config() StockConfig {
	return s.config
}

// View acquires a snapshot and returns the view reconciled from it. A
// structurally invalid snapshot fails with the engine's validation error.
func (s *StockService) View(ctx context.Context) (*projection.View, error) {
	if s.source == nil {
		return nil, ErrNoSnapshotSource
	}

	start := time.Now()
	log := s.logger.WithField("correlation_id", uuid.NewString())

	snapshot, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire snapshot: %w", err)
	}
	log = log.WithField("revision", snapshot.Revision)

	key := s.cacheKey(snapshot.Revision)
	if key != "" && s.cache != nil {
		view, found, err := s.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("stock cache lookup failed")
		} else if found {
			log.Debug("stock view served from cache")
			return view, nil
		}
	}

	result, err := s.engine.Reconcile(snapshot)
	if err != nil {
		log.WithError(err).Error("snapshot failed validation")
		return nil, fmt.Errorf("failed to reconcile snapshot: %w", err)
	}

	view := projection.NewView(snapshot, result, s.config.LowStockThreshold)

	if key != "" && s.cache != nil {
		if err := s.cache.Set(ctx, key, view); err != nil {
			log.WithError(err).Warn("stock cache store failed")
		}
	}

	log.WithFields(logrus.Fields{
		"diagnostics": len(result.Diagnostics),
		"duration":    time.Since(start).String(),
	}).Info("stock reconciled")

	return view, nil
}

// cacheKey is empty when the snapshot carries no revision
func (s *StockService) cacheKey(revision string) string {
	if revision == "" {
		return ""
	}
	return fmt.Sprintf("stock:%s|%s|low=%d", revision, s.config.Policy.Fingerprint(), s.config.LowStockThreshold)
}

// Invalidate drops every cached view
func (s *StockService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Purge(ctx)
}

// Subscribe purges the cache whenever a movement event is appended to store
func (s *StockService) Subscribe(store events.EventStore) error {
	return store.Subscribe(events.MovementEventTypes, s)
}

func (s *StockService) CanHandle(eventType string) bool {
	for _, t := range events.MovementEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

func (s *StockService) Handle(event events.Event) error {
	if err := s.Invalidate(context.Background()); err != nil {
		return fmt.Errorf("failed to purge stock cache after %s: %w", event.Type(), err)
	}
	s.logger.WithFields(logrus.Fields{"eventType": event.Type(), "stream": event.StreamID()}).Debug("stock cache purged")
	return nil
}
