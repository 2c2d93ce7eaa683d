package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
	"github.com/MrSnakeDoc/zonewatch/internal/metrics"
	"github.com/MrSnakeDoc/zonewatch/internal/sources/topology"
)

// TopologyStore is the write side used by the reloader
type TopologyStore interface {
	ReplaceAggregates(ctx context.Context, aggregates []domain.Aggregate) error
	SeedServices(ctx context.Context, records []domain.ServiceRecord) (int, error)
}

// ZoneCacheWarmer drops and refills the host zone cache
type ZoneCacheWarmer interface {
	ResetCache()
	Warm(ctx context.Context) (int, error)
}

// TopologyReloader handles periodic reloading of the topology file
type TopologyReloader struct {
	loader        *topology.Loader
	mapper        *topology.Mapper
	store         TopologyStore
	cache         ZoneCacheWarmer
	metrics       *metrics.Metrics
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewTopologyReloader creates a new topology reloader
func NewTopologyReloader(
	topologyFile string,
	store TopologyStore,
	cache ZoneCacheWarmer,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *TopologyReloader {
	return &TopologyReloader{
		loader:        topology.NewLoader(topologyFile),
		mapper:        topology.NewMapper(),
		store:         store,
		cache:         cache,
		metrics:       m,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the topology once, then keeps reloading it in the background
func (tr *TopologyReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := tr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(tr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := tr.Reload(ctx); err != nil {
					tr.logger.Error("failed to reload topology",
						logger.Error(err))
				}
			case <-tr.manualTrigger:
				tr.logger.Info("manual reload triggered")
				if err := tr.Reload(ctx); err != nil {
					tr.logger.Error("failed to reload topology",
						logger.Error(err))
				}
			case <-tr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (tr *TopologyReloader) Stop() {
	close(tr.stopCh)
}

// Reload loads the topology file, replaces the aggregates, registers the
// declared services that are not known yet, and rebuilds the zone cache.
func (tr *TopologyReloader) Reload(ctx context.Context) (err error) {
	defer func() { tr.metrics.RecordReload(err) }()

	tr.logger.Info("reloading topology",
		logger.String("file", tr.loader.Path()))

	file, err := tr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load topology: %w", err)
	}

	aggregates, err := tr.mapper.MapAggregates(file)
	if err != nil {
		return fmt.Errorf("failed to map aggregates: %w", err)
	}
	records, err := tr.mapper.MapServices(file)
	if err != nil {
		return fmt.Errorf("failed to map services: %w", err)
	}

	if err := tr.store.ReplaceAggregates(ctx, aggregates); err != nil {
		return err
	}
	added, err := tr.store.SeedServices(ctx, records)
	if err != nil {
		return err
	}

	// Zones may have moved: never answer from the old topology
	tr.cache.ResetCache()
	warmed, err := tr.cache.Warm(ctx)
	if err != nil {
		tr.logger.Warn("failed to warm zone cache",
			logger.Error(err))
	}

	tr.logger.Info("topology reloaded",
		logger.Int("aggregates", len(aggregates)),
		logger.Int("declared_services", len(records)),
		logger.Int("new_services", added),
		logger.Int("cached_hosts", warmed))

	return nil
}
