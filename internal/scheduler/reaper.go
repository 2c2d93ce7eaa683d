package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
	"github.com/MrSnakeDoc/zonewatch/internal/metrics"
)

const (
	// DefaultReapThreshold is the silence after which a service record is deleted
	DefaultReapThreshold = 7 * 24 * time.Hour // 7 days
)

// ServiceStore is the registry side used by the reaper
type ServiceStore interface {
	ListServices(ctx context.Context) ([]domain.ServiceRecord, error)
	DeleteService(ctx context.Context, id string) error
}

// ServiceReaper removes records of services that stopped reporting long ago
type ServiceReaper struct {
	store     ServiceStore
	metrics   *metrics.Metrics
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewServiceReaper creates a new service reaper
func NewServiceReaper(
	store ServiceStore,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *ServiceReaper {
	if threshold == 0 {
		threshold = DefaultReapThreshold
	}

	return &ServiceReaper{
		store:     store,
		metrics:   m,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic reaping process
func (sr *ServiceReaper) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := sr.Reap(ctx); err != nil {
		sr.logger.Warn("initial service reaping failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sr.Reap(ctx); err != nil {
					sr.logger.Error("service reaping failed",
						logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reaper
func (sr *ServiceReaper) Stop() {
	close(sr.stopCh)
}

// Reap deletes every record silent for longer than the threshold and returns
// how many were removed. Deletion failures are logged and skipped.
func (sr *ServiceReaper) Reap(ctx context.Context) (int, error) {
	records, err := sr.store.ListServices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list services: %w", err)
	}

	now := sr.now()
	deleted := 0

	for _, record := range records {
		last := record.LastSeen()
		if last.IsZero() {
			continue
		}

		silence := now.Sub(last)
		if silence < sr.threshold {
			continue
		}

		if err := sr.store.DeleteService(ctx, record.ID); err != nil {
			sr.logger.Warn("failed to delete service",
				logger.String("service_id", record.ID),
				logger.Error(err))
			continue
		}

		sr.logger.Info("reaped silent service",
			logger.String("service_id", record.ID),
			logger.String("host", record.Host),
			logger.String("binary", record.Binary),
			logger.String("silent_for", silence.String()))

		deleted++
	}

	if deleted > 0 {
		sr.metrics.RecordReaped(deleted)
	} else {
		sr.logger.Debug("no silent services to reap")
	}

	return deleted, nil
}
