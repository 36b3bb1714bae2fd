package scheduler

import (
	"context"
	"errors"
	"time"

	"shopify-mirror-layer/internal/application"
	"shopify-mirror-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Scheduler triggers a full synchronization pass for every tenant on a
// fixed interval. Tenants are iterated sequentially; a failing tenant is
// logged and the iteration proceeds to the next one.
type Scheduler struct {
	store    ports.Store
	sync     *application.SyncService
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a scheduler.
func New(store ports.Store, sync *application.SyncService, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		sync:     sync,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is done, running one pass over all tenants per tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Sync scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Sync scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tenants for scheduled sync")
		return
	}

	for _, tenant := range tenants {
		result, err := s.sync.Sync(ctx, tenant.ID)
		if err != nil {
			if errors.Is(err, application.ErrSyncInProgress) {
				s.logger.Debug().Str("tenantId", tenant.ID).Msg("Skipping tenant, sync already running")
				continue
			}
			s.logger.Error().Err(err).Str("tenantId", tenant.ID).Msg("Scheduled sync failed")
			continue
		}
		s.logger.Info().
			Str("tenantId", tenant.ID).
			Int("products", result.Products).
			Int("customers", result.Customers).
			Int("orders", result.Orders).
			Int("backfilled", result.Backfilled).
			Msg("Scheduled sync completed")
	}
}
