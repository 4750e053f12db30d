package service

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SyncScheduler periodically re-syncs every active tenant's settings from the
// config service so pushed changes are eventually picked up even when the
// push endpoint is not configured.
type SyncScheduler struct {
	cron    *cron.Cron
	tenants TenantService
	logger  zerolog.Logger
}

func NewSyncScheduler(tenants TenantService, logger zerolog.Logger) *SyncScheduler {
	return &SyncScheduler{
		cron:    cron.New(),
		tenants: tenants,
		logger:  logger.With().Str("component", "sync_scheduler").Logger(),
	}
}

// Start registers the schedule and begins running it. Schedule accepts cron
// expressions and descriptors like "@every 15m".
func (s *SyncScheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug().Msg("Running scheduled tenant settings sync")
		if err := s.tenants.SyncAllTenants(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("Scheduled tenant sync failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Tenant sync scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *SyncScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
