// Package scheduler runs background housekeeping on a cron schedule.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
)

// Service owns the cron runner. The only registered job is Badger value-log
// garbage collection; an embedded Badger store grows without it.
type Service struct {
	cron    *cron.Cron
	storage interfaces.StorageManager
	logger  arbor.ILogger
	running bool
}

// NewService creates a scheduler over the storage manager
func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		cron:    cron.New(cron.WithSeconds()),
		storage: storage,
		logger:  logger,
	}
}

// Start registers the GC job and begins the cron loop
func (s *Service) Start(gcSchedule string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if gcSchedule == "" {
		gcSchedule = "0 */15 * * * *" // Every 15 minutes
	}

	if _, err := s.cron.AddFunc(gcSchedule, s.runGC); err != nil {
		return fmt.Errorf("invalid gc schedule %q: %w", gcSchedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", gcSchedule).Msg("Maintenance scheduler started")
	return nil
}

func (s *Service) runGC() {
	if err := s.storage.RunValueLogGC(); err != nil {
		// Badger reports ErrNoRewrite when there is nothing to collect;
		// the storage layer swallows that, so anything here is real.
		s.logger.Warn().Err(err).Msg("Value-log GC failed")
		return
	}
	s.logger.Debug().Msg("Value-log GC completed")
}

// Stop halts the cron loop, waiting for a running job to finish
func (s *Service) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Maintenance scheduler stopped")
}
