// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dinarly/dinarly-api/internal/domain/categorization"
	"github.com/dinarly/dinarly-api/pkg/config"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron        *cron.Cron
	corrections categorization.CorrectionStore
	retention   config.RetentionConfig
	logger      *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(corrections categorization.CorrectionStore, retention config.RetentionConfig, logger *slog.Logger) *Scheduler {
	// Standard 5-field schedule format, seconds disabled
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:        c,
		corrections: corrections,
		retention:   retention,
		logger:      logger,
	}
}

// Start begins scheduled jobs. With no retention period configured the
// correction sweep is skipped and corrections are kept forever.
func (s *Scheduler) Start() error {
	if s.retention.CorrectionRetention > 0 {
		_, err := s.cron.AddFunc(s.retention.SweepSchedule, s.sweepCorrections)
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the correction sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.sweepCorrections()
}

// sweepCorrections prunes category corrections older than the retention
// period.
func (s *Scheduler) sweepCorrections() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention.CorrectionRetention)
	s.logger.Info("starting correction retention sweep",
		slog.Time("cutoff", cutoff),
	)

	purged, err := s.corrections.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("correction retention sweep failed", slog.Any("error", err))
		return
	}

	s.logger.Info("correction retention sweep completed",
		slog.Int64("purged", purged),
	)
}
