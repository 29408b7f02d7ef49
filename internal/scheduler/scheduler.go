package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/config"
	syncsvc "github.com/mamadbah2/hivelog/internal/service/sync"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	syncSvc *syncsvc.Scheduler
	cfg     config.SyncConfig
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.SyncConfig, syncSvc *syncsvc.Scheduler, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:    cron.New(),
		syncSvc: syncSvc,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start starts the scheduler. The nightly push is a safety net on top of the
// debounced sync: it catches snapshots whose debounced push failed earlier.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("nightly_cron", s.cfg.NightlyCron))

	_, err := s.cron.AddFunc(s.cfg.NightlyCron, s.nightlySync)
	if err != nil {
		s.logger.Error("failed to schedule nightly sync", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) nightlySync() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.syncSvc.SyncNow(ctx); err != nil {
		if errors.Is(err, syncsvc.ErrSuspended) {
			s.logger.Debug("nightly sync skipped, no signed-in user")
			return
		}
		s.logger.Error("nightly sync failed", zap.Error(err))
		return
	}

	s.logger.Info("nightly sync completed")
}
