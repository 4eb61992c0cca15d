// Package scheduler drives periodic background refreshes on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cartable-app/cartable/internal/logger"
)

// Refresher performs one full refresh pass over every configured account;
// implemented by the engine.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// RefreshScheduler manages periodic refresh passes.
type RefreshScheduler struct {
	refresher Refresher
	schedule  string
	log       zerolog.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewRefreshScheduler creates a scheduler with a five-field cron schedule,
// e.g. "*/30 * * * *" for every thirty minutes.
func NewRefreshScheduler(refresher Refresher, schedule string) *RefreshScheduler {
	return &RefreshScheduler{
		refresher: refresher,
		schedule:  schedule,
		log:       logger.Get().With().Str("component", "scheduler").Logger(),
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler. An empty schedule leaves it disabled.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		s.log.Info().Msg("refresh scheduler disabled, no schedule configured")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.Info().Str("schedule", s.schedule).Msg("refresh scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running refresh to
// complete.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	s.log.Info().Msg("refresh scheduler stopped")
}

// RunNow triggers an immediate refresh pass.
func (s *RefreshScheduler) RunNow() {
	go s.runRefresh()
}

// IsRunning returns whether the scheduler is active.
func (s *RefreshScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a refresh pass is currently in progress.
func (s *RefreshScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next refresh will occur, or nil when the
// scheduler is stopped.
func (s *RefreshScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runRefresh performs one pass. Overlapping fires are skipped, not queued.
func (s *RefreshScheduler) runRefresh() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.log.Debug().Msg("refresh skipped, previous pass still running")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("scheduled refresh pass failed")
		return
	}
	s.log.Info().Dur("duration", time.Since(start).Round(time.Millisecond)).Msg("scheduled refresh pass completed")
}
