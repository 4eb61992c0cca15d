package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/cartable-app/cartable/internal/logger"
)

// JournalSweeper deletes sync-journal files older than a retention window.
type JournalSweeper interface {
	Sweep(retentionDays int) (int, error)
}

// SweepJournalTask removes journal files older than the configured retention
// period.
type SweepJournalTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for journal retention tasks.
func (t SweepJournalTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_journal",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepJournalProcessor creates a processor function for SweepJournalTask.
func SweepJournalProcessor(sweeper JournalSweeper) backlite.QueueProcessor[SweepJournalTask] {
	return func(ctx context.Context, task SweepJournalTask) error {
		if sweeper == nil {
			return fmt.Errorf("journal sweeper not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}

		removed, err := sweeper.Sweep(retentionDays)
		if err != nil {
			return fmt.Errorf("sweep journal: %w", err)
		}

		logger.Get().Info().Int("removed", removed).Int("retention_days", retentionDays).Msg("task: journal retention sweep completed")
		return nil
	}
}

// NewSweepJournalQueue creates a backlite queue for journal retention tasks.
func NewSweepJournalQueue(sweeper JournalSweeper) backlite.Queue {
	return backlite.NewQueue(SweepJournalProcessor(sweeper))
}
