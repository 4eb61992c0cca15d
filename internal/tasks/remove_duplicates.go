package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/cartable-app/cartable/internal/logger"
)

// DuplicateRemover collapses rows sharing natural keys down to the oldest
// survivor; implemented by the database layer.
type DuplicateRemover interface {
	RemoveAllDuplicates(ctx context.Context) (int64, error)
}

// RemoveDuplicatesTask runs the duplicate-removal maintenance pass across
// every synced table.
type RemoveDuplicatesTask struct{}

// Config returns the queue configuration for duplicate-removal tasks.
func (t RemoveDuplicatesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "remove_duplicates",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RemoveDuplicatesProcessor creates a processor function for
// RemoveDuplicatesTask.
func RemoveDuplicatesProcessor(remover DuplicateRemover) backlite.QueueProcessor[RemoveDuplicatesTask] {
	return func(ctx context.Context, task RemoveDuplicatesTask) error {
		if remover == nil {
			return fmt.Errorf("duplicate remover not configured")
		}

		removed, err := remover.RemoveAllDuplicates(ctx)
		if err != nil {
			return fmt.Errorf("remove duplicates: %w", err)
		}

		logger.Get().Info().Int64("removed", removed).Msg("task: duplicate removal pass completed")
		return nil
	}
}

// NewRemoveDuplicatesQueue creates a backlite queue for duplicate-removal
// tasks.
func NewRemoveDuplicatesQueue(remover DuplicateRemover) backlite.Queue {
	return backlite.NewQueue(RemoveDuplicatesProcessor(remover))
}
