// Package journal keeps an append-only record of refresh outcomes, one JSONL
// file per day. It exists for support and debugging: when a screen shows
// stale data, the journal says which sync failed and why.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartable-app/cartable/internal/logger"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	AccountID string    `json:"account_id"`
	Provider  string    `json:"provider,omitempty"`
	Operation string    `json:"operation"`
	Count     int       `json:"count,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type Journal struct {
	dir string
	log zerolog.Logger
	mu  sync.Mutex
}

func New(dir string) *Journal {
	return &Journal{
		dir: dir,
		log: logger.Get().With().Str("component", "journal").Logger(),
	}
}

// Record appends one event to today's file. Failures are logged, never
// raised: the journal must not break a sync.
func (j *Journal) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(j.dir, 0755); err != nil {
		j.log.Warn().Err(err).Msg("failed to create journal directory")
		return
	}

	path := filepath.Join(j.dir, event.Timestamp.Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("failed to open journal file")
		return
	}
	defer f.Close()

	line, err := json.Marshal(event)
	if err != nil {
		j.log.Warn().Err(err).Msg("failed to marshal journal event")
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		j.log.Warn().Err(err).Str("path", path).Msg("failed to append journal event")
	}
}

// RecordSync is the usual entry: one line per reconciled operation.
func (j *Journal) RecordSync(accountID, provider, operation string, count int, err error) {
	event := Event{
		AccountID: accountID,
		Provider:  provider,
		Operation: operation,
		Count:     count,
	}
	if err != nil {
		event.Error = err.Error()
	}
	j.Record(event)
}

// Sweep deletes journal files older than retentionDays. Returns the number
// of files removed.
func (j *Journal) Sweep(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read journal directory: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		day, err := time.Parse("2006-01-02", entry.Name()[:len(entry.Name())-len(".jsonl")])
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
				j.log.Warn().Err(err).Str("file", entry.Name()).Msg("failed to remove journal file")
				continue
			}
			removed++
		}
	}
	return removed, nil
}
