package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/entities"
)

// HealthReport is the outcome of the startup check. Degraded means the
// forced-flush write never completed; the app should still start, just with
// reduced expectations.
type HealthReport struct {
	Healthy       bool
	Degraded      bool
	FlushAttempts int
	ProbedTables  int
	Err           error
}

// VerifyHealth runs the startup sequence: a trivial write to flush a possibly
// stuck queue (bounded retries), then a bounded-latency read against a
// representative table. If the read misbehaves, every table is probed
// sequentially to shake the engine loose; per-table failures are logged, not
// raised.
func (d *Database) VerifyHealth(ctx context.Context) HealthReport {
	report := HealthReport{}

	var flushErr error
	for attempt := 1; attempt <= d.opts.HealthRetries; attempt++ {
		report.FlushAttempts = attempt
		flushErr = d.Write(ctx, WriteOp{
			Name:    "health.flush",
			Tables:  []string{"sync_states"},
			Timeout: d.opts.HealthTimeout,
			Fn:      touchHeartbeat,
		})
		if flushErr == nil {
			break
		}
		d.log.Warn().Err(flushErr).Int("attempt", attempt).Msg("health flush failed")
	}
	if flushErr != nil {
		report.Degraded = true
		report.Err = flushErr
		d.log.Error().Err(flushErr).Msg("store write queue did not flush, starting degraded")
		return report
	}

	if err := d.probe(ctx, "homeworks"); err != nil {
		d.log.Warn().Err(err).Msg("representative read probe failed, probing all tables")
		for _, table := range TableNames() {
			report.ProbedTables++
			if perr := d.probe(ctx, table); perr != nil {
				d.log.Warn().Err(perr).Str("table", table).Msg("recovery probe failed")
			}
		}
	}

	report.Healthy = true
	return report
}

func (d *Database) probe(ctx context.Context, table string) error {
	tctx, cancel := context.WithTimeout(ctx, d.opts.HealthTimeout)
	defer cancel()
	var n int64
	return d.DB.WithContext(tctx).Table(table).Count(&n).Error
}

func touchHeartbeat(tx *gorm.DB) error {
	now := time.Now()
	var state entities.SyncState
	result := tx.Where("key = ?", "heartbeat").First(&state)
	if result.Error == gorm.ErrRecordNotFound {
		return tx.Create(&entities.SyncState{
			Key:       "heartbeat",
			Value:     now.Format(time.RFC3339),
			UpdatedAt: now,
		}).Error
	}
	if result.Error != nil {
		return result.Error
	}
	state.Value = now.Format(time.RFC3339)
	state.UpdatedAt = now
	return tx.Save(&state).Error
}
