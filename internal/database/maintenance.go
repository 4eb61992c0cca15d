package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// dupeSpec names the natural key used to detect duplicate rows in one table.
// Rows sharing a key beyond the first (oldest) are deleted. Child tables that
// are replaced wholesale on every sync are not listed; their parents are.
type dupeSpec struct {
	table   string
	columns []string
}

var dupeSpecs = []dupeSpec{
	{"homeworks", []string{"created_by_account", "homework_id"}},
	{"periods", []string{"created_by_account", "name"}},
	{"subjects", []string{"created_by_account", "period_id", "name"}},
	{"grades", []string{"created_by_account", "subject_name", "given_at", "description"}},
	{"attendances", []string{"created_by_account", "period_name"}},
	{"news", []string{"created_by_account", "title", "published_at"}},
	{"course_days", []string{"created_by_account", "date"}},
	{"chats", []string{"created_by_account", "subject", "creator"}},
	{"canteen_menus", []string{"created_by_account", "date"}},
	{"canteen_history_items", []string{"created_by_account", "date", "label", "amount"}},
	{"canteen_balances", []string{"created_by_account", "label"}},
	{"canteen_bookings", []string{"created_by_account", "date", "label"}},
	{"canteen_qrcodes", []string{"created_by_account", "label"}},
	{"kids", []string{"created_by_account", "first_name", "last_name"}},
}

// RemoveAllDuplicates is the maintenance pass: for every table it groups rows
// by the table's natural key and deletes everything past the first row of
// each group. Deletions run in batched, timeout-guarded transactions. Safe to
// run repeatedly; a second pass deletes nothing.
func (d *Database) RemoveAllDuplicates(ctx context.Context) (int64, error) {
	var total int64
	for _, spec := range dupeSpecs {
		n, err := d.removeDuplicates(ctx, spec)
		if err != nil {
			return total, fmt.Errorf("dedup %s: %w", spec.table, err)
		}
		if n > 0 {
			d.log.Info().Str("table", spec.table).Int64("deleted", n).Msg("removed duplicate rows")
		}
		total += n
	}
	return total, nil
}

func (d *Database) removeDuplicates(ctx context.Context, spec dupeSpec) (int64, error) {
	selects := "id"
	for _, c := range spec.columns {
		selects += ", " + c
	}

	var rows []map[string]any
	if err := d.DB.Table(spec.table).Select(selects).Order("created_at ASC").Find(&rows).Error; err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(rows))
	var doomed []string
	for _, row := range rows {
		parts := make([]string, 0, len(spec.columns))
		discriminated := false
		for _, c := range spec.columns {
			v := fmt.Sprint(row[c])
			if c != "created_by_account" && v != "" {
				discriminated = true
			}
			parts = append(parts, v)
		}
		// Rows with no natural key at all (user-created homework has no
		// provider id) are distinct records, not duplicates of each other.
		if !discriminated {
			continue
		}
		key := ident.Join(parts...)
		if _, dup := seen[key]; dup {
			doomed = append(doomed, fmt.Sprint(row["id"]))
			continue
		}
		seen[key] = struct{}{}
	}

	if len(doomed) == 0 {
		return 0, nil
	}

	err := d.WriteBatched(ctx, "dedup."+spec.table, []string{spec.table}, len(doomed),
		func(tx *gorm.DB, start, end int) error {
			return tx.Exec("DELETE FROM "+spec.table+" WHERE id IN ?", doomed[start:end]).Error
		})
	if err != nil {
		return 0, err
	}
	return int64(len(doomed)), nil
}

// ClearAccount deletes every row owned by the account across all tables, the
// account's services and the account itself, in one transaction.
func (d *Database) ClearAccount(ctx context.Context, accountID string) error {
	owned := []string{
		"homeworks", "periods", "subjects", "grades", "attendances", "delays",
		"absences", "observations", "punishments", "news", "course_days",
		"courses", "chats", "messages", "recipients", "canteen_menus",
		"canteen_history_items", "canteen_balances", "canteen_bookings",
		"canteen_qrcodes", "kids",
	}
	tables := append(append([]string{}, owned...), "service_accounts", "accounts")

	return d.Write(ctx, WriteOp{
		Name:    "clear_account",
		Tables:  tables,
		Timeout: d.opts.BulkTimeout,
		Fn: func(tx *gorm.DB) error {
			for _, table := range owned {
				if err := tx.Exec("DELETE FROM "+table+" WHERE created_by_account = ?", accountID).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("account_id = ?", accountID).Delete(&entities.ServiceAccount{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", accountID).Delete(&entities.Account{}).Error
		},
	})
}

// SetState upserts one sync_states bookkeeping row.
func (d *Database) SetState(ctx context.Context, key, value string) error {
	return d.Write(ctx, WriteOp{
		Name:   "sync_state." + key,
		Tables: []string{"sync_states"},
		Fn: func(tx *gorm.DB) error {
			now := time.Now()
			var state entities.SyncState
			result := tx.Where("key = ?", key).First(&state)
			if result.Error == gorm.ErrRecordNotFound {
				return tx.Create(&entities.SyncState{Key: key, Value: value, UpdatedAt: now}).Error
			}
			if result.Error != nil {
				return result.Error
			}
			state.Value = value
			state.UpdatedAt = now
			return tx.Save(&state).Error
		},
	})
}

// GetState reads one sync_states row; returns "" when absent.
func (d *Database) GetState(key string) (string, error) {
	var state entities.SyncState
	err := d.DB.Where("key = ?", key).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.Value, nil
}
