package entities

import (
	"time"
)

// SyncState is a small per-key bookkeeping table. The engine records the last
// refresh per account and capability here, and the startup health check uses
// a heartbeat row as its forced-flush write target.
type SyncState struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"` // e.g. "heartbeat", "<account>/homework"
	Value     string    `gorm:"size:256" json:"value,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
