package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Store
		Scheduler
		Tasks
		Credentials
		Journal
		Log
	}

	Database struct {
		Path string
	}

	// Store tunes the serialized write path of the local cache.
	Store struct {
		WriteTimeout  time.Duration // per-write bound for normal upserts
		BulkTimeout   time.Duration // bound for batched/maintenance transactions
		BatchSize     int           // mutations per batched transaction
		BatchDelay    time.Duration // pause between batches
		QueueDepth    int           // pending writes before Write blocks
		HealthRetries int           // forced-flush attempts at startup
		HealthTimeout time.Duration // per-probe bound during health checks
	}

	Scheduler struct {
		RefreshEnabled  bool
		RefreshSchedule string // cron format, e.g. "*/30 * * * *"
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}

	Credentials struct {
		KeyFilePath string // AES key file; generated on first use when absent
		Passphrase  string // optional, derives the key via PBKDF2 instead
	}

	Journal struct {
		Dir           string
		RetentionDays int
	}

	Log struct {
		Level  string
		Format string // "console" or "json"
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("store_write_timeout", "10s")
	v.SetDefault("store_bulk_timeout", "60s")
	v.SetDefault("store_batch_size", 100)
	v.SetDefault("store_batch_delay", "50ms")
	v.SetDefault("store_queue_depth", 256)
	v.SetDefault("store_health_retries", 3)
	v.SetDefault("store_health_timeout", "2s")

	v.SetDefault("refresh_enabled", false)
	v.SetDefault("refresh_schedule", "*/30 * * * *") // every 30 minutes

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("credentials_key_file", "")
	v.SetDefault("credentials_passphrase", "")

	v.SetDefault("journal_dir", "./journal")
	v.SetDefault("journal_retention_days", 30)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	return &Config{
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Store: Store{
			WriteTimeout:  v.GetDuration("STORE_WRITE_TIMEOUT"),
			BulkTimeout:   v.GetDuration("STORE_BULK_TIMEOUT"),
			BatchSize:     v.GetInt("STORE_BATCH_SIZE"),
			BatchDelay:    v.GetDuration("STORE_BATCH_DELAY"),
			QueueDepth:    v.GetInt("STORE_QUEUE_DEPTH"),
			HealthRetries: v.GetInt("STORE_HEALTH_RETRIES"),
			HealthTimeout: v.GetDuration("STORE_HEALTH_TIMEOUT"),
		},
		Scheduler: Scheduler{
			RefreshEnabled:  v.GetBool("REFRESH_ENABLED"),
			RefreshSchedule: v.GetString("REFRESH_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Credentials: Credentials{
			KeyFilePath: v.GetString("CREDENTIALS_KEY_FILE"),
			Passphrase:  v.GetString("CREDENTIALS_PASSPHRASE"),
		},
		Journal: Journal{
			Dir:           v.GetString("JOURNAL_DIR"),
			RetentionDays: v.GetInt("JOURNAL_RETENTION_DAYS"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
