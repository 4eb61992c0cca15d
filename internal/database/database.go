package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/logger"
)

var (
	// ErrWriteTimeout is returned when a write exceeds its bound. The
	// underlying transaction is abandoned, not rolled back: it may still
	// commit later. Callers must treat the outcome as unknown and may retry,
	// because upserts are idempotent by construction (content-addressed
	// keys).
	ErrWriteTimeout = errors.New("database: write timed out")

	// ErrClosed is returned for writes submitted after Close.
	ErrClosed = errors.New("database: closed")
)

const (
	DefaultWriteTimeout  = 10 * time.Second
	DefaultBulkTimeout   = 60 * time.Second
	DefaultBatchSize     = 100
	DefaultBatchDelay    = 50 * time.Millisecond
	DefaultQueueDepth    = 256
	DefaultHealthRetries = 3
	DefaultHealthTimeout = 2 * time.Second
)

// Options tunes the store. Zero values fall back to the defaults above.
type Options struct {
	Path          string
	WriteTimeout  time.Duration
	BulkTimeout   time.Duration
	BatchSize     int
	BatchDelay    time.Duration
	QueueDepth    int
	HealthRetries int
	HealthTimeout time.Duration
}

func (o *Options) fillDefaults() {
	if o.WriteTimeout == 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.BulkTimeout == 0 {
		o.BulkTimeout = DefaultBulkTimeout
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = DefaultBatchDelay
	}
	if o.QueueDepth == 0 {
		o.QueueDepth = DefaultQueueDepth
	}
	if o.HealthRetries == 0 {
		o.HealthRetries = DefaultHealthRetries
	}
	if o.HealthTimeout == 0 {
		o.HealthTimeout = DefaultHealthTimeout
	}
}

// Models lists every persisted entity, in migration order.
func Models() []any {
	return []any{
		&entities.Account{},
		&entities.ServiceAccount{},
		&entities.Homework{},
		&entities.Period{},
		&entities.Subject{},
		&entities.Grade{},
		&entities.Attendance{},
		&entities.Delay{},
		&entities.Absence{},
		&entities.Observation{},
		&entities.Punishment{},
		&entities.News{},
		&entities.CourseDay{},
		&entities.Course{},
		&entities.Chat{},
		&entities.Message{},
		&entities.Recipient{},
		&entities.CanteenMenu{},
		&entities.CanteenHistoryItem{},
		&entities.CanteenBalance{},
		&entities.CanteenBooking{},
		&entities.CanteenQRCode{},
		&entities.Kid{},
		&entities.SyncState{},
	}
}

// TableNames lists every table, used by the recovery probe.
func TableNames() []string {
	return []string{
		"accounts", "service_accounts", "homeworks", "periods", "subjects",
		"grades", "attendances", "delays", "absences", "observations",
		"punishments", "news", "course_days", "courses", "chats", "messages",
		"recipients", "canteen_menus", "canteen_history_items",
		"canteen_balances", "canteen_bookings", "canteen_qrcodes", "kids",
		"sync_states",
	}
}

// Database is the local cache store. All mutations go through a single
// serialized write queue; reads hit the GORM handle directly.
type Database struct {
	DB   *gorm.DB
	opts Options
	log  zerolog.Logger

	writes chan *writeReq
	quit   chan struct{}
	hub    *hub
}

// WriteOp describes one serialized mutation. Tables lists the tables the
// mutation touches so live queries on them can re-emit after commit.
type WriteOp struct {
	Name    string
	Tables  []string
	Timeout time.Duration
	Fn      func(tx *gorm.DB) error
}

type writeReq struct {
	op   WriteOp
	done chan error
}

// New opens (or creates) the cache database, migrates the schema and starts
// the write queue.
func New(opts Options) (*Database, error) {
	opts.fillDefaults()

	db, err := gorm.Open(sqlite.Open(opts.Path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	d := &Database{
		DB:     db,
		opts:   opts,
		log:    logger.Get().With().Str("component", "database").Logger(),
		writes: make(chan *writeReq, opts.QueueDepth),
		quit:   make(chan struct{}),
		hub:    newHub(),
	}
	go d.writeLoop()

	d.log.Debug().Str("path", opts.Path).Msg("database initialized")
	return d, nil
}

// Close stops the write queue and closes the underlying connection. Pending
// writes that have not started are abandoned with ErrClosed.
func (d *Database) Close() error {
	close(d.quit)
	d.hub.closeAll()
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) writeLoop() {
	for {
		select {
		case <-d.quit:
			return
		case req := <-d.writes:
			err := d.DB.Transaction(req.op.Fn)
			req.done <- err
			if err == nil {
				d.hub.notify(req.op.Tables)
			}
		}
	}
}

// Write enqueues op and waits for its commit, racing it against the
// operation's timeout. On expiry the wait is abandoned and ErrWriteTimeout is
// returned; the queued transaction may still land later.
func (d *Database) Write(ctx context.Context, op WriteOp) error {
	if op.Timeout == 0 {
		op.Timeout = d.opts.WriteTimeout
	}
	req := &writeReq{op: op, done: make(chan error, 1)}

	timer := time.NewTimer(op.Timeout)
	defer timer.Stop()

	select {
	case d.writes <- req:
	case <-timer.C:
		return fmt.Errorf("%s: queue full: %w", op.Name, ErrWriteTimeout)
	case <-d.quit:
		return fmt.Errorf("%s: %w", op.Name, ErrClosed)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		if err != nil {
			return fmt.Errorf("%s: %w", op.Name, err)
		}
		return nil
	case <-timer.C:
		d.log.Warn().Str("op", op.Name).Dur("timeout", op.Timeout).
			Msg("write abandoned after timeout, outcome unknown")
		return fmt.Errorf("%s: %w", op.Name, ErrWriteTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteBatched splits total pending mutations into fixed-size batches, each
// its own timeout-guarded transaction, with a small pause in between so one
// huge sync cannot monopolize the write queue.
func (d *Database) WriteBatched(ctx context.Context, name string, tables []string, total int, fn func(tx *gorm.DB, start, end int) error) error {
	for start := 0; start < total; start += d.opts.BatchSize {
		end := start + d.opts.BatchSize
		if end > total {
			end = total
		}
		s, e := start, end
		err := d.Write(ctx, WriteOp{
			Name:    fmt.Sprintf("%s[%d:%d]", name, s, e),
			Tables:  tables,
			Timeout: d.opts.BulkTimeout,
			Fn: func(tx *gorm.DB) error {
				return fn(tx, s, e)
			},
		})
		if err != nil {
			return err
		}
		if end < total {
			select {
			case <-time.After(d.opts.BatchDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
