package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T, opts Options) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	opts.Path = dbPath
	db, err := New(opts)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestWriteCommits(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	err := db.Write(context.Background(), WriteOp{
		Name:   "test.insert",
		Tables: []string{"homeworks"},
		Fn: func(tx *gorm.DB) error {
			return tx.Create(&entities.Homework{
				ID:               "hw1",
				Subject:          "Maths",
				Content:          "p. 42",
				CreatedByAccount: "acc1",
			}).Error
		},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Homework{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWriteRollsBackOnError(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	err := db.Write(context.Background(), WriteOp{
		Name:   "test.fail",
		Tables: []string{"homeworks"},
		Fn: func(tx *gorm.DB) error {
			if err := tx.Create(&entities.Homework{ID: "hw1", CreatedByAccount: "acc1"}).Error; err != nil {
				return err
			}
			return assert.AnError
		},
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Homework{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "failed transaction must leave no rows")
}

func TestWriteTimeoutAbandonsWait(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	start := time.Now()
	err := db.Write(context.Background(), WriteOp{
		Name:    "test.slow",
		Tables:  []string{"sync_states"},
		Timeout: 50 * time.Millisecond,
		Fn: func(tx *gorm.DB) error {
			time.Sleep(300 * time.Millisecond)
			return nil
		},
	})
	require.ErrorIs(t, err, ErrWriteTimeout)
	assert.Less(t, time.Since(start), 250*time.Millisecond, "caller must be released at the timeout, not at commit")

	// The abandoned transaction still commits; the queue keeps serving.
	require.Eventually(t, func() bool {
		err := db.Write(context.Background(), WriteOp{
			Name:   "test.after",
			Tables: []string{"sync_states"},
			Fn:     func(tx *gorm.DB) error { return nil },
		})
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWriteAfterCloseFails(t *testing.T) {
	dbPath := "./test_" + t.Name() + ".db"
	defer os.Remove(dbPath)

	db, err := New(Options{Path: dbPath})
	require.NoError(t, err)
	db.Close()

	err = db.Write(context.Background(), WriteOp{
		Name:   "test.closed",
		Tables: []string{"sync_states"},
		Fn:     func(tx *gorm.DB) error { return nil },
	})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWriteBatched(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{BatchSize: 2, BatchDelay: time.Millisecond})
	defer cleanup()

	items := []entities.Homework{
		{ID: "a", CreatedByAccount: "acc1"},
		{ID: "b", CreatedByAccount: "acc1"},
		{ID: "c", CreatedByAccount: "acc1"},
		{ID: "d", CreatedByAccount: "acc1"},
		{ID: "e", CreatedByAccount: "acc1"},
	}

	err := db.WriteBatched(context.Background(), "test.batch", []string{"homeworks"}, len(items),
		func(tx *gorm.DB, start, end int) error {
			for i := start; i < end; i++ {
				if err := tx.Create(&items[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Homework{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestSyncState(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	ctx := context.Background()

	value, err := db.GetState("missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, db.SetState(ctx, "last_refresh:acc1", "first"))
	require.NoError(t, db.SetState(ctx, "last_refresh:acc1", "second"))

	value, err = db.GetState("last_refresh:acc1")
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	var count int64
	require.NoError(t, db.DB.Model(&entities.SyncState{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "SetState must upsert, not append")
}

func TestVerifyHealth(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	report := db.VerifyHealth(context.Background())
	assert.True(t, report.Healthy)
	assert.False(t, report.Degraded)
	assert.Equal(t, 1, report.FlushAttempts)

	// The flush writes a heartbeat row.
	value, err := db.GetState("heartbeat")
	require.NoError(t, err)
	assert.NotEmpty(t, value)
}

func TestRemoveAllDuplicates(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	rows := []entities.Homework{
		{ID: "keep", HomeworkID: "remote-1", CreatedByAccount: "acc1", Done: true, CreatedAt: base},
		{ID: "dupe1", HomeworkID: "remote-1", CreatedByAccount: "acc1", CreatedAt: base.Add(time.Minute)},
		{ID: "dupe2", HomeworkID: "remote-1", CreatedByAccount: "acc1", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "other-account", HomeworkID: "remote-1", CreatedByAccount: "acc2", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range rows {
		require.NoError(t, db.DB.Create(&rows[i]).Error)
	}

	removed, err := db.RemoveAllDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var survivors []entities.Homework
	require.NoError(t, db.DB.Order("id").Find(&survivors).Error)
	require.Len(t, survivors, 2)
	assert.Equal(t, "keep", survivors[0].ID, "the oldest row must survive")
	assert.Equal(t, "other-account", survivors[1].ID, "other accounts are untouched")

	// Idempotent: a second pass removes nothing.
	removed, err = db.RemoveAllDuplicates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRemoveAllDuplicatesKeepsRowsWithoutNaturalKey(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	// User-created homework carries no provider id; two such rows share an
	// empty natural key but are distinct records.
	base := time.Now().Add(-time.Hour)
	rows := []entities.Homework{
		{ID: "custom1", HomeworkID: "", Custom: true, Subject: "Maths", CreatedByAccount: "acc1", CreatedAt: base},
		{ID: "custom2", HomeworkID: "", Custom: true, Subject: "Anglais", CreatedByAccount: "acc1", CreatedAt: base.Add(time.Minute)},
	}
	for i := range rows {
		require.NoError(t, db.DB.Create(&rows[i]).Error)
	}

	removed, err := db.RemoveAllDuplicates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Homework{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestClearAccount(t *testing.T) {
	db, cleanup := setupTestDB(t, Options{})
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, db.DB.Create(&entities.Account{ID: "acc1", FirstName: "Jeanne"}).Error)
	require.NoError(t, db.DB.Create(&entities.ServiceAccount{ID: "svc1", AccountID: "acc1", Provider: "pronote"}).Error)
	require.NoError(t, db.DB.Create(&entities.Homework{ID: "hw1", CreatedByAccount: "acc1"}).Error)
	require.NoError(t, db.DB.Create(&entities.News{ID: "n1", CreatedByAccount: "acc1"}).Error)
	require.NoError(t, db.DB.Create(&entities.Homework{ID: "hw2", CreatedByAccount: "acc2"}).Error)

	require.NoError(t, db.ClearAccount(ctx, "acc1"))

	for _, probe := range []struct {
		model any
		want  int64
	}{
		{&entities.Account{}, 0},
		{&entities.ServiceAccount{}, 0},
		{&entities.News{}, 0},
		{&entities.Homework{}, 1},
	} {
		var count int64
		require.NoError(t, db.DB.Model(probe.model).Count(&count).Error)
		assert.Equal(t, probe.want, count)
	}
}
