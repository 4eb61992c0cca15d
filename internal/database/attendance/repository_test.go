package attendance

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
)

func setupTestRepo(t *testing.T) (*Repository, *database.Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.New(database.Options{Path: dbPath})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return NewRepository(db), db, cleanup
}

func TestAddToDatabaseReplacesChildren(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	first := entities.Attendance{
		PeriodName: "Trimestre 1",
		Delays: []entities.Delay{
			{Timestamp: time.Date(2026, 9, 18, 8, 5, 0, 0, time.UTC), Minutes: 10, Justified: true},
		},
		Absences: []entities.Absence{
			{From: time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC), Hours: 4.5},
		},
	}
	require.NoError(t, repo.AddToDatabase(ctx, first, "acc1"))

	// The provider resolves the delay: the next sync carries a different set.
	second := entities.Attendance{
		PeriodName: "Trimestre 1",
		Delays: []entities.Delay{
			{Timestamp: time.Date(2026, 9, 25, 8, 15, 0, 0, time.UTC), Minutes: 20},
		},
	}
	require.NoError(t, repo.AddToDatabase(ctx, second, "acc1"))

	got, err := repo.ForPeriod("acc1", "Trimestre 1")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.Delays, 1, "old children must be gone after re-sync")
	assert.Equal(t, 20, got.Delays[0].Minutes)
	assert.Empty(t, got.Absences, "absent child kinds are cleared too")

	// Exactly one parent row survives the re-sync.
	var parents int64
	require.NoError(t, db.DB.Model(&entities.Attendance{}).Count(&parents).Error)
	assert.Equal(t, int64(1), parents)

	// No orphaned children.
	var delays int64
	require.NoError(t, db.DB.Model(&entities.Delay{}).Count(&delays).Error)
	assert.Equal(t, int64(1), delays)
	var absences int64
	require.NoError(t, db.DB.Model(&entities.Absence{}).Count(&absences).Error)
	assert.Equal(t, int64(0), absences)
}

func TestAddToDatabaseIsIdempotent(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	att := entities.Attendance{
		PeriodName: "Trimestre 1",
		Punishments: []entities.Punishment{
			{GivenAt: time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC), Nature: "Retenue", Minutes: 60},
		},
	}
	require.NoError(t, repo.AddToDatabase(ctx, att, "acc1"))
	require.NoError(t, repo.AddToDatabase(ctx, att, "acc1"))

	var punishments int64
	require.NoError(t, db.DB.Model(&entities.Punishment{}).Count(&punishments).Error)
	assert.Equal(t, int64(1), punishments)
}

func TestPeriodsAreSeparate(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddToDatabase(ctx, entities.Attendance{PeriodName: "Trimestre 1"}, "acc1"))
	require.NoError(t, repo.AddToDatabase(ctx, entities.Attendance{PeriodName: "Trimestre 2"}, "acc1"))

	one, err := repo.ForPeriod("acc1", "Trimestre 1")
	require.NoError(t, err)
	two, err := repo.ForPeriod("acc1", "Trimestre 2")
	require.NoError(t, err)
	assert.NotEqual(t, one.ID, two.ID)
}
