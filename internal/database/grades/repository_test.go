package grades

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

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.New(database.Options{Path: dbPath})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return NewRepository(db), cleanup
}

func ptr(v float64) *float64 { return &v }

func samplePeriodGrades() entities.PeriodGrades {
	return entities.PeriodGrades{
		Period: entities.Period{
			Name:      "Trimestre 1",
			StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
		},
		Subjects: []entities.Subject{
			{Name: "Maths", Average: entities.GradeScore{Value: ptr(13.5)}},
			{Name: "Anglais", Average: entities.GradeScore{Value: ptr(15)}},
		},
		Grades: []entities.Grade{
			{
				SubjectName: "Maths", Description: "Contrôle fractions",
				GivenAt: time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), Coefficient: 2,
				Student: entities.GradeScore{Value: ptr(14)},
				OutOf:   entities.GradeScore{Value: ptr(20)},
			},
			{
				SubjectName: "Anglais", Description: "Oral",
				GivenAt: time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC), Coefficient: 1,
				Student: entities.GradeScore{Value: ptr(8)},
				OutOf:   entities.GradeScore{Value: ptr(10)},
			},
		},
	}
}

func TestAddPeriodToDatabaseIsIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddPeriodToDatabase(ctx, samplePeriodGrades(), "acc1"))
	require.NoError(t, repo.AddPeriodToDatabase(ctx, samplePeriodGrades(), "acc1"))

	periods, err := repo.Periods("acc1")
	require.NoError(t, err)
	require.Len(t, periods, 1)

	pg, err := repo.ForPeriod("acc1", periods[0].ID)
	require.NoError(t, err)
	assert.Len(t, pg.Subjects, 2)
	assert.Len(t, pg.Grades, 2)
}

func TestForPeriodComputesOverallAverage(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddPeriodToDatabase(ctx, samplePeriodGrades(), "acc1"))

	periods, err := repo.Periods("acc1")
	require.NoError(t, err)
	require.Len(t, periods, 1)

	pg, err := repo.ForPeriod("acc1", periods[0].ID)
	require.NoError(t, err)

	// (14/20*20*2 + 8/10*20*1) / 3 = (28 + 16) / 3
	require.True(t, pg.OverallAverage.Usable())
	assert.InDelta(t, 44.0/3.0, *pg.OverallAverage.Value, 0.001)
}

func TestOverallAverageSkipsDisabledScores(t *testing.T) {
	marks := []entities.Grade{
		{Coefficient: 1, Student: entities.GradeScore{Value: ptr(10)}, OutOf: entities.GradeScore{Value: ptr(20)}},
		{Coefficient: 5, Student: entities.GradeScore{Status: "absent", Disabled: true}, OutOf: entities.GradeScore{Value: ptr(20)}},
		{Coefficient: 5, Student: entities.GradeScore{Value: ptr(18)}, OutOf: entities.GradeScore{Disabled: true}},
	}

	avg := OverallAverage(marks)
	require.True(t, avg.Usable())
	assert.Equal(t, 10.0, *avg.Value, "disabled student or out-of scores must not enter the mean")
}

func TestOverallAverageAllDisabled(t *testing.T) {
	marks := []entities.Grade{
		{Coefficient: 1, Student: entities.GradeScore{Disabled: true}, OutOf: entities.GradeScore{Value: ptr(20)}},
	}
	avg := OverallAverage(marks)
	assert.False(t, avg.Usable())
	assert.True(t, avg.Disabled)
}

func TestGradeUpdatePreservesCreatedAt(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	pg := samplePeriodGrades()
	require.NoError(t, repo.AddPeriodToDatabase(ctx, pg, "acc1"))

	periods, err := repo.Periods("acc1")
	require.NoError(t, err)
	before, err := repo.ForPeriod("acc1", periods[0].ID)
	require.NoError(t, err)
	require.Len(t, before.Grades, 2)

	time.Sleep(10 * time.Millisecond)

	// Provider corrects a class average on an existing mark.
	pg.Grades[0].Average = entities.GradeScore{Value: ptr(11.2)}
	require.NoError(t, repo.AddPeriodToDatabase(ctx, pg, "acc1"))

	after, err := repo.ForPeriod("acc1", periods[0].ID)
	require.NoError(t, err)
	require.Len(t, after.Grades, 2)

	for _, g := range after.Grades {
		var match *entities.Grade
		for i := range before.Grades {
			if before.Grades[i].ID == g.ID {
				match = &before.Grades[i]
			}
		}
		require.NotNil(t, match)
		assert.WithinDuration(t, match.CreatedAt, g.CreatedAt, time.Millisecond,
			"updates must keep the original creation time for dedup ordering")
	}
}
