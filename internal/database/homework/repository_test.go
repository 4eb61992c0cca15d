package homework

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

func sampleItems(due time.Time) []entities.Homework {
	return []entities.Homework{
		{HomeworkID: "r1", Subject: "Maths", Content: "<p>Exercices 12 à 15</p>", DueDate: due},
		{HomeworkID: "r2", Subject: "Histoire", Content: "<p>Réviser le chapitre 3</p>", DueDate: due.AddDate(0, 0, 1)},
	}
}

func TestAddToDatabaseIsIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	due := time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AddToDatabase(ctx, sampleItems(due), "acc1"))
	require.NoError(t, repo.AddToDatabase(ctx, sampleItems(due), "acc1"))

	items, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	assert.Len(t, items, 2, "re-syncing the same feed must not duplicate rows")
}

func TestAddToDatabaseUpdatesContentFields(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	due := time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC)
	items := sampleItems(due)

	require.NoError(t, repo.AddToDatabase(ctx, items, "acc1"))

	// The provider flips metadata on the same assignment.
	items[0].Exam = true
	items[0].ReturnFormat = entities.ReturnFormatFileUpload
	require.NoError(t, repo.AddToDatabase(ctx, items[:1], "acc1"))

	got, err := repo.Get(Key(entities.Homework{
		Subject: "Maths", Content: "<p>Exercices 12 à 15</p>",
		CreatedByAccount: "acc1", DueDate: due,
	}))
	require.NoError(t, err)
	assert.True(t, got.Exam)
	assert.Equal(t, entities.ReturnFormatFileUpload, got.ReturnFormat)
}

func TestSyncPreservesLocalDoneFlag(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	due := time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC)
	items := sampleItems(due)

	require.NoError(t, repo.AddToDatabase(ctx, items, "acc1"))

	id := Key(entities.Homework{
		Subject: "Maths", Content: "<p>Exercices 12 à 15</p>",
		CreatedByAccount: "acc1", DueDate: due,
	})
	require.NoError(t, repo.SetDone(ctx, id, true))

	// Provider still reports the item as not done; the local flag must win.
	require.NoError(t, repo.AddToDatabase(ctx, items, "acc1"))

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.True(t, got.Done, "sync must never clobber the locally-owned done flag")
}

func TestAccountsAreIsolated(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	due := time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AddToDatabase(ctx, sampleItems(due), "acc1"))
	require.NoError(t, repo.AddToDatabase(ctx, sampleItems(due), "acc2"))

	one, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	two, err := repo.ForAccount("acc2")
	require.NoError(t, err)

	assert.Len(t, one, 2)
	assert.Len(t, two, 2)
	assert.NotEqual(t, one[0].ID, two[0].ID, "identity keys include the owning account")
}

func TestBetween(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	due := time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddToDatabase(ctx, sampleItems(due), "acc1"))

	items, err := repo.Between("acc1", due, due.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Maths", items[0].Subject)
}

func TestObserveReflectsSync(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	sub := repo.Observe("acc1")
	defer sub.Close()

	initial := <-sub.C
	assert.Empty(t, initial)

	due := time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddToDatabase(context.Background(), sampleItems(due), "acc1"))

	select {
	case rows := <-sub.C:
		assert.Len(t, rows, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no emission after sync commit")
	}
}
