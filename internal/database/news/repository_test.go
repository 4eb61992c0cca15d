package news

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

func sampleNews() []entities.News {
	return []entities.News{
		{Title: "Sortie scolaire", Content: "Prévoir un pique-nique.", Author: "Mme Dupont",
			PublishedAt: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), Important: true},
		{Title: "Photos de classe", Content: "Disponibles au secrétariat.",
			PublishedAt: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)},
	}
}

func TestAddToDatabaseIsIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddToDatabase(ctx, sampleNews(), "acc1"))
	require.NoError(t, repo.AddToDatabase(ctx, sampleNews(), "acc1"))

	items, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSyncPreservesLocalReadFlag(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddToDatabase(ctx, sampleNews(), "acc1"))

	items, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	require.NotEmpty(t, items)

	require.NoError(t, repo.SetRead(ctx, items[0].ID, true))
	require.NoError(t, repo.AddToDatabase(ctx, sampleNews(), "acc1"))

	after, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	for _, n := range after {
		if n.ID == items[0].ID {
			assert.True(t, n.Read, "sync must never reset the locally-owned read marker")
		}
	}
}
