package chat

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

func sampleThread(messages int) entities.Chat {
	chat := entities.Chat{
		Subject:       "Absence de mardi",
		Creator:       "M. Bernard",
		LastMessageAt: time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC),
		Recipients:    []entities.Recipient{{Name: "M. Bernard"}, {Name: "Vie scolaire"}},
	}
	for i := 0; i < messages; i++ {
		chat.Messages = append(chat.Messages, entities.Message{
			Author:  "M. Bernard",
			Content: "Message " + string(rune('A'+i)),
			SentAt:  time.Date(2026, 9, 20, 9+i, 0, 0, 0, time.UTC),
		})
	}
	return chat
}

func TestAddToDatabaseIsIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddToDatabase(ctx, []entities.Chat{sampleThread(2)}, "acc1"))
	require.NoError(t, repo.AddToDatabase(ctx, []entities.Chat{sampleThread(2)}, "acc1"))

	chats, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Len(t, chats[0].Messages, 2)
	assert.Len(t, chats[0].Recipients, 2)
}

func TestNewMessagesAppendToExistingThread(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddToDatabase(ctx, []entities.Chat{sampleThread(1)}, "acc1"))

	grown := sampleThread(3)
	grown.LastMessageAt = grown.Messages[2].SentAt
	require.NoError(t, repo.AddToDatabase(ctx, []entities.Chat{grown}, "acc1"))

	chats, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Len(t, chats[0].Messages, 3, "old messages stay, new ones append")
	assert.True(t, chats[0].LastMessageAt.Equal(grown.LastMessageAt))
}

func TestMessagesOrderedBySentAt(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.AddToDatabase(context.Background(), []entities.Chat{sampleThread(3)}, "acc1"))

	chats, err := repo.ForAccount("acc1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	msgs := chats[0].Messages
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].SentAt.Before(msgs[1].SentAt))
	assert.True(t, msgs[1].SentAt.Before(msgs[2].SentAt))
}
