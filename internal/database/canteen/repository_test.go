package canteen

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

func TestSaveBalanceUpserts(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, repo.SaveBalance(ctx, entities.CanteenBalance{
		Label: "Self", Amount: 23.40, Currency: "EUR", MealsRemaining: 5,
	}, "acc1"))
	require.NoError(t, repo.SaveBalance(ctx, entities.CanteenBalance{
		Label: "Self", Amount: 18.20, Currency: "EUR", MealsRemaining: 4,
	}, "acc1"))

	balances, err := repo.Balances("acc1")
	require.NoError(t, err)
	require.Len(t, balances, 1, "one row per label and account")
	assert.Equal(t, 18.20, balances[0].Amount)
	assert.Equal(t, 4, balances[0].MealsRemaining)
}

func TestHistoryIsAppendOnlyAndIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	items := []entities.CanteenHistoryItem{
		{Date: time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC), Label: "Repas", Amount: -3.80, Currency: "EUR"},
		{Date: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), Label: "Rechargement", Amount: 30, Currency: "EUR"},
	}

	require.NoError(t, repo.AddHistoryToDatabase(ctx, items, "acc1"))
	require.NoError(t, repo.AddHistoryToDatabase(ctx, items, "acc1"))

	history, err := repo.History("acc1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestBookingsUpsertByIdentity(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	date := time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AddBookingsToDatabase(ctx, []entities.CanteenBooking{
		{BookingID: "b-1", Date: date, Label: "Déjeuner", Booked: false, CanBook: true},
	}, "acc1"))

	// The user books the slot; the next sync reflects it on the same row.
	require.NoError(t, repo.AddBookingsToDatabase(ctx, []entities.CanteenBooking{
		{BookingID: "b-1", Date: date, Label: "Déjeuner", Booked: true, CanBook: true},
	}, "acc1"))

	bookings, err := repo.Bookings("acc1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.True(t, bookings[0].Booked)
}

func TestSaveQRCodeReplacesPerLabel(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.SaveQRCode(ctx, entities.CanteenQRCode{Label: "Self", Data: "old-payload"}, "acc1"))
	require.NoError(t, repo.SaveQRCode(ctx, entities.CanteenQRCode{Label: "Self", Data: "new-payload"}, "acc1"))

	codes, err := repo.QRCodes("acc1")
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "new-payload", codes[0].Data)
}

func TestMenusIdempotent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	menus := []entities.CanteenMenu{
		{Date: time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC),
			LunchDishes: entities.StringList{"Carottes râpées", "Poulet rôti", "Yaourt"}},
	}
	require.NoError(t, repo.AddMenusToDatabase(ctx, menus, "acc1"))
	require.NoError(t, repo.AddMenusToDatabase(ctx, menus, "acc1"))

	got, err := repo.Menus("acc1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entities.StringList{"Carottes râpées", "Poulet rôti", "Yaourt"}, got[0].LunchDishes)
}
