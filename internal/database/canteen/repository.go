// Package canteen reconciles menus, the transaction history, wallet
// balances, bookable meals and the terminal QR code.
package canteen

import (
	"context"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

func MenuKey(m entities.CanteenMenu) string {
	return ident.Hash(ident.Day(m.Date), m.CreatedByAccount)
}

func HistoryKey(h entities.CanteenHistoryItem) string {
	return ident.Hash(ident.Day(h.Date), h.Label, ident.Float(h.Amount), h.CreatedByAccount)
}

func BalanceKey(b entities.CanteenBalance) string {
	return ident.Hash(b.Label, b.CreatedByAccount)
}

func BookingKey(b entities.CanteenBooking) string {
	return ident.Hash(ident.Day(b.Date), b.Label, b.CreatedByAccount)
}

func QRCodeKey(q entities.CanteenQRCode) string {
	return ident.Hash(q.Label, q.CreatedByAccount)
}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddMenusToDatabase upserts daily menus.
func (r *Repository) AddMenusToDatabase(ctx context.Context, menus []entities.CanteenMenu, accountID string) error {
	if len(menus) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "canteen.menus.upsert",
		Tables: []string{"canteen_menus"},
		Fn: func(tx *gorm.DB) error {
			for i := range menus {
				menu := menus[i]
				menu.CreatedByAccount = accountID
				menu.ID = MenuKey(menu)

				var existing entities.CanteenMenu
				result := tx.Where("id = ?", menu.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					if err := tx.Create(&menu).Error; err != nil {
						return err
					}
					continue
				}
				if result.Error != nil {
					return result.Error
				}
				updates := map[string]any{
					"lunch_dishes":  menu.LunchDishes,
					"dinner_dishes": menu.DinnerDishes,
				}
				if err := tx.Model(&entities.CanteenMenu{}).Where("id = ?", menu.ID).Updates(updates).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}

// AddHistoryToDatabase upserts ledger lines. History is append-only on the
// provider side, so an existing row is left untouched.
func (r *Repository) AddHistoryToDatabase(ctx context.Context, items []entities.CanteenHistoryItem, accountID string) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "canteen.history.upsert",
		Tables: []string{"canteen_history_items"},
		Fn: func(tx *gorm.DB) error {
			for i := range items {
				item := items[i]
				item.CreatedByAccount = accountID
				item.ID = HistoryKey(item)
				var existing entities.CanteenHistoryItem
				result := tx.Where("id = ?", item.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					if err := tx.Create(&item).Error; err != nil {
						return err
					}
				} else if result.Error != nil {
					return result.Error
				}
			}
			return nil
		},
	})
}

// SaveBalance upserts the wallet state, overwriting amounts in place.
func (r *Repository) SaveBalance(ctx context.Context, balance entities.CanteenBalance, accountID string) error {
	balance.CreatedByAccount = accountID
	balance.ID = BalanceKey(balance)
	return r.db.Write(ctx, database.WriteOp{
		Name:   "canteen.balance.upsert",
		Tables: []string{"canteen_balances"},
		Fn: func(tx *gorm.DB) error {
			var existing entities.CanteenBalance
			result := tx.Where("id = ?", balance.ID).First(&existing)
			if result.Error == gorm.ErrRecordNotFound {
				return tx.Create(&balance).Error
			}
			if result.Error != nil {
				return result.Error
			}
			return tx.Model(&entities.CanteenBalance{}).Where("id = ?", balance.ID).Updates(map[string]any{
				"amount":          balance.Amount,
				"cash_amount":     balance.CashAmount,
				"meals_remaining": balance.MealsRemaining,
				"currency":        balance.Currency,
			}).Error
		},
	})
}

// AddBookingsToDatabase upserts bookable slots, overwriting booked state from
// the provider (booking is remote-owned, unlike homework completion).
func (r *Repository) AddBookingsToDatabase(ctx context.Context, bookings []entities.CanteenBooking, accountID string) error {
	if len(bookings) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "canteen.bookings.upsert",
		Tables: []string{"canteen_bookings"},
		Fn: func(tx *gorm.DB) error {
			for i := range bookings {
				booking := bookings[i]
				booking.CreatedByAccount = accountID
				booking.ID = BookingKey(booking)

				var existing entities.CanteenBooking
				result := tx.Where("id = ?", booking.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					if err := tx.Create(&booking).Error; err != nil {
						return err
					}
					continue
				}
				if result.Error != nil {
					return result.Error
				}
				updates := map[string]any{
					"booking_id": booking.BookingID,
					"booked":     booking.Booked,
					"can_book":   booking.CanBook,
				}
				if err := tx.Model(&entities.CanteenBooking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}

// SaveQRCode upserts the terminal code payload.
func (r *Repository) SaveQRCode(ctx context.Context, code entities.CanteenQRCode, accountID string) error {
	code.CreatedByAccount = accountID
	code.ID = QRCodeKey(code)
	return r.db.Write(ctx, database.WriteOp{
		Name:   "canteen.qrcode.upsert",
		Tables: []string{"canteen_qrcodes"},
		Fn: func(tx *gorm.DB) error {
			var existing entities.CanteenQRCode
			result := tx.Where("id = ?", code.ID).First(&existing)
			if result.Error == gorm.ErrRecordNotFound {
				return tx.Create(&code).Error
			}
			if result.Error != nil {
				return result.Error
			}
			return tx.Model(&entities.CanteenQRCode{}).Where("id = ?", code.ID).
				Update("data", code.Data).Error
		},
	})
}

// Balances returns the account's wallet rows.
func (r *Repository) Balances(accountID string) ([]entities.CanteenBalance, error) {
	var balances []entities.CanteenBalance
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("label ASC").Find(&balances).Error
	return balances, err
}

// History returns ledger lines, newest first.
func (r *Repository) History(accountID string) ([]entities.CanteenHistoryItem, error) {
	var items []entities.CanteenHistoryItem
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("date DESC").Find(&items).Error
	return items, err
}

// Menus returns daily menus, oldest first.
func (r *Repository) Menus(accountID string) ([]entities.CanteenMenu, error) {
	var menus []entities.CanteenMenu
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("date ASC").Find(&menus).Error
	return menus, err
}

// Bookings returns bookable slots, oldest first.
func (r *Repository) Bookings(accountID string) ([]entities.CanteenBooking, error) {
	var bookings []entities.CanteenBooking
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("date ASC").Find(&bookings).Error
	return bookings, err
}

// QRCodes returns the stored terminal codes.
func (r *Repository) QRCodes(accountID string) ([]entities.CanteenQRCode, error) {
	var codes []entities.CanteenQRCode
	err := r.db.DB.Where("created_by_account = ?", accountID).Find(&codes).Error
	return codes, err
}

// ObserveBalances emits the wallet rows on every commit touching them.
func (r *Repository) ObserveBalances(accountID string) *database.Subscription[entities.CanteenBalance] {
	return database.Observe(r.db, []string{"canteen_balances"}, func(db *gorm.DB) ([]entities.CanteenBalance, error) {
		var balances []entities.CanteenBalance
		err := db.Where("created_by_account = ?", accountID).
			Order("label ASC").Find(&balances).Error
		return balances, err
	})
}
