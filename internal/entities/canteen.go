package entities

import (
	"time"
)

// CanteenMenu is the published menu for one day.
type CanteenMenu struct {
	ID           string     `gorm:"primaryKey;size:16" json:"id"`
	Date         time.Time  `gorm:"index" json:"date"`
	LunchDishes  StringList `gorm:"type:text" json:"lunch_dishes,omitempty"`
	DinnerDishes StringList `gorm:"type:text" json:"dinner_dishes,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanteenHistoryItem is one ledger line (a meal taken, a top-up).
type CanteenHistoryItem struct {
	ID       string    `gorm:"primaryKey;size:16" json:"id"`
	Date     time.Time `gorm:"index" json:"date"`
	Label    string    `gorm:"size:256" json:"label"`
	Amount   float64   `json:"amount"` // signed, account currency
	Currency string    `gorm:"size:8" json:"currency,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanteenBalance is the current wallet state reported by the canteen
// provider. One row per provider label and account.
type CanteenBalance struct {
	ID             string  `gorm:"primaryKey;size:16" json:"id"`
	Label          string  `gorm:"size:128" json:"label"`
	Amount         float64 `json:"amount"`
	CashAmount     float64 `json:"cash_amount,omitempty"`
	MealsRemaining int     `json:"meals_remaining"`
	Currency       string  `gorm:"size:8" json:"currency,omitempty"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanteenBooking is a bookable meal slot.
type CanteenBooking struct {
	ID        string    `gorm:"primaryKey;size:16" json:"id"`
	BookingID string    `gorm:"index;size:128" json:"booking_id,omitempty"` // provider-side id
	Date      time.Time `gorm:"index" json:"date"`
	Label     string    `gorm:"size:128" json:"label,omitempty"`
	Booked    bool      `json:"booked"`
	CanBook   bool      `json:"can_book"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanteenQRCode is the payload the canteen terminal scans.
type CanteenQRCode struct {
	ID    string `gorm:"primaryKey;size:16" json:"id"`
	Label string `gorm:"size:128" json:"label,omitempty"`
	Data  string `gorm:"type:text" json:"data"`

	CreatedByAccount string    `gorm:"index;size:36" json:"created_by_account"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (CanteenMenu) TableName() string {
	return "canteen_menus"
}

func (CanteenHistoryItem) TableName() string {
	return "canteen_history_items"
}

func (CanteenBalance) TableName() string {
	return "canteen_balances"
}

func (CanteenBooking) TableName() string {
	return "canteen_bookings"
}

func (CanteenQRCode) TableName() string {
	return "canteen_qrcodes"
}
