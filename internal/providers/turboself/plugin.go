// Package turboself wraps the Turboself canteen service: wallet balance,
// ledger history, meal booking, daily menus and the terminal QR code.
package turboself

import (
	"context"
	"errors"
	"time"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/providers"
)

const ProviderName = "turboself"

var ErrBadCredentials = errors.New("turboself: bad credentials")

var capabilities = providers.NewCapabilitySet(
	providers.CapabilityRefresh,
	providers.CapabilityCanteenBalance,
	providers.CapabilityCanteenHistory,
	providers.CapabilityCanteenBooking,
	providers.CapabilityCanteenMenu,
	providers.CapabilityCanteenQRCode,
)

// Client is the wire-level Turboself API, implemented outside the engine.
type Client interface {
	Authenticate(ctx context.Context, auth entities.Auth) (entities.Auth, error)
	FetchBalances(ctx context.Context) ([]RawBalance, error)
	FetchHistory(ctx context.Context) ([]RawHistoryItem, error)
	FetchBookings(ctx context.Context, week int) ([]RawBooking, error)
	FetchMenus(ctx context.Context, week int) ([]RawMenu, error)
	FetchQRCode(ctx context.Context) (RawQRCode, error)
}

// Amounts are integer cents on the wire.

type RawBalance struct {
	Label          string `json:"lib"`
	AmountCents    int    `json:"montant"`
	CashCents      int    `json:"montantEspeces"`
	MealsRemaining int    `json:"nbRepas"`
}

type RawHistoryItem struct {
	Date        string `json:"date"` // "2006-01-02"
	Label       string `json:"lib"`
	AmountCents int    `json:"montant"` // signed
}

type RawBooking struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Label   string `json:"lib"`
	Booked  bool   `json:"reserve"`
	CanBook bool   `json:"reservable"`
}

type RawMenu struct {
	Date   string   `json:"date"`
	Lunch  []string `json:"dejeuner"`
	Dinner []string `json:"diner"`
}

type RawQRCode struct {
	Label string `json:"lib"`
	Data  string `json:"code"`
}

// Plugin is a session-bearing Turboself connection.
type Plugin struct {
	client Client
}

func NewFactory(client Client) providers.Factory {
	return func(ctx context.Context, auth entities.Auth) (providers.Plugin, entities.Auth, error) {
		rotated, err := client.Authenticate(ctx, auth)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				return nil, entities.Auth{}, &providers.AuthError{Provider: ProviderName, Cause: err.Error()}
			}
			return nil, entities.Auth{}, providers.Fetchf(ProviderName, "authenticate", err)
		}
		return &Plugin{client: client}, rotated, nil
	}
}

func (p *Plugin) Provider() string {
	return ProviderName
}

func (p *Plugin) Capabilities() providers.CapabilitySet {
	return capabilities
}

func parseDay(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func euros(cents int) float64 {
	return float64(cents) / 100
}

func (p *Plugin) CanteenBalances(ctx context.Context) ([]entities.CanteenBalance, error) {
	raws, err := p.client.FetchBalances(ctx)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "canteen_balances", err)
	}
	balances := make([]entities.CanteenBalance, 0, len(raws))
	for _, raw := range raws {
		balances = append(balances, entities.CanteenBalance{
			Label:          raw.Label,
			Amount:         euros(raw.AmountCents),
			CashAmount:     euros(raw.CashCents),
			MealsRemaining: raw.MealsRemaining,
			Currency:       "EUR",
		})
	}
	return balances, nil
}

func (p *Plugin) CanteenHistory(ctx context.Context) ([]entities.CanteenHistoryItem, error) {
	raws, err := p.client.FetchHistory(ctx)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "canteen_history", err)
	}
	items := make([]entities.CanteenHistoryItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, entities.CanteenHistoryItem{
			Date:     parseDay(raw.Date),
			Label:    raw.Label,
			Amount:   euros(raw.AmountCents),
			Currency: "EUR",
		})
	}
	return items, nil
}

func (p *Plugin) CanteenBookings(ctx context.Context, week int) ([]entities.CanteenBooking, error) {
	raws, err := p.client.FetchBookings(ctx, week)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "canteen_bookings", err)
	}
	bookings := make([]entities.CanteenBooking, 0, len(raws))
	for _, raw := range raws {
		bookings = append(bookings, entities.CanteenBooking{
			BookingID: raw.ID,
			Date:      parseDay(raw.Date),
			Label:     raw.Label,
			Booked:    raw.Booked,
			CanBook:   raw.CanBook,
		})
	}
	return bookings, nil
}

func (p *Plugin) CanteenMenus(ctx context.Context, week int) ([]entities.CanteenMenu, error) {
	raws, err := p.client.FetchMenus(ctx, week)
	if err != nil {
		return nil, providers.Fetchf(ProviderName, "canteen_menus", err)
	}
	menus := make([]entities.CanteenMenu, 0, len(raws))
	for _, raw := range raws {
		menus = append(menus, entities.CanteenMenu{
			Date:         parseDay(raw.Date),
			LunchDishes:  entities.StringList(raw.Lunch),
			DinnerDishes: entities.StringList(raw.Dinner),
		})
	}
	return menus, nil
}

func (p *Plugin) CanteenQRCode(ctx context.Context) (entities.CanteenQRCode, error) {
	raw, err := p.client.FetchQRCode(ctx)
	if err != nil {
		return entities.CanteenQRCode{}, providers.Fetchf(ProviderName, "canteen_qrcode", err)
	}
	return entities.CanteenQRCode{Label: raw.Label, Data: raw.Data}, nil
}
