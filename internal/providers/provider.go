// Package providers defines the capability-tagged plugin abstraction that
// normalizes remote school-information systems into the shared domain model.
//
// A plugin declares the capabilities it supports; the account manager checks
// membership before invoking any optional operation, never relying on type
// assertions alone.
package providers

import (
	"context"
	"sync"

	"github.com/cartable-app/cartable/internal/entities"
)

type Capability string

const (
	CapabilityRefresh        Capability = "refresh"
	CapabilityHomework       Capability = "homework"
	CapabilityNews           Capability = "news"
	CapabilityGrades         Capability = "grades"
	CapabilityAttendance     Capability = "attendance"
	CapabilityTimetable      Capability = "timetable"
	CapabilityCanteenBalance Capability = "canteen_balance"
	CapabilityCanteenHistory Capability = "canteen_history"
	CapabilityCanteenBooking Capability = "canteen_booking"
	CapabilityCanteenMenu    Capability = "canteen_menu"
	CapabilityCanteenQRCode  Capability = "canteen_qrcode"
	CapabilityChatRead       Capability = "chat_read"
	CapabilityChatWrite      Capability = "chat_write"
	CapabilityKids           Capability = "kids"
)

// CapabilitySet is the static capability declaration of a plugin.
type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Plugin is a session-bearing connection to one provider. Instances are
// produced by a Factory after authentication and are read-only except for
// the operations explicitly declared write-through (homework completion,
// chat send).
type Plugin interface {
	// Provider returns the stable provider identifier ("pronote", ...).
	Provider() string
	// Capabilities returns the plugin's static capability declaration.
	Capabilities() CapabilitySet
}

// Factory re-authenticates against the provider and returns a fresh
// session-bearing plugin along with the (possibly rotated) credential blob.
// On rejection it returns an AuthError and must not have mutated anything.
type Factory func(ctx context.Context, auth entities.Auth) (Plugin, entities.Auth, error)

// Optional operation families. A plugin implements the interfaces matching
// its capability set; callers check the capability first and then assert.

type HomeworkFetcher interface {
	// Homeworks fetches assignments for the ISO week offset relative to the
	// current week (0 = this week).
	Homeworks(ctx context.Context, week int) ([]entities.Homework, error)
}

type HomeworkCompleter interface {
	// SetHomeworkCompletion applies the completion state remotely and
	// returns the updated item. The caller owns reflecting the result into
	// the cache and rolling back on failure.
	SetHomeworkCompletion(ctx context.Context, item entities.Homework, done bool) (entities.Homework, error)
}

type NewsFetcher interface {
	News(ctx context.Context) ([]entities.News, error)
}

type GradesFetcher interface {
	Periods(ctx context.Context) ([]entities.Period, error)
	GradesForPeriod(ctx context.Context, period entities.Period) (entities.PeriodGrades, error)
}

type AttendanceFetcher interface {
	AttendanceForPeriod(ctx context.Context, periodName string) (entities.Attendance, error)
}

type TimetableFetcher interface {
	WeeklyTimetable(ctx context.Context, week int) ([]entities.CourseDay, error)
}

type CanteenBalanceFetcher interface {
	CanteenBalances(ctx context.Context) ([]entities.CanteenBalance, error)
}

type CanteenHistoryFetcher interface {
	CanteenHistory(ctx context.Context) ([]entities.CanteenHistoryItem, error)
}

type CanteenBookingFetcher interface {
	CanteenBookings(ctx context.Context, week int) ([]entities.CanteenBooking, error)
}

type CanteenQRCodeFetcher interface {
	CanteenQRCode(ctx context.Context) (entities.CanteenQRCode, error)
}

type CanteenMenuFetcher interface {
	CanteenMenus(ctx context.Context, week int) ([]entities.CanteenMenu, error)
}

type ChatReader interface {
	Chats(ctx context.Context) ([]entities.Chat, error)
}

type ChatWriter interface {
	SendMessage(ctx context.Context, chat entities.Chat, content string) (entities.Message, error)
}

type KidsFetcher interface {
	Kids(ctx context.Context) ([]entities.Kid, error)
}

// Registry maps provider identifiers to factories. It is an explicit,
// injected object: construct one per engine instance, never share through a
// package-level singleton.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(provider string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Lookup returns the factory for a provider identifier, or nil.
func (r *Registry) Lookup(provider string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[provider]
}

// Providers lists the registered provider identifiers.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
