// Package engine is the facade the UI talks to: account lifecycle, refresh,
// per-capability sync, cached reads and live queries. It owns the sync
// policies; repositories and plugins stay policy-free.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/accounts"
	"github.com/cartable-app/cartable/internal/database"
	accountsdb "github.com/cartable-app/cartable/internal/database/accounts"
	attendancedb "github.com/cartable-app/cartable/internal/database/attendance"
	canteendb "github.com/cartable-app/cartable/internal/database/canteen"
	chatdb "github.com/cartable-app/cartable/internal/database/chat"
	gradesdb "github.com/cartable-app/cartable/internal/database/grades"
	homeworkdb "github.com/cartable-app/cartable/internal/database/homework"
	kidsdb "github.com/cartable-app/cartable/internal/database/kids"
	newsdb "github.com/cartable-app/cartable/internal/database/news"
	timetabledb "github.com/cartable-app/cartable/internal/database/timetable"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/journal"
	"github.com/cartable-app/cartable/internal/logger"
	"github.com/cartable-app/cartable/internal/providers"
)

// ErrNotFound is returned when a cached entity does not exist.
var ErrNotFound = errors.New("engine: not found")

// Engine wires the account manager, the local store and the sync journal.
type Engine struct {
	db      *database.Database
	manager *accounts.Manager
	journal *journal.Journal
	log     zerolog.Logger

	accounts   *accountsdb.Repository
	homework   *homeworkdb.Repository
	news       *newsdb.Repository
	grades     *gradesdb.Repository
	attendance *attendancedb.Repository
	timetable  *timetabledb.Repository
	canteen    *canteendb.Repository
	chats      *chatdb.Repository
	kids       *kidsdb.Repository
}

func New(db *database.Database, manager *accounts.Manager, jrnl *journal.Journal) *Engine {
	return &Engine{
		db:      db,
		manager: manager,
		journal: jrnl,
		log:     logger.Get().With().Str("component", "engine").Logger(),

		accounts:   accountsdb.NewRepository(db),
		homework:   homeworkdb.NewRepository(db),
		news:       newsdb.NewRepository(db),
		grades:     gradesdb.NewRepository(db),
		attendance: attendancedb.NewRepository(db),
		timetable:  timetabledb.NewRepository(db),
		canteen:    canteendb.NewRepository(db),
		chats:      chatdb.NewRepository(db),
		kids:       kidsdb.NewRepository(db),
	}
}

// --- account lifecycle ---

// CreateAccount persists a new local account with its service bindings.
func (e *Engine) CreateAccount(ctx context.Context, account *entities.Account) error {
	return e.accounts.Create(ctx, account)
}

// GetAccount returns one account with its services, or ErrNotFound.
func (e *Engine) GetAccount(id string) (*entities.Account, error) {
	account, err := e.accounts.Get(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns every configured account.
func (e *Engine) ListAccounts() ([]entities.Account, error) {
	return e.accounts.List()
}

// RemoveAccount tears down the account's session and erases every row it
// owns, including credentials. The cascade runs in one transaction.
func (e *Engine) RemoveAccount(ctx context.Context, accountID string) error {
	e.manager.Teardown(accountID)
	return e.accounts.Delete(ctx, accountID)
}

// --- maintenance passthroughs ---

// RemoveAllDuplicates runs the duplicate-collapse pass across every synced
// table and returns the number of rows removed.
func (e *Engine) RemoveAllDuplicates(ctx context.Context) (int64, error) {
	return e.db.RemoveAllDuplicates(ctx)
}

// VerifyHealth probes the store and attempts recovery, reporting per-table
// status.
func (e *Engine) VerifyHealth(ctx context.Context) database.HealthReport {
	return e.db.VerifyHealth(ctx)
}

// LastRefreshAt returns when the account last completed a refresh, or zero.
func (e *Engine) LastRefreshAt(accountID string) time.Time {
	raw, err := e.db.GetState("last_refresh:" + accountID)
	if err != nil || raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- cached reads and live queries ---

func (e *Engine) GetHomework(accountID string, from, to time.Time) ([]entities.Homework, error) {
	return e.homework.Between(accountID, from, to)
}

func (e *Engine) ObserveHomework(accountID string) *database.Subscription[entities.Homework] {
	return e.homework.Observe(accountID)
}

func (e *Engine) GetNews(accountID string) ([]entities.News, error) {
	return e.news.ForAccount(accountID)
}

func (e *Engine) ObserveNews(accountID string) *database.Subscription[entities.News] {
	return e.news.Observe(accountID)
}

// SetNewsRead flips the locally-owned read marker. Never synced back.
func (e *Engine) SetNewsRead(ctx context.Context, newsID string, read bool) error {
	return e.news.SetRead(ctx, newsID, read)
}

func (e *Engine) GetPeriods(accountID string) ([]entities.Period, error) {
	return e.grades.Periods(accountID)
}

func (e *Engine) GetGrades(accountID, periodID string) (entities.PeriodGrades, error) {
	return e.grades.ForPeriod(accountID, periodID)
}

func (e *Engine) ObserveGrades(accountID string) *database.Subscription[entities.Grade] {
	return e.grades.Observe(accountID)
}

func (e *Engine) GetAttendance(accountID, periodName string) (*entities.Attendance, error) {
	return e.attendance.ForPeriod(accountID, periodName)
}

func (e *Engine) ObserveAttendance(accountID string) *database.Subscription[entities.Attendance] {
	return e.attendance.Observe(accountID)
}

func (e *Engine) GetTimetable(accountID string, from, to time.Time) ([]entities.CourseDay, error) {
	return e.timetable.Week(accountID, from, to)
}

func (e *Engine) ObserveTimetable(accountID string) *database.Subscription[entities.CourseDay] {
	return e.timetable.Observe(accountID)
}

func (e *Engine) GetCanteenBalances(accountID string) ([]entities.CanteenBalance, error) {
	return e.canteen.Balances(accountID)
}

func (e *Engine) ObserveCanteenBalances(accountID string) *database.Subscription[entities.CanteenBalance] {
	return e.canteen.ObserveBalances(accountID)
}

func (e *Engine) GetCanteenHistory(accountID string) ([]entities.CanteenHistoryItem, error) {
	return e.canteen.History(accountID)
}

func (e *Engine) GetCanteenMenus(accountID string) ([]entities.CanteenMenu, error) {
	return e.canteen.Menus(accountID)
}

func (e *Engine) GetCanteenBookings(accountID string) ([]entities.CanteenBooking, error) {
	return e.canteen.Bookings(accountID)
}

func (e *Engine) GetCanteenQRCodes(accountID string) ([]entities.CanteenQRCode, error) {
	return e.canteen.QRCodes(accountID)
}

func (e *Engine) GetChats(accountID string) ([]entities.Chat, error) {
	return e.chats.ForAccount(accountID)
}

func (e *Engine) ObserveChats(accountID string) *database.Subscription[entities.Chat] {
	return e.chats.Observe(accountID)
}

func (e *Engine) GetKids(accountID string) ([]entities.Kid, error) {
	return e.kids.ForAccount(accountID)
}

// dispatch resolves the account's active plugin for a capability, or nil
// when offline-cached data is all we have.
func (e *Engine) dispatch(capability providers.Capability, accountID string) providers.Plugin {
	return e.manager.Dispatch(capability, accountID)
}

func (e *Engine) record(accountID string, plugin providers.Plugin, op string, count int, err error) {
	if e.journal == nil {
		return
	}
	provider := ""
	if plugin != nil {
		provider = plugin.Provider()
	}
	e.journal.RecordSync(accountID, provider, op, count, err)
}
