package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/providers"
)

// Per-operation failure policy. Ambient feeds (homework, news, timetable,
// canteen history) degrade to the cached rows with a warning; screens the
// user acts on directly (grades, attendance, balance, chat, booking)
// propagate the failure so the UI can say so.

// RefreshAccount re-authenticates the account and runs one sync pass over
// every capability its plugin declares. Individual sync failures do not stop
// the pass; they are joined into the returned error.
func (e *Engine) RefreshAccount(ctx context.Context, account entities.Account) error {
	plugin, err := e.manager.Refresh(ctx, account)
	if err != nil {
		e.record(account.ID, nil, "refresh", 0, err)
		return err
	}

	caps := plugin.Capabilities()
	var errs []error

	if caps.Has(providers.CapabilityHomework) {
		if _, err := e.SyncHomework(ctx, account.ID, 0); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityNews) {
		if _, err := e.SyncNews(ctx, account.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityGrades) {
		if err := e.SyncAllGrades(ctx, account.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityAttendance) {
		// Periods are known once grades have synced at least once.
		periods, err := e.grades.Periods(account.ID)
		if err != nil {
			errs = append(errs, err)
		}
		for _, period := range periods {
			if _, err := e.SyncAttendance(ctx, account.ID, period.Name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if caps.Has(providers.CapabilityTimetable) {
		if _, err := e.SyncTimetable(ctx, account.ID, 0); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityCanteenBalance) {
		if _, err := e.SyncCanteenBalances(ctx, account.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityCanteenHistory) {
		if _, err := e.SyncCanteenHistory(ctx, account.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityChatRead) {
		if _, err := e.SyncChats(ctx, account.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if caps.Has(providers.CapabilityKids) {
		if _, err := e.SyncKids(ctx, account.ID); err != nil {
			errs = append(errs, err)
		}
	}

	if err := e.db.SetState(ctx, "last_refresh:"+account.ID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		e.log.Warn().Err(err).Str("account", account.ID).Msg("failed to record refresh time")
	}
	e.record(account.ID, plugin, "refresh", 0, errors.Join(errs...))

	return errors.Join(errs...)
}

// RefreshAll refreshes every configured account sequentially. Used by the
// background scheduler; one failing account does not block the others.
func (e *Engine) RefreshAll(ctx context.Context) error {
	all, err := e.accounts.List()
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	var errs []error
	for _, account := range all {
		if err := e.RefreshAccount(ctx, account); err != nil {
			e.log.Warn().Err(err).Str("account", account.ID).Msg("account refresh failed")
			errs = append(errs, fmt.Errorf("account %s: %w", account.ID, err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}

// SyncHomework fetches assignments for the given week offset, reconciles
// them and returns the merged cached view. A fetch failure degrades to the
// cache.
func (e *Engine) SyncHomework(ctx context.Context, accountID string, week int) ([]entities.Homework, error) {
	plugin := e.dispatch(providers.CapabilityHomework, accountID)
	if plugin == nil {
		return e.homework.ForAccount(accountID)
	}

	fetcher, ok := plugin.(providers.HomeworkFetcher)
	if !ok {
		return e.homework.ForAccount(accountID)
	}

	items, err := fetcher.Homeworks(ctx, week)
	if err != nil {
		e.log.Warn().Err(err).Str("account", accountID).Msg("homework fetch failed, serving cache")
		e.record(accountID, plugin, "homework", 0, err)
		return e.homework.ForAccount(accountID)
	}

	if err := e.homework.AddToDatabase(ctx, items, accountID); err != nil {
		e.record(accountID, plugin, "homework", len(items), err)
		return nil, err
	}
	e.record(accountID, plugin, "homework", len(items), nil)
	return e.homework.ForAccount(accountID)
}

// SetHomeworkCompletion flips the done flag optimistically in the cache,
// then writes it through to the provider. On remote failure the flag is
// rolled back and the error propagated.
func (e *Engine) SetHomeworkCompletion(ctx context.Context, accountID, homeworkID string, done bool) error {
	item, err := e.homework.Get(homeworkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: homework %s", ErrNotFound, homeworkID)
	}
	if err != nil {
		return err
	}
	if item.Done == done {
		return nil
	}

	if err := e.homework.SetDone(ctx, homeworkID, done); err != nil {
		return err
	}

	// User-created items have no remote counterpart.
	if item.Custom {
		return nil
	}

	plugin := e.dispatch(providers.CapabilityHomework, accountID)
	completer, ok := plugin.(providers.HomeworkCompleter)
	if plugin == nil || !ok {
		return nil
	}

	if _, err := completer.SetHomeworkCompletion(ctx, *item, done); err != nil {
		if rbErr := e.homework.SetDone(ctx, homeworkID, !done); rbErr != nil {
			e.log.Error().Err(rbErr).Str("homework", homeworkID).Msg("failed to roll back completion flag")
		}
		e.record(accountID, plugin, "homework_completion", 0, err)
		return err
	}
	e.record(accountID, plugin, "homework_completion", 1, nil)
	return nil
}

// SyncNews fetches announcements, reconciles them and returns the merged
// cached view. A fetch failure degrades to the cache.
func (e *Engine) SyncNews(ctx context.Context, accountID string) ([]entities.News, error) {
	plugin := e.dispatch(providers.CapabilityNews, accountID)
	if plugin == nil {
		return e.news.ForAccount(accountID)
	}

	fetcher, ok := plugin.(providers.NewsFetcher)
	if !ok {
		return e.news.ForAccount(accountID)
	}

	items, err := fetcher.News(ctx)
	if err != nil {
		e.log.Warn().Err(err).Str("account", accountID).Msg("news fetch failed, serving cache")
		e.record(accountID, plugin, "news", 0, err)
		return e.news.ForAccount(accountID)
	}

	if err := e.news.AddToDatabase(ctx, items, accountID); err != nil {
		e.record(accountID, plugin, "news", len(items), err)
		return nil, err
	}
	e.record(accountID, plugin, "news", len(items), nil)
	return e.news.ForAccount(accountID)
}

// SyncGrades fetches and reconciles one period's grades. Failures propagate:
// a grade screen showing silently stale marks is worse than an error.
func (e *Engine) SyncGrades(ctx context.Context, accountID string, period entities.Period) (entities.PeriodGrades, error) {
	plugin := e.dispatch(providers.CapabilityGrades, accountID)
	if plugin == nil {
		return e.grades.ForPeriod(accountID, period.ID)
	}

	fetcher, ok := plugin.(providers.GradesFetcher)
	if !ok {
		return e.grades.ForPeriod(accountID, period.ID)
	}

	pg, err := fetcher.GradesForPeriod(ctx, period)
	if err != nil {
		e.record(accountID, plugin, "grades", 0, err)
		return entities.PeriodGrades{}, err
	}

	if err := e.grades.AddPeriodToDatabase(ctx, pg, accountID); err != nil {
		e.record(accountID, plugin, "grades", len(pg.Grades), err)
		return entities.PeriodGrades{}, err
	}
	e.record(accountID, plugin, "grades", len(pg.Grades), nil)
	return e.grades.ForPeriod(accountID, pg.Period.ID)
}

// SyncAllGrades enumerates the provider's periods and syncs each one.
func (e *Engine) SyncAllGrades(ctx context.Context, accountID string) error {
	plugin := e.dispatch(providers.CapabilityGrades, accountID)
	fetcher, ok := plugin.(providers.GradesFetcher)
	if plugin == nil || !ok {
		return nil
	}

	periods, err := fetcher.Periods(ctx)
	if err != nil {
		e.record(accountID, plugin, "grades", 0, err)
		return err
	}

	var errs []error
	for _, period := range periods {
		if _, err := e.SyncGrades(ctx, accountID, period); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SyncAttendance fetches and reconciles one period's attendance record.
// Failures propagate.
func (e *Engine) SyncAttendance(ctx context.Context, accountID, periodName string) (*entities.Attendance, error) {
	plugin := e.dispatch(providers.CapabilityAttendance, accountID)
	if plugin == nil {
		return e.attendance.ForPeriod(accountID, periodName)
	}

	fetcher, ok := plugin.(providers.AttendanceFetcher)
	if !ok {
		return e.attendance.ForPeriod(accountID, periodName)
	}

	att, err := fetcher.AttendanceForPeriod(ctx, periodName)
	if err != nil {
		e.record(accountID, plugin, "attendance", 0, err)
		return nil, err
	}

	if err := e.attendance.AddToDatabase(ctx, att, accountID); err != nil {
		e.record(accountID, plugin, "attendance", 1, err)
		return nil, err
	}
	e.record(accountID, plugin, "attendance", 1, nil)
	return e.attendance.ForPeriod(accountID, periodName)
}

// SyncTimetable fetches the week's lessons, reconciles them day by day and
// returns the merged cached week. A fetch failure degrades to the cache.
func (e *Engine) SyncTimetable(ctx context.Context, accountID string, week int) ([]entities.CourseDay, error) {
	from, to := weekBounds(week)

	plugin := e.dispatch(providers.CapabilityTimetable, accountID)
	if plugin == nil {
		return e.timetable.Week(accountID, from, to)
	}

	fetcher, ok := plugin.(providers.TimetableFetcher)
	if !ok {
		return e.timetable.Week(accountID, from, to)
	}

	days, err := fetcher.WeeklyTimetable(ctx, week)
	if err != nil {
		e.log.Warn().Err(err).Str("account", accountID).Msg("timetable fetch failed, serving cache")
		e.record(accountID, plugin, "timetable", 0, err)
		return e.timetable.Week(accountID, from, to)
	}

	if err := e.timetable.AddWeekToDatabase(ctx, days, accountID); err != nil {
		e.record(accountID, plugin, "timetable", len(days), err)
		return nil, err
	}
	e.record(accountID, plugin, "timetable", len(days), nil)
	return e.timetable.Week(accountID, from, to)
}

// weekBounds converts a week offset relative to the current ISO week into
// the [monday, next monday) day range.
func weekBounds(week int) (time.Time, time.Time) {
	now := time.Now().UTC()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(weekday-1)+week*7)
	return monday, monday.AddDate(0, 0, 7)
}

// SyncCanteenBalances fetches wallet balances. Failures propagate: a stale
// balance misleads a payment decision.
func (e *Engine) SyncCanteenBalances(ctx context.Context, accountID string) ([]entities.CanteenBalance, error) {
	plugin := e.dispatch(providers.CapabilityCanteenBalance, accountID)
	if plugin == nil {
		return e.canteen.Balances(accountID)
	}

	fetcher, ok := plugin.(providers.CanteenBalanceFetcher)
	if !ok {
		return e.canteen.Balances(accountID)
	}

	balances, err := fetcher.CanteenBalances(ctx)
	if err != nil {
		e.record(accountID, plugin, "canteen_balance", 0, err)
		return nil, err
	}

	for _, balance := range balances {
		if err := e.canteen.SaveBalance(ctx, balance, accountID); err != nil {
			e.record(accountID, plugin, "canteen_balance", len(balances), err)
			return nil, err
		}
	}
	e.record(accountID, plugin, "canteen_balance", len(balances), nil)
	return e.canteen.Balances(accountID)
}

// SyncCanteenHistory fetches the payment ledger. Append-only; a fetch
// failure degrades to the cache.
func (e *Engine) SyncCanteenHistory(ctx context.Context, accountID string) ([]entities.CanteenHistoryItem, error) {
	plugin := e.dispatch(providers.CapabilityCanteenHistory, accountID)
	if plugin == nil {
		return e.canteen.History(accountID)
	}

	fetcher, ok := plugin.(providers.CanteenHistoryFetcher)
	if !ok {
		return e.canteen.History(accountID)
	}

	items, err := fetcher.CanteenHistory(ctx)
	if err != nil {
		e.log.Warn().Err(err).Str("account", accountID).Msg("canteen history fetch failed, serving cache")
		e.record(accountID, plugin, "canteen_history", 0, err)
		return e.canteen.History(accountID)
	}

	if err := e.canteen.AddHistoryToDatabase(ctx, items, accountID); err != nil {
		e.record(accountID, plugin, "canteen_history", len(items), err)
		return nil, err
	}
	e.record(accountID, plugin, "canteen_history", len(items), nil)
	return e.canteen.History(accountID)
}

// SyncCanteenBookings fetches the week's booking slots. Failures propagate:
// booking is an interactive flow.
func (e *Engine) SyncCanteenBookings(ctx context.Context, accountID string, week int) ([]entities.CanteenBooking, error) {
	plugin := e.dispatch(providers.CapabilityCanteenBooking, accountID)
	if plugin == nil {
		return e.canteen.Bookings(accountID)
	}

	fetcher, ok := plugin.(providers.CanteenBookingFetcher)
	if !ok {
		return e.canteen.Bookings(accountID)
	}

	bookings, err := fetcher.CanteenBookings(ctx, week)
	if err != nil {
		e.record(accountID, plugin, "canteen_booking", 0, err)
		return nil, err
	}

	if err := e.canteen.AddBookingsToDatabase(ctx, bookings, accountID); err != nil {
		e.record(accountID, plugin, "canteen_booking", len(bookings), err)
		return nil, err
	}
	e.record(accountID, plugin, "canteen_booking", len(bookings), nil)
	return e.canteen.Bookings(accountID)
}

// SyncCanteenMenus fetches the week's menus; degrades to the cache.
func (e *Engine) SyncCanteenMenus(ctx context.Context, accountID string, week int) ([]entities.CanteenMenu, error) {
	plugin := e.dispatch(providers.CapabilityCanteenMenu, accountID)
	fetcher, ok := plugin.(providers.CanteenMenuFetcher)
	if plugin == nil || !ok {
		return e.canteen.Menus(accountID)
	}

	menus, err := fetcher.CanteenMenus(ctx, week)
	if err != nil {
		e.log.Warn().Err(err).Str("account", accountID).Msg("canteen menu fetch failed, serving cache")
		e.record(accountID, plugin, "canteen_menu", 0, err)
		return e.canteen.Menus(accountID)
	}

	if err := e.canteen.AddMenusToDatabase(ctx, menus, accountID); err != nil {
		e.record(accountID, plugin, "canteen_menu", len(menus), err)
		return nil, err
	}
	e.record(accountID, plugin, "canteen_menu", len(menus), nil)
	return e.canteen.Menus(accountID)
}

// SyncCanteenQRCode fetches the terminal QR code. Failures propagate; the
// code is shown at the till.
func (e *Engine) SyncCanteenQRCode(ctx context.Context, accountID string) (entities.CanteenQRCode, error) {
	plugin := e.dispatch(providers.CapabilityCanteenQRCode, accountID)
	fetcher, ok := plugin.(providers.CanteenQRCodeFetcher)
	if plugin == nil || !ok {
		codes, err := e.canteen.QRCodes(accountID)
		if err != nil {
			return entities.CanteenQRCode{}, err
		}
		if len(codes) == 0 {
			return entities.CanteenQRCode{}, fmt.Errorf("%w: canteen qr code for account %s", ErrNotFound, accountID)
		}
		return codes[0], nil
	}

	code, err := fetcher.CanteenQRCode(ctx)
	if err != nil {
		e.record(accountID, plugin, "canteen_qrcode", 0, err)
		return entities.CanteenQRCode{}, err
	}

	if err := e.canteen.SaveQRCode(ctx, code, accountID); err != nil {
		e.record(accountID, plugin, "canteen_qrcode", 1, err)
		return entities.CanteenQRCode{}, err
	}
	e.record(accountID, plugin, "canteen_qrcode", 1, nil)
	return code, nil
}

// SyncChats fetches discussion threads and reconciles them. Failures
// propagate.
func (e *Engine) SyncChats(ctx context.Context, accountID string) ([]entities.Chat, error) {
	plugin := e.dispatch(providers.CapabilityChatRead, accountID)
	if plugin == nil {
		return e.chats.ForAccount(accountID)
	}

	reader, ok := plugin.(providers.ChatReader)
	if !ok {
		return e.chats.ForAccount(accountID)
	}

	threads, err := reader.Chats(ctx)
	if err != nil {
		e.record(accountID, plugin, "chats", 0, err)
		return nil, err
	}

	if err := e.chats.AddToDatabase(ctx, threads, accountID); err != nil {
		e.record(accountID, plugin, "chats", len(threads), err)
		return nil, err
	}
	e.record(accountID, plugin, "chats", len(threads), nil)
	return e.chats.ForAccount(accountID)
}

// SendChatMessage writes a message through to the provider, then reflects it
// into the cached thread. Remote failure leaves the cache untouched.
func (e *Engine) SendChatMessage(ctx context.Context, accountID string, chat entities.Chat, content string) (entities.Message, error) {
	plugin := e.dispatch(providers.CapabilityChatWrite, accountID)
	writer, ok := plugin.(providers.ChatWriter)
	if plugin == nil || !ok {
		return entities.Message{}, fmt.Errorf("engine: no chat-capable plugin for account %s", accountID)
	}

	msg, err := writer.SendMessage(ctx, chat, content)
	if err != nil {
		e.record(accountID, plugin, "chat_send", 0, err)
		return entities.Message{}, err
	}

	chat.Messages = append(chat.Messages, msg)
	if msg.SentAt.After(chat.LastMessageAt) {
		chat.LastMessageAt = msg.SentAt
	}
	if err := e.chats.AddToDatabase(ctx, []entities.Chat{chat}, accountID); err != nil {
		return entities.Message{}, err
	}
	e.record(accountID, plugin, "chat_send", 1, nil)
	return msg, nil
}

// SyncKids fetches the children attached to a parent account.
func (e *Engine) SyncKids(ctx context.Context, accountID string) ([]entities.Kid, error) {
	plugin := e.dispatch(providers.CapabilityKids, accountID)
	fetcher, ok := plugin.(providers.KidsFetcher)
	if plugin == nil || !ok {
		return e.kids.ForAccount(accountID)
	}

	items, err := fetcher.Kids(ctx)
	if err != nil {
		e.record(accountID, plugin, "kids", 0, err)
		return nil, err
	}

	if err := e.kids.AddToDatabase(ctx, items, accountID); err != nil {
		e.record(accountID, plugin, "kids", len(items), err)
		return nil, err
	}
	e.record(accountID, plugin, "kids", len(items), nil)
	return e.kids.ForAccount(accountID)
}
