package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/cartable-app/cartable/internal/accounts"
	"github.com/cartable-app/cartable/internal/credstore"
	"github.com/cartable-app/cartable/internal/database"
	accountsdb "github.com/cartable-app/cartable/internal/database/accounts"
	"github.com/cartable-app/cartable/internal/engine"
	"github.com/cartable-app/cartable/internal/journal"
	"github.com/cartable-app/cartable/internal/providers"
	"github.com/cartable-app/cartable/internal/providers/ecoledirecte"
	"github.com/cartable-app/cartable/internal/providers/pronote"
	"github.com/cartable-app/cartable/internal/providers/turboself"
	"github.com/cartable-app/cartable/internal/scheduler"
	"github.com/cartable-app/cartable/internal/tasks"
)

// =============================================================================
// Provider Plugins
// =============================================================================

// Pronote: homework (read/write), news, grades, attendance, timetable.
var _ providers.Plugin = (*pronote.Plugin)(nil)
var _ providers.HomeworkFetcher = (*pronote.Plugin)(nil)
var _ providers.HomeworkCompleter = (*pronote.Plugin)(nil)
var _ providers.NewsFetcher = (*pronote.Plugin)(nil)
var _ providers.GradesFetcher = (*pronote.Plugin)(nil)
var _ providers.AttendanceFetcher = (*pronote.Plugin)(nil)
var _ providers.TimetableFetcher = (*pronote.Plugin)(nil)

// EcoleDirecte: homework, grades, chat, kids.
var _ providers.Plugin = (*ecoledirecte.Plugin)(nil)
var _ providers.HomeworkFetcher = (*ecoledirecte.Plugin)(nil)
var _ providers.GradesFetcher = (*ecoledirecte.Plugin)(nil)
var _ providers.ChatReader = (*ecoledirecte.Plugin)(nil)
var _ providers.ChatWriter = (*ecoledirecte.Plugin)(nil)
var _ providers.KidsFetcher = (*ecoledirecte.Plugin)(nil)

// Turboself: canteen.
var _ providers.Plugin = (*turboself.Plugin)(nil)
var _ providers.CanteenBalanceFetcher = (*turboself.Plugin)(nil)
var _ providers.CanteenHistoryFetcher = (*turboself.Plugin)(nil)
var _ providers.CanteenBookingFetcher = (*turboself.Plugin)(nil)
var _ providers.CanteenMenuFetcher = (*turboself.Plugin)(nil)
var _ providers.CanteenQRCodeFetcher = (*turboself.Plugin)(nil)

// =============================================================================
// Credential Storage
// =============================================================================

var _ accounts.CredentialStore = (*credstore.Store)(nil)
var _ credstore.Persistence = (*accountsdb.Repository)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ scheduler.Refresher = (*engine.Engine)(nil)
var _ tasks.DuplicateRemover = (*database.Database)(nil)
var _ tasks.JournalSweeper = (*journal.Journal)(nil)
