// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Provider Interfaces
//
//   - Plugin: a session-bearing provider connection (internal/providers/provider.go)
//   - Factory: re-authenticates and produces a fresh Plugin (internal/providers/provider.go)
//   - HomeworkFetcher, NewsFetcher, GradesFetcher, AttendanceFetcher,
//     TimetableFetcher, Canteen*Fetcher, ChatReader, ChatWriter, KidsFetcher:
//     optional operation families matching the plugin's capability set
//
// ## Account and Credential Interfaces
//
//   - ConnectivityChecker: device reachability (internal/accounts/manager.go)
//   - CredentialStore: load/rotate per-service credential blobs (internal/accounts/manager.go)
//   - Persistence: ciphertext storage for the credential store (internal/credstore/credstore.go)
//
// ## Background Work Interfaces
//
//   - Refresher: what the cron scheduler drives (internal/scheduler/refresh.go)
//   - DuplicateRemover, JournalSweeper: maintenance task targets (internal/tasks)
//
// # Adding a New Provider
//
// To add support for a new school-information service:
//
//  1. Create a package under internal/providers/ owning the raw wire payloads
//     and a Client interface for the HTTP layer:
//
//     type RawAssignment struct {
//     Subject string `json:"matiere"`
//     DueDate string `json:"pourLe"`
//     }
//
//     type Client interface {
//     Authenticate(ctx context.Context, auth entities.Auth) (entities.Auth, error)
//     FetchAssignments(ctx context.Context, week int) ([]RawAssignment, error)
//     }
//
//  2. Implement Plugin with a static capability set and the matching optional
//     interfaces, mapping raw payloads into internal/entities:
//
//     var capabilities = providers.NewCapabilitySet(
//     providers.CapabilityRefresh,
//     providers.CapabilityHomework,
//     )
//
//     var _ providers.HomeworkFetcher = (*Plugin)(nil)
//
//  3. Expose a NewFactory(client) returning a providers.Factory that
//     authenticates and hands back the rotated credential blob.
//
//  4. Register the factory on the providers.Registry at wiring time
//     (internal/app or the embedding application).
//
// # Adding a New Database Domain
//
// To add a new synced entity:
//
//  1. Define the entity in internal/entities with a content-addressed ID,
//     a created_by_account column and a TableName method.
//
//  2. Create a sub-package internal/database/<entity>/ with a Key function
//     built on internal/ident and a Repository:
//
//     type Repository struct { db *database.Database }
//
//     func NewRepository(db *database.Database) *Repository
//
//  3. Route every mutation through db.Write so it runs on the serialized
//     queue, and expose reads plus an Observe method for live queries.
//
//  4. Register the table in the store's migration list and, if it is synced,
//     in the duplicate-removal and clear-account passes
//     (internal/database/maintenance.go).
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
