// Package accounts owns the registry of configured accounts and resolves
// "the plugin that has capability X for account Y". It is an explicit,
// injected object with a teardown, replacing any notion of a global session
// singleton.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/logger"
	"github.com/cartable-app/cartable/internal/providers"
)

var (
	// ErrOffline aborts a refresh before any plugin is touched.
	ErrOffline = errors.New("accounts: device is offline")

	// ErrNoPlugin means none of the account's stored provider identifiers
	// matches a registered plugin.
	ErrNoPlugin = errors.New("accounts: no registered plugin for account")
)

// ConnectivityChecker reports device connectivity; the platform layer
// provides the real implementation.
type ConnectivityChecker interface {
	Online(ctx context.Context) bool
}

// AlwaysOnline is the default checker for environments without a
// connectivity signal.
type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context) bool { return true }

// CredentialStore loads and rotates per-service credential blobs.
type CredentialStore interface {
	Load(serviceID string) (entities.Auth, error)
	Save(ctx context.Context, serviceID string, auth entities.Auth) error
}

// Manager drives refresh and capability dispatch. The active plugin per
// account is whichever refresh completed last; concurrent refreshes do not
// coalesce.
type Manager struct {
	registry *providers.Registry
	creds    CredentialStore
	online   ConnectivityChecker
	log      zerolog.Logger

	mu     sync.RWMutex
	active map[string]providers.Plugin
}

func NewManager(registry *providers.Registry, creds CredentialStore, online ConnectivityChecker) *Manager {
	if online == nil {
		online = AlwaysOnline{}
	}
	return &Manager{
		registry: registry,
		creds:    creds,
		online:   online,
		log:      logger.Get().With().Str("component", "accounts").Logger(),
		active:   make(map[string]providers.Plugin),
	}
}

// Refresh re-authenticates the account and caches the resulting plugin as
// the account's active one. Only the first service whose provider has a
// registered plugin is refreshed; remaining services are left untouched.
//
// Fails with ErrOffline before touching any plugin when the device has no
// connectivity, and with ErrNoPlugin when no stored provider identifier is
// registered. Auth rejections propagate without mutating the cached plugin.
func (m *Manager) Refresh(ctx context.Context, account entities.Account) (providers.Plugin, error) {
	if !m.online.Online(ctx) {
		return nil, ErrOffline
	}

	for _, svc := range account.Services {
		factory := m.registry.Lookup(svc.Provider)
		if factory == nil {
			m.log.Warn().Str("provider", svc.Provider).Msg("no plugin registered for service, skipping")
			continue
		}

		auth := svc.Auth
		if m.creds != nil {
			stored, err := m.creds.Load(svc.ID)
			if err != nil {
				return nil, fmt.Errorf("load credentials for %s: %w", svc.Provider, err)
			}
			if !isZeroAuth(stored) {
				auth = stored
			}
		}

		plugin, rotated, err := factory(ctx, auth)
		if err != nil {
			return nil, err
		}

		if m.creds != nil {
			if err := m.creds.Save(ctx, svc.ID, rotated); err != nil {
				m.log.Warn().Err(err).Str("provider", svc.Provider).Msg("failed to persist rotated credentials")
			}
		}

		m.mu.Lock()
		m.active[account.ID] = plugin
		m.mu.Unlock()

		m.log.Info().Str("account", account.ID).Str("provider", svc.Provider).Msg("account refreshed")
		return plugin, nil
	}

	return nil, fmt.Errorf("%w: account %s", ErrNoPlugin, account.ID)
}

func isZeroAuth(a entities.Auth) bool {
	return a.AccessToken == "" && a.RefreshToken == "" && a.Username == "" &&
		a.Password == "" && a.DeviceID == "" && len(a.AdditionalData) == 0
}

// Active returns the account's cached plugin from the last completed
// refresh, or nil.
func (m *Manager) Active(accountID string) providers.Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[accountID]
}

// Dispatch is a pure lookup: the account's active plugin if it declares the
// capability, else nil. No I/O.
func (m *Manager) Dispatch(capability providers.Capability, accountID string) providers.Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plugin := m.active[accountID]
	if plugin == nil || !plugin.Capabilities().Has(capability) {
		return nil
	}
	return plugin
}

// Teardown drops the account's cached session on logout.
func (m *Manager) Teardown(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, accountID)
}
