package google

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/oauth2"

	"github.com/kvollmer/workdesk/internal/auth"
)

// DefaultAccount is the account name used when a request does not name one.
const DefaultAccount = "default"

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
// This abstraction allows different token sources (file-based, OAuth store, etc.)
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// TokenSourceProvider is an optional TokenProvider extension for providers
// that can mint self-refreshing token sources. Clients built from a token
// source outlive any single access token.
type TokenSourceProvider interface {
	TokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error)
}

// ManagerOptions configure a Manager beyond the OAuth client config.
type ManagerOptions struct {
	// Settings tune token lifecycle behavior for every account provider.
	// Nil uses auth.DefaultSettings.
	Settings *auth.Settings

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics receives auth lifecycle events. Nil discards them.
	Metrics auth.MetricsRecorder

	// NewStorage builds the token storage for an account. Nil uses
	// auth.NewFileStorage. Tests swap in memory-backed storage.
	NewStorage func(account string) (auth.TokenStorage, error)
}

// Manager provides tokens for named local accounts (STDIO transport). It
// lazily builds one auth provider per account, each backed by that account's
// stored credentials, and caches it for the life of the process.
//
// The Manager never starts an interactive flow. Accounts that have not
// completed 'workdesk auth login' get an authorization-required error, which
// the tool layer turns into instructions for the user.
type Manager struct {
	cfg  auth.Config
	opts ManagerOptions

	mu       sync.Mutex
	accounts map[string]*managedAccount
}

type managedAccount struct {
	provider *auth.OAuth2Provider
	storage  auth.TokenStorage
}

// NewManager validates cfg and returns an empty Manager. Account providers
// are built on first use.
func NewManager(cfg auth.Config, opts ManagerOptions) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		opts:     opts,
		accounts: make(map[string]*managedAccount),
	}, nil
}

// ProviderForAccount returns the auth provider for the account, building it
// on first use. An empty account name maps to DefaultAccount.
func (m *Manager) ProviderForAccount(account string) (*auth.OAuth2Provider, error) {
	entry, err := m.accountEntry(account)
	if err != nil {
		return nil, err
	}
	return entry.provider, nil
}

func (m *Manager) accountEntry(account string) (*managedAccount, error) {
	if account == "" {
		account = DefaultAccount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.accounts[account]; ok {
		return entry, nil
	}

	storage, err := m.newStorage(account)
	if err != nil {
		return nil, fmt.Errorf("failed to open token storage for account %s: %w", account, err)
	}
	provider, err := auth.NewOAuth2Provider(m.cfg, auth.Options{
		Storage:  storage,
		Settings: m.opts.Settings,
		Logger:   m.opts.Logger,
		Metrics:  m.opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	entry := &managedAccount{provider: provider, storage: storage}
	m.accounts[account] = entry
	return entry, nil
}

func (m *Manager) newStorage(account string) (auth.TokenStorage, error) {
	if m.opts.NewStorage != nil {
		return m.opts.NewStorage(account)
	}
	return auth.NewFileStorage(account)
}

// GetTokenForAccount returns a valid access token for the account,
// refreshing a stale one through the account's refresh token.
func (m *Manager) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	provider, err := m.ProviderForAccount(account)
	if err != nil {
		return nil, err
	}
	return provider.Token(ctx)
}

// TokenSourceForAccount returns a token source that consults the account
// provider on every call. Cached clients built from it pick up refreshed
// tokens, and authorization loss surfaces as an error rather than a browser
// prompt.
func (m *Manager) TokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	provider, err := m.ProviderForAccount(account)
	if err != nil {
		return nil, err
	}
	// Fail now, not on the first API call, when the account is unauthorized.
	if _, err := provider.Token(ctx); err != nil {
		return nil, err
	}
	return &managerTokenSource{ctx: ctx, provider: provider}, nil
}

// HasTokenForAccount checks if stored credentials exist for the account.
func (m *Manager) HasTokenForAccount(account string) bool {
	entry, err := m.accountEntry(account)
	if err != nil {
		return false
	}
	has, err := entry.storage.HasTokens(context.Background())
	return err == nil && has
}

// Accounts returns the sorted names of the accounts this manager has built
// providers for.
func (m *Manager) Accounts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.accounts))
	for name := range m.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownAccounts returns every account this manager can serve: accounts with
// stored token files plus accounts the process already built providers for.
// Custom storage (tests) has no file listing, so only built providers show.
func (m *Manager) KnownAccounts() []string {
	names := m.Accounts()

	if m.opts.NewStorage == nil {
		if dir, err := auth.DefaultStorageDir(); err == nil {
			if stored, err := auth.ListFileAccounts(dir); err == nil {
				names = mergeNames(names, stored)
			}
		}
	}
	return names
}

// AuthInfoForAccount projects the credential state stored for the account.
// It loads stored tokens but never starts an interactive flow.
func (m *Manager) AuthInfoForAccount(ctx context.Context, account string) (auth.AuthInfo, error) {
	provider, err := m.ProviderForAccount(account)
	if err != nil {
		return auth.AuthInfo{}, err
	}
	if err := provider.Initialize(ctx); err != nil {
		return auth.AuthInfo{}, err
	}
	return provider.AuthInfo(ctx)
}

func mergeNames(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, name := range a {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	for _, name := range b {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	sort.Strings(merged)
	return merged
}

// managerTokenSource defers to the account provider on every call. The
// provider short-circuits while the held token is fresh and single-flights
// the refresh when it is not.
type managerTokenSource struct {
	ctx      context.Context
	provider *auth.OAuth2Provider
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	return s.provider.Token(s.ctx)
}

// ProviderTokenStore is the slice of the OAuth server's token store that
// account token lookup needs. The store's tokens are keyed by the user email
// the OAuth provider reported during authorization.
// github.com/giantswarm/mcp-oauth/storage.TokenStore satisfies it.
type ProviderTokenStore interface {
	GetToken(ctx context.Context, userEmail string) (*oauth2.Token, error)
}

// StoreTokenProvider serves tokens from the OAuth server's token store (HTTP
// transport). The store holds the Google token captured when the user
// authorized through the built-in OAuth server, so the account name here is
// the authenticated user's email.
type StoreTokenProvider struct {
	store ProviderTokenStore
}

// NewStoreTokenProvider wraps an OAuth server token store.
func NewStoreTokenProvider(store ProviderTokenStore) *StoreTokenProvider {
	return &StoreTokenProvider{store: store}
}

// GetTokenForAccount retrieves the stored Google token for the user.
func (p *StoreTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	token, err := p.store.GetToken(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get token from OAuth store: %w", err)
	}
	if token == nil {
		return nil, auth.NewError(auth.KindAuthorizationRequired,
			fmt.Sprintf("no token stored for %s: authenticate through the OAuth endpoint first", account))
	}
	return token, nil
}

// HasTokenForAccount checks if the store holds a token for the user.
func (p *StoreTokenProvider) HasTokenForAccount(account string) bool {
	token, err := p.store.GetToken(context.Background(), account)
	return err == nil && token != nil
}

// TokenSourceForAccount returns a source that re-reads the store whenever
// the last token it handed out has expired, picking up refreshes the OAuth
// server performed in the meantime.
func (p *StoreTokenProvider) TokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	token, err := p.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return oauth2.ReuseTokenSource(token, &storeTokenSource{store: p.store, account: account}), nil
}

// storeTokenSource re-fetches the user's token from the store. oauth2.
// TokenSource carries no context, so lookups run under context.Background.
type storeTokenSource struct {
	store   ProviderTokenStore
	account string
}

func (s *storeTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.store.GetToken(context.Background(), s.account)
	if err != nil {
		return nil, fmt.Errorf("failed to get token from OAuth store: %w", err)
	}
	if token == nil {
		return nil, auth.NewError(auth.KindAuthorizationRequired,
			fmt.Sprintf("no token stored for %s: authenticate through the OAuth endpoint first", s.account))
	}
	return token, nil
}
