package auth

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Auth strategy identifiers.
const (
	AuthTypeOAuth2         = "oauth2"
	AuthTypeServiceAccount = "service-account"
)

// rotationPersistTimeout bounds the background persist that follows a token
// rotation.
const rotationPersistTimeout = 10 * time.Second

// Provider is the credential lifecycle surface consumed by the Google
// service wrappers. OAuth2Provider and ServiceAccountProvider implement it.
type Provider interface {
	AuthType() string
	Initialize(ctx context.Context) error
	ValidateAuth(ctx context.Context) bool
	RefreshToken(ctx context.Context) error
	AuthClient(ctx context.Context) (*http.Client, error)
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
	AuthInfo(ctx context.Context) (AuthInfo, error)
	HealthCheck(ctx context.Context) bool
}

// AuthInfo is a point-in-time projection of the credential state. It never
// triggers a refresh or an interactive flow.
type AuthInfo struct {
	AuthType        string    `json:"authType"`
	Authenticated   bool      `json:"authenticated"`
	HasToken        bool      `json:"hasToken"`
	HasRefreshToken bool      `json:"hasRefreshToken"`
	Expiry          time.Time `json:"expiry"`
	Scopes          []string  `json:"scopes,omitempty"`
	PublicClient    bool      `json:"publicClient"`
}

// MetricsRecorder receives auth lifecycle events. Result values are
// "success", "failure", or "expired".
type MetricsRecorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
	RecordOAuthTokenRefresh(ctx context.Context, result string)
}

type noopMetrics struct{}

func (noopMetrics) RecordOAuthAuth(context.Context, string)         {}
func (noopMetrics) RecordOAuthTokenRefresh(context.Context, string) {}

// oauthClient is the slice of *oauth2.Config the provider depends on,
// injectable so tests can observe exchanges without a network.
type oauthClient interface {
	oauthExchanger
	TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource
}

// Options configure an OAuth2Provider beyond the client Config.
type Options struct {
	// Storage persists credentials between runs. Required.
	Storage TokenStorage

	// Settings tune refresh and flow behavior. Nil uses DefaultSettings.
	Settings *Settings

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics receives auth events. Nil discards them.
	Metrics MetricsRecorder

	// OpenBrowser overrides how the consent URL is launched. Nil uses the
	// platform browser. Ignored in test mode, where no browser ever opens.
	OpenBrowser BrowserOpener
}

// OAuth2Provider implements the interactive OAuth2 authorization-code
// strategy with PKCE. All public operations are safe for concurrent use;
// initialization, refresh, and the interactive flow are each single-flighted
// so concurrent callers share one execution.
type OAuth2Provider struct {
	cfg      Config
	settings Settings
	storage  TokenStorage
	logger   *slog.Logger
	metrics  MetricsRecorder
	opener   BrowserOpener

	flights singleflight.Group

	// newClient builds the oauth2 client surface. Tests swap it to observe
	// exchanges without network calls.
	newClient func(Config) oauthClient

	mu          sync.RWMutex
	oauth       oauthClient
	token       *oauth2.Token
	initialized bool
}

// NewOAuth2Provider validates cfg and returns an uninitialized provider.
// Configuration problems surface here, synchronously, never at first use.
func NewOAuth2Provider(cfg Config, opts Options) (*OAuth2Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Storage == nil {
		return nil, NewError(KindConfigurationInvalid, "token storage is required")
	}

	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
		settings.normalize()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics MetricsRecorder = noopMetrics{}
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}

	return &OAuth2Provider{
		cfg:      cfg,
		settings: settings,
		storage:  opts.Storage,
		logger:   logger,
		metrics:  metrics,
		opener:   opts.OpenBrowser,
		newClient: func(c Config) oauthClient {
			return c.oauthConfig()
		},
	}, nil
}

// AuthType identifies this provider as the OAuth2 strategy.
func (p *OAuth2Provider) AuthType() string {
	return AuthTypeOAuth2
}

// Initialize loads stored credentials and prepares the provider. Idempotent:
// once initialized it returns immediately, and concurrent callers share a
// single execution.
func (p *OAuth2Provider) Initialize(ctx context.Context) error {
	p.mu.RLock()
	initialized := p.initialized
	p.mu.RUnlock()
	if initialized {
		return nil
	}

	_, err := doShared(&p.flights, flightInitialize, func() (struct{}, error) {
		return struct{}{}, p.doInitialize(ctx)
	})
	return err
}

func (p *OAuth2Provider) doInitialize(ctx context.Context) error {
	p.mu.RLock()
	initialized := p.initialized
	p.mu.RUnlock()
	if initialized {
		return nil
	}

	oc := p.newClient(p.cfg)

	creds, err := p.storage.GetTokens(ctx)
	if err != nil {
		// State is untouched on failure so a later call can retry cleanly.
		return storageError("failed to load stored credentials", err)
	}

	var tok *oauth2.Token
	if creds != nil && creds.Token != nil {
		if creds.ClientConfig.ClientID == p.cfg.ClientID {
			tok = creds.Token
		} else {
			p.logger.Warn("ignoring stored tokens minted by a different client",
				"storedClientId", creds.ClientConfig.ClientID)
		}
	}

	p.mu.Lock()
	p.oauth = oc
	p.token = tok
	p.initialized = true
	p.mu.Unlock()

	p.logger.Debug("auth provider initialized",
		"hasToken", tok != nil,
		"publicClient", p.cfg.IsPublicClient())
	return nil
}

// ValidateAuth reports whether a usable access token is held. Ordinary
// invalidity is a normal false, never an error. A token inside the proactive
// refresh window, or already expired, triggers one shared refresh; the
// result of that refresh decides the answer.
func (p *OAuth2Provider) ValidateAuth(ctx context.Context) bool {
	p.mu.RLock()
	initialized := p.initialized
	tok := p.token
	p.mu.RUnlock()

	if !initialized {
		return false
	}
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Valid() && !p.inRefreshWindow(tok) {
		return true
	}

	if err := p.RefreshToken(ctx); err != nil {
		p.logger.Debug("token refresh failed during validation", "error", err)
		return false
	}
	return true
}

// inRefreshWindow reports whether the token expires within the jittered
// proactive-refresh window. Tokens without an expiry never do.
func (p *OAuth2Provider) inRefreshWindow(tok *oauth2.Token) bool {
	if !p.settings.ProactiveRefresh || tok.Expiry.IsZero() {
		return false
	}
	return !tok.Expiry.After(time.Now().Add(p.refreshWindow()))
}

// refreshWindow returns the threshold widened by a uniformly random jitter
// in [0, RefreshJitter) so many instances holding the same token do not
// refresh in lockstep.
func (p *OAuth2Provider) refreshWindow() time.Duration {
	window := p.settings.RefreshThreshold
	if p.settings.RefreshJitter > 0 {
		window += time.Duration(rand.Int64N(int64(p.settings.RefreshJitter)))
	}
	return window
}

// RefreshToken forces a refresh against the token endpoint. Concurrent
// reactive, proactive, and explicit refreshes collapse into one round trip.
func (p *OAuth2Provider) RefreshToken(ctx context.Context) error {
	p.mu.RLock()
	initialized := p.initialized
	p.mu.RUnlock()
	if !initialized {
		return NewError(KindNotInitialized, "provider is not initialized: call Initialize first")
	}

	_, err := doShared(&p.flights, flightRefresh, func() (struct{}, error) {
		return struct{}{}, p.doRefresh(ctx)
	})
	return err
}

func (p *OAuth2Provider) doRefresh(ctx context.Context) error {
	p.mu.RLock()
	tok := p.token
	oc := p.oauth
	p.mu.RUnlock()

	if tok == nil || tok.RefreshToken == "" {
		p.metrics.RecordOAuthTokenRefresh(ctx, "expired")
		return NewError(KindRefreshTokenExpired, "no refresh token available: re-run the authorization flow")
	}

	// Seeding the source with only the refresh token forces a round trip
	// instead of handing back the cached access token.
	fresh, err := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken}).Token()
	if err != nil {
		converted := Convert(err)
		if IsKind(converted, KindRefreshTokenExpired) {
			p.metrics.RecordOAuthTokenRefresh(ctx, "expired")
		} else {
			p.metrics.RecordOAuthTokenRefresh(ctx, "failure")
		}
		return converted
	}

	// Google omits the refresh token from refresh responses; keep the one
	// already held.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}

	p.mu.Lock()
	p.token = fresh
	p.mu.Unlock()

	if err := p.persist(ctx, fresh); err != nil {
		p.metrics.RecordOAuthTokenRefresh(ctx, "failure")
		return err
	}

	p.metrics.RecordOAuthTokenRefresh(ctx, "success")
	p.logger.Debug("access token refreshed", "expiry", fresh.Expiry)
	return nil
}

// Authorize runs the interactive authorization flow and persists the
// resulting tokens. Concurrent calls share one flow and its outcome. It
// always runs a flow, so a login command can force fresh consent.
func (p *OAuth2Provider) Authorize(ctx context.Context) error {
	if err := p.Initialize(ctx); err != nil {
		return err
	}

	_, err := doShared(&p.flights, flightAuthFlow, func() (struct{}, error) {
		return struct{}{}, p.doAuthorize(ctx)
	})
	return err
}

// ensureAuthorized runs the interactive flow unless a concurrent flow has
// already produced a valid credential by the time this caller gets the key.
func (p *OAuth2Provider) ensureAuthorized(ctx context.Context) error {
	_, err := doShared(&p.flights, flightAuthFlow, func() (struct{}, error) {
		if p.ValidateAuth(ctx) {
			return struct{}{}, nil
		}
		return struct{}{}, p.doAuthorize(ctx)
	})
	return err
}

func (p *OAuth2Provider) doAuthorize(ctx context.Context) error {
	p.mu.RLock()
	oc := p.oauth
	p.mu.RUnlock()

	flow := &authFlow{
		oauth:       oc,
		redirectURL: p.redirectURL(),
		timeout:     p.settings.FlowTimeout,
		opener:      p.flowOpener(),
		logger:      p.logger,
	}

	tok, err := flow.Run(ctx)
	if err != nil {
		p.metrics.RecordOAuthAuth(ctx, "failure")
		return err
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()

	if err := p.persist(ctx, tok); err != nil {
		p.metrics.RecordOAuthAuth(ctx, "failure")
		return err
	}

	p.metrics.RecordOAuthAuth(ctx, "success")
	p.logger.Info("authorization complete",
		"expiry", tok.Expiry,
		"hasRefreshToken", tok.RefreshToken != "")
	return nil
}

func (p *OAuth2Provider) redirectURL() string {
	if p.cfg.RedirectURL != "" {
		return p.cfg.RedirectURL
	}
	return DefaultRedirectURL
}

// flowOpener picks the browser launcher for a flow. Test mode returns nil,
// which makes the flow log the URL instead of opening anything.
func (p *OAuth2Provider) flowOpener() BrowserOpener {
	if p.settings.TestMode {
		return nil
	}
	if p.opener != nil {
		return p.opener
	}
	return OpenSystemBrowser
}

// TokenSource returns a self-refreshing source, running the interactive
// flow first if no valid credential exists. Tokens the source rotates on
// its own are re-persisted in the background.
func (p *OAuth2Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	if !p.ValidateAuth(ctx) {
		if err := p.ensureAuthorized(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.RLock()
	tok := p.token
	oc := p.oauth
	p.mu.RUnlock()

	return &notifyingTokenSource{
		provider: p,
		src:      oauth2.ReuseTokenSource(tok, oc.TokenSource(ctx, tok)),
		last:     tok.AccessToken,
	}, nil
}

// AuthClient returns an HTTP client that injects and refreshes the access
// token, running the interactive flow first if needed.
func (p *OAuth2Provider) AuthClient(ctx context.Context) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// Token returns the current access token without ever starting an
// interactive flow. Server deployments use this to fail fast when a
// pre-authorized account has no usable credentials.
func (p *OAuth2Provider) Token(ctx context.Context) (*oauth2.Token, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	if !p.ValidateAuth(ctx) {
		return nil, NewError(KindAuthorizationRequired, "authorization required: run 'workdesk auth login'")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	tok := *p.token
	return &tok, nil
}

// AuthInfo projects the current credential state. It fails when called
// before Initialize.
func (p *OAuth2Provider) AuthInfo(_ context.Context) (AuthInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized {
		return AuthInfo{}, NewError(KindNotInitialized, "provider is not initialized: call Initialize first")
	}

	info := AuthInfo{
		AuthType:     AuthTypeOAuth2,
		Scopes:       p.cfg.Scopes,
		PublicClient: p.cfg.IsPublicClient(),
	}
	if p.token != nil {
		info.HasToken = p.token.AccessToken != ""
		info.HasRefreshToken = p.token.RefreshToken != ""
		info.Authenticated = p.token.Valid()
		info.Expiry = p.token.Expiry
	}
	return info, nil
}

// HealthCheck reports whether the provider is initialized and its storage
// is reachable. Storage errors are swallowed into false, never surfaced.
func (p *OAuth2Provider) HealthCheck(ctx context.Context) bool {
	p.mu.RLock()
	initialized := p.initialized
	p.mu.RUnlock()
	if !initialized {
		return false
	}

	if _, err := p.storage.HasTokens(ctx); err != nil {
		p.logger.Debug("health check storage probe failed", "error", err)
		return false
	}
	return true
}

func (p *OAuth2Provider) persist(ctx context.Context, tok *oauth2.Token) error {
	creds := &StoredCredentials{
		Token: tok,
		ClientConfig: ClientConfig{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
		},
		StoredAt: time.Now(),
	}
	if err := p.storage.SaveTokens(ctx, creds); err != nil {
		return storageError("failed to persist tokens", err)
	}
	return nil
}

// adoptRotatedToken records a token the underlying source refreshed on its
// own and re-persists it off the request path. Persistence failures are
// logged, never surfaced to the caller that triggered the rotation.
func (p *OAuth2Provider) adoptRotatedToken(tok *oauth2.Token) {
	adopted := *tok

	p.mu.Lock()
	if adopted.RefreshToken == "" && p.token != nil {
		adopted.RefreshToken = p.token.RefreshToken
	}
	alreadyHeld := p.token != nil && p.token.AccessToken == adopted.AccessToken
	if !alreadyHeld {
		p.token = &adopted
	}
	p.mu.Unlock()

	if alreadyHeld {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rotationPersistTimeout)
		defer cancel()
		if err := p.persist(ctx, &adopted); err != nil {
			p.logger.Warn("failed to persist rotated token", "error", err)
			return
		}
		p.logger.Debug("persisted rotated token", "expiry", adopted.Expiry)
	}()
}

// notifyingTokenSource watches for rotations the wrapped source performs
// lazily and hands them to the provider for adoption.
type notifyingTokenSource struct {
	provider *OAuth2Provider
	src      oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (ts *notifyingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.src.Token()
	if err != nil {
		return nil, Convert(err)
	}

	ts.mu.Lock()
	rotated := tok.AccessToken != ts.last
	if rotated {
		ts.last = tok.AccessToken
	}
	ts.mu.Unlock()

	if rotated {
		ts.provider.adoptRotatedToken(tok)
	}
	return tok, nil
}
