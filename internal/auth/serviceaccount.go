package auth

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// ServiceAccountProvider authenticates with a Google service account key
// file. It mints tokens non-interactively, so there is no flow, no refresh
// token, and nothing to persist.
type ServiceAccountProvider struct {
	keyFile string
	scopes  []string
	subject string
	logger  *slog.Logger

	mu          sync.RWMutex
	conf        *jwt.Config
	initialized bool
}

// ServiceAccountOptions configure a ServiceAccountProvider.
type ServiceAccountOptions struct {
	// Subject is a workspace user to impersonate via domain-wide
	// delegation. Empty authenticates as the service account itself.
	Subject string

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewServiceAccountProvider validates the arguments and returns an
// uninitialized provider; the key file is read at Initialize.
func NewServiceAccountProvider(keyFile string, scopes []string, opts ServiceAccountOptions) (*ServiceAccountProvider, error) {
	if keyFile == "" {
		return nil, NewError(KindConfigurationInvalid, "service account key file is required")
	}
	if len(scopes) == 0 {
		return nil, NewError(KindConfigurationInvalid, "at least one scope is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceAccountProvider{
		keyFile: keyFile,
		scopes:  scopes,
		subject: opts.Subject,
		logger:  logger,
	}, nil
}

// AuthType identifies this provider as the service-account strategy.
func (p *ServiceAccountProvider) AuthType() string {
	return AuthTypeServiceAccount
}

// Initialize reads and parses the key file. Idempotent.
func (p *ServiceAccountProvider) Initialize(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}

	data, err := os.ReadFile(p.keyFile)
	if err != nil {
		return WrapError(KindConfigurationInvalid, "failed to read service account key file", err)
	}
	conf, err := google.JWTConfigFromJSON(data, p.scopes...)
	if err != nil {
		return WrapError(KindConfigurationInvalid, "failed to parse service account key file", err)
	}
	if p.subject != "" {
		conf.Subject = p.subject
	}

	p.conf = conf
	p.initialized = true
	p.logger.Debug("service account provider initialized",
		"email", conf.Email,
		"impersonating", p.subject != "")
	return nil
}

// ValidateAuth reports whether the key material is loaded. JWT sources mint
// access tokens on demand, so a loaded key is a valid credential.
func (p *ServiceAccountProvider) ValidateAuth(_ context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

// RefreshToken is a no-op for service accounts; each token is minted fresh.
func (p *ServiceAccountProvider) RefreshToken(_ context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return NewError(KindNotInitialized, "provider is not initialized: call Initialize first")
	}
	return nil
}

// TokenSource returns a self-minting source for the service account.
func (p *ServiceAccountProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conf.TokenSource(ctx), nil
}

// AuthClient returns an HTTP client authenticated as the service account.
func (p *ServiceAccountProvider) AuthClient(ctx context.Context) (*http.Client, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conf.Client(ctx), nil
}

// AuthInfo projects the provider state.
func (p *ServiceAccountProvider) AuthInfo(_ context.Context) (AuthInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return AuthInfo{}, NewError(KindNotInitialized, "provider is not initialized: call Initialize first")
	}
	return AuthInfo{
		AuthType:      AuthTypeServiceAccount,
		Authenticated: true,
		HasToken:      true,
		Scopes:        p.scopes,
	}, nil
}

// HealthCheck reports whether the key material is loaded.
func (p *ServiceAccountProvider) HealthCheck(_ context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}
