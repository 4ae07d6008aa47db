package server

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	oauth "github.com/giantswarm/mcp-oauth"
	googleprovider "github.com/giantswarm/mcp-oauth/providers/google"
	"github.com/giantswarm/mcp-oauth/security"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/giantswarm/mcp-oauth/storage/valkey"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/instrumentation"
)

const (
	// DefaultRefreshTokenTTL is the default TTL for refresh tokens (90 days).
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour

	// DefaultIPRateLimit is the default rate limit for requests per IP (requests/second).
	DefaultIPRateLimit = 10
	// DefaultIPBurst is the default burst size for IP rate limiting.
	DefaultIPBurst = 20

	// DefaultUserRateLimit is the default rate limit for authenticated users (requests/second).
	DefaultUserRateLimit = 100
	// DefaultUserBurst is the default burst size for authenticated user rate limiting.
	DefaultUserBurst = 200

	// DefaultMaxClientsPerIP is the default maximum number of dynamically
	// registered clients per IP address.
	DefaultMaxClientsPerIP = 10

	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	// Streamable HTTP responses can stay open for long tool calls.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// Storage backend types for OAuth state.
const (
	OAuthStorageMemory = "memory"
	OAuthStorageValkey = "valkey"
)

// OAuthConfig holds configuration for the OAuth 2.1 HTTP transport.
type OAuthConfig struct {
	// BaseURL is the externally visible URL of this server, used as the
	// OAuth issuer and to derive the provider callback URL.
	BaseURL string

	// GoogleClientID and GoogleClientSecret identify this server to Google.
	GoogleClientID     string
	GoogleClientSecret string

	// AllowPublicClientRegistration permits dynamic client registration
	// without a registration access token.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken guards the registration endpoint when set.
	RegistrationAccessToken string

	// AllowLocalhostRedirectURIs permits clients to register loopback
	// redirect URIs. MCP clients running on the user's machine need this.
	AllowLocalhostRedirectURIs bool

	// MaxClientsPerIP caps dynamic registrations per IP. Zero uses the default.
	MaxClientsPerIP int

	// EncryptionKey is a base64-encoded AES-256 key enabling token
	// encryption at rest. Empty disables encryption.
	EncryptionKey string

	// StorageType selects the OAuth state backend: memory (default) or valkey.
	StorageType string

	// Valkey connection settings, used when StorageType is valkey.
	ValkeyURL       string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
	ValkeyTLS       bool

	// DisableStreaming serves plain JSON responses instead of SSE streams.
	DisableStreaming bool
}

// OAuthHTTPServer wraps an MCP server with OAuth 2.1 authentication.
// It acts as both authorization server (proxying Google) and resource
// server: MCP endpoints are protected by token validation middleware, and
// each validated request carries the user's identity so tool handlers
// resolve Google tokens per user.
type OAuthHTTPServer struct {
	config        OAuthConfig
	mcpServer     *mcpserver.MCPServer
	oauthServer   *oauth.Server
	oauthHandler  *oauth.Handler
	tokenStore    storage.TokenStore
	httpServer    *http.Server
	healthChecker *HealthChecker
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

// NewOAuthHTTPServer creates a new OAuth-enabled HTTP server for MCP.
func NewOAuthHTTPServer(mcpServer *mcpserver.MCPServer, cfg OAuthConfig, logger *slog.Logger) (*OAuthHTTPServer, error) {
	// Validate HTTPS requirement for OAuth 2.1 compliance
	if err := validateHTTPSRequirement(cfg.BaseURL); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	oauthSrv, tokenStore, err := createOAuthServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	oauthHandler := oauth.NewHandler(oauthSrv, logger)

	return &OAuthHTTPServer{
		config:       cfg,
		mcpServer:    mcpServer,
		oauthServer:  oauthSrv,
		oauthHandler: oauthHandler,
		tokenStore:   tokenStore,
		logger:       logger,
	}, nil
}

// SetHealthChecker registers the health checker whose endpoints are mounted
// on the server mux. Must be called before Start.
func (s *OAuthHTTPServer) SetHealthChecker(h *HealthChecker) {
	s.healthChecker = h
}

// SetMetrics enables HTTP and OAuth request metrics. Must be called before Start.
func (s *OAuthHTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// TokenStore returns the OAuth token store holding the users' Google tokens.
func (s *OAuthHTTPServer) TokenStore() storage.TokenStore {
	return s.tokenStore
}

// TokenProvider returns a token provider resolving accounts (user emails)
// against the OAuth token store.
func (s *OAuthHTTPServer) TokenProvider() google.TokenProvider {
	return google.NewStoreTokenProvider(s.tokenStore)
}

// GetOAuthServer returns the underlying OAuth server for testing or direct access.
func (s *OAuthHTTPServer) GetOAuthServer() *oauth.Server {
	return s.oauthServer
}

// GetOAuthHandler returns the OAuth handler for testing or direct access.
func (s *OAuthHTTPServer) GetOAuthHandler() *oauth.Handler {
	return s.oauthHandler
}

// Start starts the OAuth-enabled HTTP server. Blocks until the server stops.
func (s *OAuthHTTPServer) Start(addr string) error {
	mux := http.NewServeMux()

	if s.healthChecker != nil {
		s.healthChecker.RegisterHealthEndpoints(mux)
	}

	s.setupOAuthRoutes(mux)
	s.setupMCPRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting OAuth HTTP server", "addr", addr, "issuer", s.config.BaseURL)
	return s.httpServer.ListenAndServe()
}

// setupOAuthRoutes registers the OAuth 2.1 endpoints on the mux.
func (s *OAuthHTTPServer) setupOAuthRoutes(mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc) http.Handler {
		return s.oauthInstrumentationWrapper(h)
	}

	// Protected Resource Metadata endpoint (RFC 9728)
	mux.Handle("/.well-known/oauth-protected-resource", wrap(s.oauthHandler.ServeProtectedResourceMetadata))

	// Authorization Server Metadata endpoint (RFC 8414)
	mux.Handle("/.well-known/oauth-authorization-server", wrap(s.oauthHandler.ServeAuthorizationServerMetadata))

	// Dynamic Client Registration endpoint (RFC 7591)
	mux.Handle("/oauth/register", wrap(s.oauthHandler.ServeClientRegistration))

	// OAuth Authorization endpoint
	mux.Handle("/oauth/authorize", wrap(s.oauthHandler.ServeAuthorization))

	// OAuth Token endpoint
	mux.Handle("/oauth/token", wrap(s.oauthHandler.ServeToken))

	// OAuth Callback endpoint (from Google)
	mux.Handle("/oauth/callback", wrap(s.oauthHandler.ServeCallback))

	// Token Revocation endpoint (RFC 7009)
	mux.Handle("/oauth/revoke", wrap(s.oauthHandler.ServeTokenRevocation))

	// Token Introspection endpoint (RFC 7662)
	mux.Handle("/oauth/introspect", wrap(s.oauthHandler.ServeTokenIntrospection))
}

// setupMCPRoutes registers the MCP endpoint, protected by token validation
// and wrapped so each request carries the authenticated user's account.
func (s *OAuthHTTPServer) setupMCPRoutes(mux *http.ServeMux) {
	var streamable http.Handler
	if s.config.DisableStreaming {
		streamable = mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithDisableStreaming(true),
		)
	} else {
		streamable = mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
	}

	handler := s.accountInjectorMiddleware(streamable)
	handler = s.oauthHandler.ValidateToken(handler)
	mux.Handle("/mcp", s.instrumentationMiddleware(handler))
}

// accountInjectorMiddleware copies the validated OAuth user's email into the
// request context as the account name. Tool handlers resolve Google tokens
// for that account through the store-backed token provider.
func (s *OAuthHTTPServer) accountInjectorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Set by the ValidateToken middleware
		userInfo, ok := oauth.UserInfoFromContext(ctx)
		if !ok || userInfo == nil || userInfo.Email == "" {
			s.logger.Debug("no user info in context, request proceeds without account")
			next.ServeHTTP(w, r)
			return
		}

		ctx = google.ContextWithAccount(ctx, userInfo.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrumentationMiddleware records request counts and latency for MCP traffic.
func (s *OAuthHTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// oauthInstrumentationWrapper records request metrics for OAuth endpoints,
// plus authentication outcomes for the token endpoint.
func (s *OAuthHTTPServer) oauthInstrumentationWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))

		if r.URL.Path == "/oauth/token" {
			result := "success"
			if rw.statusCode >= 400 {
				result = "failure"
			}
			s.metrics.RecordOAuthAuth(r.Context(), result)
		}
	})
}

// Shutdown gracefully shuts down the server.
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	// Shutdown OAuth server first (rate limiters, storage cleanup)
	if s.oauthServer != nil {
		if err := s.oauthServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown OAuth server: %w", err)
		}
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// responseWriter captures the status code written to the underlying writer.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through to the underlying writer so streaming responses keep
// working behind the instrumentation middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// createOAuthServer builds the mcp-oauth server with Google as the provider.
func createOAuthServer(cfg OAuthConfig, logger *slog.Logger) (*oauth.Server, storage.TokenStore, error) {
	provider, err := googleprovider.NewProvider(&googleprovider.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/callback",
		Scopes:       google.DefaultOAuthScopes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Google provider: %w", err)
	}

	// Create storage backend based on configuration
	var tokenStore storage.TokenStore
	var clientStore storage.ClientStore
	var flowStore storage.FlowStore

	switch cfg.StorageType {
	case OAuthStorageValkey:
		if cfg.ValkeyURL == "" {
			return nil, nil, fmt.Errorf("valkey URL is required when using valkey storage")
		}

		valkeyConfig := valkey.Config{
			Address:   cfg.ValkeyURL,
			Password:  cfg.ValkeyPassword,
			DB:        cfg.ValkeyDB,
			KeyPrefix: cfg.ValkeyKeyPrefix,
			Logger:    logger,
		}
		if valkeyConfig.KeyPrefix == "" {
			valkeyConfig.KeyPrefix = "workdesk:"
		}
		if cfg.ValkeyTLS {
			valkeyConfig.TLS = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		valkeyStore, err := valkey.New(valkeyConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Valkey storage: %w", err)
		}

		if cfg.EncryptionKey != "" {
			encryptor, err := createEncryptor(cfg.EncryptionKey)
			if err != nil {
				valkeyStore.Close()
				return nil, nil, err
			}
			valkeyStore.SetEncryptor(encryptor)
			logger.Info("token encryption at rest enabled for Valkey storage")
		}

		tokenStore = valkeyStore
		clientStore = valkeyStore
		flowStore = valkeyStore
		logger.Info("using Valkey storage backend", "address", cfg.ValkeyURL)

	case OAuthStorageMemory, "":
		memStore := memory.New()
		tokenStore = memStore
		clientStore = memStore
		flowStore = memStore
		logger.Info("using in-memory storage backend")

	default:
		return nil, nil, fmt.Errorf("unsupported OAuth storage type: %s (supported: %s, %s)",
			cfg.StorageType, OAuthStorageMemory, OAuthStorageValkey)
	}

	maxClientsPerIP := cfg.MaxClientsPerIP
	if maxClientsPerIP <= 0 {
		maxClientsPerIP = DefaultMaxClientsPerIP
	}

	serverConfig := &oauthserver.Config{
		Issuer:                        cfg.BaseURL,
		RefreshTokenTTL:               int64(DefaultRefreshTokenTTL.Seconds()),
		AllowRefreshTokenRotation:     true,
		RequirePKCE:                   true,
		AllowPKCEPlain:                false,
		AllowPublicClientRegistration: cfg.AllowPublicClientRegistration,
		RegistrationAccessToken:       cfg.RegistrationAccessToken,
		MaxClientsPerIP:               maxClientsPerIP,
		AllowLocalhostRedirectURIs:    cfg.AllowLocalhostRedirectURIs,

		Instrumentation: oauthserver.InstrumentationConfig{
			Enabled:         true,
			ServiceName:     "workdesk",
			ServiceVersion:  "1.0.0",
			MetricsExporter: "prometheus",
		},
	}

	oauthSrv, err := oauth.NewServer(
		provider,
		tokenStore,
		clientStore,
		flowStore,
		serverConfig,
		logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	// Memory storage encrypts through the server rather than the store
	if cfg.EncryptionKey != "" && cfg.StorageType != OAuthStorageValkey {
		encryptor, err := createEncryptor(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		oauthSrv.SetEncryptor(encryptor)
		logger.Info("token encryption at rest enabled")
	}

	auditor := security.NewAuditor(logger, true)
	oauthSrv.SetAuditor(auditor)

	ipRateLimiter := security.NewRateLimiter(DefaultIPRateLimit, DefaultIPBurst, logger)
	oauthSrv.SetRateLimiter(ipRateLimiter)

	userRateLimiter := security.NewRateLimiter(DefaultUserRateLimit, DefaultUserBurst, logger)
	oauthSrv.SetUserRateLimiter(userRateLimiter)

	clientRegRL := security.NewClientRegistrationRateLimiterWithConfig(
		maxClientsPerIP,
		security.DefaultRegistrationWindow,
		security.DefaultMaxRegistrationEntries,
		logger,
	)
	oauthSrv.SetClientRegistrationRateLimiter(clientRegRL)

	return oauthSrv, tokenStore, nil
}

// createEncryptor decodes the base64 key and builds the AES-256-GCM encryptor.
func createEncryptor(encodedKey string) (*security.Encryptor, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	encryptor, err := security.NewEncryptor(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}
	return encryptor, nil
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1)
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	// Parse URL to properly validate scheme and host
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	// Allow HTTP only for loopback addresses
	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
