package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/auth"
	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/instrumentation"
	"github.com/kvollmer/workdesk/internal/logging"
	"github.com/kvollmer/workdesk/internal/resources"
	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/calendar_tools"
	"github.com/kvollmer/workdesk/internal/tools/docs_tools"
	"github.com/kvollmer/workdesk/internal/tools/drive_tools"
	"github.com/kvollmer/workdesk/internal/tools/sheets_tools"
)

// serveOptions collects every serve flag after environment fallbacks have
// been applied.
type serveOptions struct {
	transport string
	httpAddr  string
	logLevel  string
	logFormat string
	yolo      bool

	googleClientID     string
	googleClientSecret string

	baseURL          string
	disableStreaming bool

	// OAuth security settings (HTTP transport)
	allowPublicClientRegistration bool
	registrationAccessToken       string
	allowLocalhostRedirectURIs    bool
	maxClientsPerIP               int
	encryptionKey                 string

	// OAuth storage backend (HTTP transport)
	oauthStorageType string
	valkeyURL        string
	valkeyPassword   string
	valkeyKeyPrefix  string
	valkeyDB         int
	valkeyTLS        bool

	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Google Workspace
tools (Sheets, Docs, Calendar, Drive) for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with OAuth 2.1 authentication

Safety Mode:
  By default, the server operates in read-only mode, providing only safe
  operations. Use --yolo to enable write operations (cell updates, file
  deletion, event creation, etc.)

OAuth Configuration:
  STDIO Transport:
    Google API access uses the accounts authorized with 'workdesk auth login'.
    --google-client-id and --google-client-secret flags
    OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars identify the
    OAuth client; tokens stored for a different client are ignored.

  HTTP Transport:
    Base URL (required for deployed instances):
      --base-url https://your-domain.com OR MCP_BASE_URL env var
      Auto-detected for localhost (development only)

    --google-client-id and --google-client-secret identify this server to
    Google; end users authenticate through the built-in OAuth 2.1 proxy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnv(cmd, &opts)
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error. Can also use WORKDESK_LOG_LEVEL env var.")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json. Can also use WORKDESK_LOG_FORMAT env var.")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (cell updates, file deletion, etc.). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL for OAuth (HTTP transport only). Required for deployed instances. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")

	// OAuth security settings (HTTP transport only)
	cmd.Flags().BoolVar(&opts.allowPublicClientRegistration, "oauth-allow-public-registration", false, "WARNING: Allow unauthenticated client registration (NOT recommended for production). Can also use MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION env var. Default: false (secure)")
	cmd.Flags().StringVar(&opts.registrationAccessToken, "oauth-registration-token", "", "Registration access token required for client registration when public registration is disabled. Can also use MCP_OAUTH_REGISTRATION_TOKEN env var.")
	cmd.Flags().BoolVar(&opts.allowLocalhostRedirectURIs, "oauth-allow-localhost-redirect-uris", false, "Allow http://localhost redirect URIs for native apps (RFC 8252). Can also use MCP_OAUTH_ALLOW_LOCALHOST_REDIRECT_URIS env var.")
	cmd.Flags().IntVar(&opts.maxClientsPerIP, "oauth-max-clients-per-ip", server.DefaultMaxClientsPerIP, "Maximum number of clients that can be registered per IP address (prevents DoS). Can also use MCP_OAUTH_MAX_CLIENTS_PER_IP env var.")
	cmd.Flags().StringVar(&opts.encryptionKey, "oauth-encryption-key", "", "AES-256 encryption key for token storage at rest (32 bytes, base64 encoded). REQUIRED for production. Can also use MCP_OAUTH_ENCRYPTION_KEY env var. Generate with: openssl rand -base64 32")

	// OAuth storage flags
	cmd.Flags().StringVar(&opts.oauthStorageType, "oauth-storage-type", server.OAuthStorageMemory, "OAuth token storage type: memory or valkey. Can also use OAUTH_STORAGE_TYPE env var.")
	cmd.Flags().StringVar(&opts.valkeyURL, "valkey-url", "", "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.")
	cmd.Flags().StringVar(&opts.valkeyPassword, "valkey-password", "", "Valkey authentication password. Can also use VALKEY_PASSWORD env var.")
	cmd.Flags().StringVar(&opts.valkeyKeyPrefix, "valkey-key-prefix", "mcp:", "Prefix for all Valkey keys. Can also use VALKEY_KEY_PREFIX env var.")
	cmd.Flags().IntVar(&opts.valkeyDB, "valkey-db", 0, "Valkey database number. Can also use VALKEY_DB env var.")
	cmd.Flags().BoolVar(&opts.valkeyTLS, "valkey-tls", false, "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnv applies environment fallbacks for flags the user did not set
// explicitly.
func loadServeEnv(cmd *cobra.Command, opts *serveOptions) {
	stringEnv := map[string]struct {
		flag string
		dest *string
	}{
		"WORKDESK_LOG_LEVEL":           {"log-level", &opts.logLevel},
		"WORKDESK_LOG_FORMAT":          {"log-format", &opts.logFormat},
		"GOOGLE_CLIENT_ID":             {"google-client-id", &opts.googleClientID},
		"GOOGLE_CLIENT_SECRET":         {"google-client-secret", &opts.googleClientSecret},
		"MCP_BASE_URL":                 {"base-url", &opts.baseURL},
		"MCP_OAUTH_REGISTRATION_TOKEN": {"oauth-registration-token", &opts.registrationAccessToken},
		"MCP_OAUTH_ENCRYPTION_KEY":     {"oauth-encryption-key", &opts.encryptionKey},
		"OAUTH_STORAGE_TYPE":           {"oauth-storage-type", &opts.oauthStorageType},
		"VALKEY_URL":                   {"valkey-url", &opts.valkeyURL},
		"VALKEY_PASSWORD":              {"valkey-password", &opts.valkeyPassword},
		"VALKEY_KEY_PREFIX":            {"valkey-key-prefix", &opts.valkeyKeyPrefix},
		"METRICS_ADDR":                 {"metrics-addr", &opts.metricsAddr},
	}
	for key, binding := range stringEnv {
		if cmd.Flags().Changed(binding.flag) {
			continue
		}
		if v := os.Getenv(key); v != "" {
			*binding.dest = v
		}
	}

	boolEnv := map[string]struct {
		flag string
		dest *bool
	}{
		"MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION":     {"oauth-allow-public-registration", &opts.allowPublicClientRegistration},
		"MCP_OAUTH_ALLOW_LOCALHOST_REDIRECT_URIS": {"oauth-allow-localhost-redirect-uris", &opts.allowLocalhostRedirectURIs},
		"VALKEY_TLS_ENABLED":                      {"valkey-tls", &opts.valkeyTLS},
		"METRICS_ENABLED":                         {"metrics-enabled", &opts.metricsEnabled},
	}
	for key, binding := range boolEnv {
		if cmd.Flags().Changed(binding.flag) {
			continue
		}
		if v := os.Getenv(key); v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				*binding.dest = parsed
			}
		}
	}

	intEnv := map[string]struct {
		flag string
		dest *int
	}{
		"MCP_OAUTH_MAX_CLIENTS_PER_IP": {"oauth-max-clients-per-ip", &opts.maxClientsPerIP},
		"VALKEY_DB":                    {"valkey-db", &opts.valkeyDB},
	}
	for key, binding := range intEnv {
		if cmd.Flags().Changed(binding.flag) {
			continue
		}
		if v := os.Getenv(key); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				*binding.dest = parsed
			}
		}
	}
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr: in stdio mode stdout carries the MCP protocol stream.
	logger, err := logging.Setup(logging.Options{
		Level:  opts.logLevel,
		Format: opts.logFormat,
	})
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	instrProvider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := instrProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && opts.metricsEnabled && instrProvider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			Enabled:                 true,
			InstrumentationProvider: instrProvider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	// readOnly is the inverse of yolo
	readOnly := !opts.yolo
	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	// Hooks carry session lifecycle events; the HTTP transport attaches a
	// session tracker to them.
	hooks := &mcpserver.Hooks{}

	mcpSrv := mcpserver.NewMCPServer("workdesk", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithHooks(hooks),
	)

	switch opts.transport {
	case "stdio":
		return runStdioServer(shutdownCtx, mcpSrv, opts, instrProvider, instrConfig, logger, readOnly)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, hooks, opts, instrProvider, instrConfig, logger, readOnly)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, opts serveOptions, instrProvider *instrumentation.Provider, instrConfig instrumentation.Config, logger *slog.Logger, readOnly bool) error {
	clientID, clientSecret, err := resolveOAuthClient(opts.googleClientID, opts.googleClientSecret)
	if err != nil {
		return fmt.Errorf("stdio transport needs a Google OAuth client: %w", err)
	}

	settings, err := auth.LoadSettings()
	if err != nil {
		return err
	}

	mgrOpts := google.ManagerOptions{
		Settings: &settings,
		Logger:   logger,
	}
	if instrProvider.Enabled() {
		mgrOpts.Metrics = instrProvider.Metrics()
	}

	manager, err := google.NewManager(auth.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       google.DefaultOAuthScopes,
	}, mgrOpts)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(ctx, manager, logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	if instrProvider.Enabled() {
		serverContext.SetMetrics(instrProvider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, hooks *mcpserver.Hooks, opts serveOptions, instrProvider *instrumentation.Provider, instrConfig instrumentation.Config, logger *slog.Logger, readOnly bool) error {
	baseURL := resolveBaseURL(opts.baseURL, opts.httpAddr)
	if opts.baseURL == "" {
		logger.Info("no base URL configured, using auto-detected", "baseUrl", baseURL)
		logger.Info("for deployed instances, set --base-url flag or MCP_BASE_URL env var")
	} else {
		logger.Info("using configured base URL", "baseUrl", baseURL)
	}

	oauthServer, err := server.NewOAuthHTTPServer(mcpSrv, server.OAuthConfig{
		BaseURL:                       baseURL,
		GoogleClientID:                opts.googleClientID,
		GoogleClientSecret:            opts.googleClientSecret,
		AllowPublicClientRegistration: opts.allowPublicClientRegistration,
		RegistrationAccessToken:       opts.registrationAccessToken,
		AllowLocalhostRedirectURIs:    opts.allowLocalhostRedirectURIs,
		MaxClientsPerIP:               opts.maxClientsPerIP,
		EncryptionKey:                 opts.encryptionKey,
		StorageType:                   opts.oauthStorageType,
		ValkeyURL:                     opts.valkeyURL,
		ValkeyPassword:                opts.valkeyPassword,
		ValkeyDB:                      opts.valkeyDB,
		ValkeyKeyPrefix:               opts.valkeyKeyPrefix,
		ValkeyTLS:                     opts.valkeyTLS,
		DisableStreaming:              opts.disableStreaming,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	// Google API clients resolve tokens for the authenticated user through
	// the OAuth token store.
	serverContext, err := server.NewServerContext(ctx, oauthServer.TokenProvider(), logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	if instrProvider.Enabled() {
		serverContext.SetMetrics(instrProvider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
		oauthServer.SetMetrics(instrProvider.Metrics())
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	healthChecker := server.NewHealthChecker(serverContext)
	oauthServer.SetHealthChecker(healthChecker)

	tracker := server.NewSessionTracker(logger)
	if instrProvider.Enabled() {
		tracker.SetMetrics(instrProvider.Metrics())
	}
	tracker.Attach(hooks)
	defer tracker.Stop()

	logger.Info("streamable HTTP server with OAuth authentication starting",
		"addr", opts.httpAddr,
		"mcpEndpoint", "/mcp",
		"healthEndpoints", "/healthz, /readyz",
		"oauthMetadata", "/.well-known/oauth-protected-resource")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := oauthServer.Start(opts.httpAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := oauthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Sheets",
			register: func() error {
				return sheets_tools.RegisterSheetsTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Docs",
			register: func() error {
				return docs_tools.RegisterDocsTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Drive",
			register: func() error {
				return drive_tools.RegisterDriveTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Auth Resources",
			register: func() error {
				return resources.RegisterAuthResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

// resolveBaseURL picks the externally visible URL for the OAuth issuer. An
// explicit URL wins; otherwise the listen address is assumed reachable as
// localhost, which only makes sense for development.
func resolveBaseURL(baseURL, addr string) string {
	if baseURL != "" {
		return baseURL
	}
	if addr != "" && addr[0] == ':' {
		return fmt.Sprintf("http://localhost%s", addr)
	}
	return fmt.Sprintf("http://%s", addr)
}
