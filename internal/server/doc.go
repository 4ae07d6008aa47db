// Package server provides the MCP server context, session tracking, and the
// OAuth-enabled HTTP transport for workdesk.
//
// # Key Components
//
// ServerContext manages Google API clients with lazy initialization and
// per-account caching. Token resolution goes through a pluggable provider:
//   - file-backed provider for STDIO transport, reading tokens from disk
//   - store-backed provider for HTTP transport, resolving tokens from the
//     OAuth server's token store per authenticated user
//
// OAuthHTTPServer wraps an MCP server with OAuth 2.1 authentication:
//   - Authorization Server Metadata (RFC 8414)
//   - Protected Resource Metadata (RFC 9728)
//   - Dynamic Client Registration (RFC 7591)
//   - Token Revocation (RFC 7009)
//   - Token Introspection (RFC 7662)
//
// Validated requests carry the user's email in the request context, so tool
// handlers operate on the calling user's Google account without explicit
// account arguments.
//
// SessionTracker follows MCP session lifecycle hooks, attributing each
// session to the Google account it authenticated as and feeding the
// active-session gauge.
//
// MetricsServer serves Prometheus metrics and liveness probes on a separate
// listener, and HealthChecker exposes readiness endpoints on the main one.
//
// # Security Features
//
// The OAuth server includes security-focused defaults:
//   - HTTPS required for production (localhost exempt for development)
//   - PKCE required (OAuth 2.1 compliance)
//   - Rate limiting per IP and per authenticated user
//   - Optional token encryption at rest (AES-256-GCM)
//   - Audit logging for authentication events
package server
