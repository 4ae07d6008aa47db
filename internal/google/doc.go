// Package google provides OAuth token plumbing for the Google API clients.
//
// The TokenProvider interface decouples the service wrappers (Sheets, Docs,
// Calendar, Drive) from where tokens live. Two implementations cover the two
// transports:
//
//   - Manager: for STDIO transport, serves tokens for named local accounts
//     from stored credentials, refreshing them as needed and never starting
//     an interactive flow.
//   - StoreTokenProvider: for HTTP transport, serves the per-user Google
//     tokens the built-in OAuth server captured during authorization.
//
// GetHTTPClientForAccount turns either provider into an authenticated
// *http.Client ready for the google.golang.org/api service constructors.
package google
