// Package calendar_tools provides MCP (Model Context Protocol) tools for Google Calendar operations.
//
// This package exposes Google Calendar functionality through a standardized MCP interface,
// allowing AI assistants to manage calendars, events, and scheduling on behalf of users.
//
// The tools support multi-account authentication through an optional 'account' parameter
// and cover event creation, modification, availability checks, and meeting scheduling.
// Event create/update/delete tools are omitted when the server runs in read-only mode.
package calendar_tools
