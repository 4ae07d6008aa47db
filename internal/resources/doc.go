// Package resources provides MCP resources for exposing authorization state.
// Resources are read-only data sources that MCP clients can fetch without
// invoking a tool.
//
// auth://accounts lists every account the server knows about along with its
// authorization state. auth://status/{account} resolves one account. Both
// are served as JSON, so a client can poll them to decide whether to prompt
// the user to authorize before calling Google-backed tools.
package resources
