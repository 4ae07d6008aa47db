// Package docs_tools provides MCP tools for interacting with Google Docs.
//
// This package registers tools that allow AI assistants to:
//   - Retrieve Google Docs content by document ID
//   - Get document metadata (title, author, modified time, etc.)
//   - Convert documents to Markdown or plain text formats
//   - Create documents and insert or append text
//
// All tools support multi-account functionality through an optional 'account'
// parameter. Write operations are omitted when the server runs in read-only mode.
package docs_tools
