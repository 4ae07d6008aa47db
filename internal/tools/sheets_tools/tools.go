package sheets_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/sheets"
)

// getSheetsClient retrieves the cached Sheets client for the account. The
// server context creates and caches clients on demand; a nil return means
// the account has no stored credentials.
func getSheetsClient(_ context.Context, account string, sc *server.ServerContext) (*sheets.Client, error) {
	client := sc.SheetsClientForAccount(account)
	if client == nil {
		return nil, fmt.Errorf("%s", google.GetAuthenticationErrorMessage(account))
	}
	return client, nil
}

// RegisterSheetsTools registers all Google Sheets-related tools with the MCP server
func RegisterSheetsTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerSpreadsheetTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register spreadsheet tools: %w", err)
	}

	if err := registerValueTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register value tools: %w", err)
	}

	return nil
}
