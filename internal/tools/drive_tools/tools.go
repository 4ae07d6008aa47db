package drive_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/drive"
	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/server"
)

// getDriveClient retrieves the cached Drive client for the account. A nil
// return from the server context means the account has no stored credentials.
func getDriveClient(_ context.Context, account string, sc *server.ServerContext) (*drive.Client, error) {
	client := sc.DriveClientForAccount(account)
	if client == nil {
		return nil, fmt.Errorf("%s", google.GetAuthenticationErrorMessage(account))
	}
	return client, nil
}

// RegisterDriveTools registers all Google Drive-related tools with the MCP server
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register file operation tools
	if err := registerFileTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register file tools: %w", err)
	}

	// Register folder operation tools
	if err := registerFolderTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register folder tools: %w", err)
	}

	// Register permission/sharing tools
	if err := registerShareTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register share tools: %w", err)
	}

	return nil
}
