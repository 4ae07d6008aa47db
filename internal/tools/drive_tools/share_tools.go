package drive_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/drive"
	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/batch"
	"github.com/kvollmer/workdesk/internal/tools/common"
)

// registerShareTools registers file sharing and permission management tools
func registerShareTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register write tools only if not in read-only mode
	if !readOnly {
		// Share files tool
		shareFilesTool := mcp.NewTool("drive_share_files",
			mcp.WithDescription("Share one or more files in Google Drive by granting permissions"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("fileIds",
				mcp.Required(),
				mcp.Description("File ID (string) or array of file IDs to share"),
			),
			mcp.WithString("type",
				mcp.Required(),
				mcp.Description("The type of grantee: 'user', 'group', 'domain', or 'anyone'"),
			),
			mcp.WithString("role",
				mcp.Required(),
				mcp.Description("The role to grant: 'owner', 'organizer', 'fileOrganizer', 'writer', 'commenter', or 'reader'"),
			),
			mcp.WithString("emailAddress",
				mcp.Description("Email address (required if type is 'user' or 'group')"),
			),
			mcp.WithString("domain",
				mcp.Description("Domain name (required if type is 'domain')"),
			),
			mcp.WithBoolean("sendNotificationEmail",
				mcp.Description("Send a notification email to the grantee (default: false)"),
			),
			mcp.WithString("emailMessage",
				mcp.Description("Custom message to include in the notification email"),
			),
		)

		s.AddTool(shareFilesTool, common.InstrumentedToolHandlerWithService(
			"drive_share_files", "drive", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleShareFiles(ctx, request, sc)
			}))

		// Remove permission tool
		removePermissionTool := mcp.NewTool("drive_remove_permission",
			mcp.WithDescription("Remove a permission from a file in Google Drive"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("fileId",
				mcp.Required(),
				mcp.Description("The ID of the file"),
			),
			mcp.WithString("permissionId",
				mcp.Required(),
				mcp.Description("The ID of the permission to remove (use drive_list_permissions to find it)"),
			),
		)

		s.AddTool(removePermissionTool, common.InstrumentedToolHandlerWithService(
			"drive_remove_permission", "drive", "delete", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleRemovePermission(ctx, request, sc)
			}))
	}

	// List permissions tool (read-only, always available)
	listPermissionsTool := mcp.NewTool("drive_list_permissions",
		mcp.WithDescription("List the permissions on a file in Google Drive"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
	)

	s.AddTool(listPermissionsTool, common.InstrumentedToolHandlerWithService(
		"drive_list_permissions", "drive", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListPermissions(ctx, request, sc)
		}))

	return nil
}

func handleShareFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileIDs, err := batch.ParseStringOrArray(args["fileIds"], "fileIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	options, err := shareOptionsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(fileIDs, func(fileID string) (string, error) {
		permission, err := client.ShareFile(ctx, fileID, options)
		if err != nil {
			return "", err
		}
		jsonBytes, _ := json.Marshal(permission)
		return fmt.Sprintf("Permission granted: %s", string(jsonBytes)), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleListPermissions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	permissions, err := client.ListPermissions(ctx, fileID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list permissions: %v", err)), nil
	}

	result, _ := json.MarshalIndent(permissions, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleRemovePermission(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	permissionID, ok := args["permissionId"].(string)
	if !ok || permissionID == "" {
		return mcp.NewToolResultError("permissionId is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.RemovePermission(ctx, fileID, permissionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to remove permission: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Permission %s removed from file %s", permissionID, fileID)), nil
}

// shareOptionsFromArgs validates the grantee arguments for sharing
func shareOptionsFromArgs(args map[string]interface{}) (*drive.ShareOptions, error) {
	granteeType, ok := args["type"].(string)
	if !ok || granteeType == "" {
		return nil, fmt.Errorf("type is required")
	}

	role, ok := args["role"].(string)
	if !ok || role == "" {
		return nil, fmt.Errorf("role is required")
	}

	options := &drive.ShareOptions{
		Type: granteeType,
		Role: role,
	}

	if emailAddress, ok := args["emailAddress"].(string); ok {
		options.EmailAddress = emailAddress
	}

	if domain, ok := args["domain"].(string); ok {
		options.Domain = domain
	}

	switch granteeType {
	case "user", "group":
		if options.EmailAddress == "" {
			return nil, fmt.Errorf("emailAddress is required when type is '%s'", granteeType)
		}
	case "domain":
		if options.Domain == "" {
			return nil, fmt.Errorf("domain is required when type is 'domain'")
		}
	case "anyone":
		// no grantee identifier needed
	default:
		return nil, fmt.Errorf("invalid type '%s': must be 'user', 'group', 'domain' or 'anyone'", granteeType)
	}

	if sendNotification, ok := args["sendNotificationEmail"].(bool); ok {
		options.SendNotificationEmail = sendNotification
	}

	if emailMessage, ok := args["emailMessage"].(string); ok && emailMessage != "" {
		options.EmailMessage = emailMessage
	}

	return options, nil
}
