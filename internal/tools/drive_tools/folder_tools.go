package drive_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/drive"
	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/common"
)

// registerFolderTools registers folder management tools
func registerFolderTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register write tools only if not in read-only mode
	if !readOnly {
		// Create folder tool
		createFolderTool := mcp.NewTool("drive_create_folder",
			mcp.WithDescription("Create a new folder in Google Drive"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("The name of the folder"),
			),
			mcp.WithString("parentFolders",
				mcp.Description("Comma-separated list of parent folder IDs where the folder should be created"),
			),
		)

		s.AddTool(createFolderTool, common.InstrumentedToolHandlerWithService(
			"drive_create_folder", "drive", "create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateFolder(ctx, request, sc)
			}))

		// Move file tool
		moveFileTool := mcp.NewTool("drive_move_file",
			mcp.WithDescription("Move or rename a file in Google Drive"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("fileId",
				mcp.Required(),
				mcp.Description("The ID of the file to move or rename"),
			),
			mcp.WithString("newName",
				mcp.Description("New name for the file"),
			),
			mcp.WithString("addParents",
				mcp.Description("Comma-separated list of folder IDs to add as parents"),
			),
			mcp.WithString("removeParents",
				mcp.Description("Comma-separated list of folder IDs to remove as parents"),
			),
		)

		s.AddTool(moveFileTool, common.InstrumentedToolHandlerWithService(
			"drive_move_file", "drive", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleMoveFile(ctx, request, sc)
			}))
	}

	// List folder tool (read-only, always available)
	listFolderTool := mcp.NewTool("drive_list_folder",
		mcp.WithDescription("List the contents of a Google Drive folder"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("folderId",
			mcp.Required(),
			mcp.Description("The ID of the folder to list ('root' for the top-level folder)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of files to return (default: 100)"),
		),
		mcp.WithString("orderBy",
			mcp.Description("Sort order (e.g., 'folder,name')"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Page token for retrieving the next page of results"),
		),
	)

	s.AddTool(listFolderTool, common.InstrumentedToolHandlerWithService(
		"drive_list_folder", "drive", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFolder(ctx, request, sc)
		}))

	return nil
}

func handleCreateFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var parentFolders []string
	if parentFoldersStr, ok := args["parentFolders"].(string); ok && parentFoldersStr != "" {
		parentFolders = common.ParseCommaList(parentFoldersStr)
	}

	folderInfo, err := client.CreateFolder(ctx, name, parentFolders)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create folder: %v", err)), nil
	}

	result, _ := json.MarshalIndent(folderInfo, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Folder created successfully:\n%s", string(result))), nil
}

func handleListFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	folderID, ok := args["folderId"].(string)
	if !ok || folderID == "" {
		return mcp.NewToolResultError("folderId is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	options := listOptionsFromArgs(args)

	files, nextPageToken, err := client.ListFolder(ctx, folderID, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list folder: %v", err)), nil
	}

	return fileListResult(files, nextPageToken), nil
}

func handleMoveFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileID, ok := args["fileId"].(string)
	if !ok || fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	options := &drive.MoveOptions{}

	if newName, ok := args["newName"].(string); ok && newName != "" {
		options.NewName = newName
	}

	if addParentsStr, ok := args["addParents"].(string); ok && addParentsStr != "" {
		options.AddParents = common.ParseCommaList(addParentsStr)
	}

	if removeParentsStr, ok := args["removeParents"].(string); ok && removeParentsStr != "" {
		options.RemoveParents = common.ParseCommaList(removeParentsStr)
	}

	if options.NewName == "" && len(options.AddParents) == 0 && len(options.RemoveParents) == 0 {
		return mcp.NewToolResultError("at least one of newName, addParents or removeParents is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fileInfo, err := client.MoveFile(ctx, fileID, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to move file: %v", err)), nil
	}

	result, _ := json.MarshalIndent(fileInfo, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("File moved successfully:\n%s", string(result))), nil
}
