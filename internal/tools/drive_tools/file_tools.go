package drive_tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/drive"
	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/batch"
	"github.com/kvollmer/workdesk/internal/tools/common"
)

// registerFileTools registers file management tools
func registerFileTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register write tools only if not in read-only mode
	if !readOnly {
		// Upload file tool
		uploadFileTool := mcp.NewTool("drive_upload_file",
			mcp.WithDescription("Upload a file to Google Drive"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("The name of the file"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The file content (base64-encoded for binary files, or plain text)"),
			),
			mcp.WithString("mimeType",
				mcp.Description("The MIME type of the file (e.g., 'application/pdf', 'text/plain', 'image/png')"),
			),
			mcp.WithString("parentFolders",
				mcp.Description("Comma-separated list of parent folder IDs where the file should be placed"),
			),
			mcp.WithString("description",
				mcp.Description("A short description of the file"),
			),
			mcp.WithBoolean("isBase64",
				mcp.Description("Whether the content is base64-encoded (default: false, plain text)"),
			),
		)

		s.AddTool(uploadFileTool, common.InstrumentedToolHandlerWithService(
			"drive_upload_file", "drive", "create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUploadFile(ctx, request, sc)
			}))

		// Delete files tool
		deleteFilesTool := mcp.NewTool("drive_delete_files",
			mcp.WithDescription("Delete one or more files from Google Drive"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("fileIds",
				mcp.Required(),
				mcp.Description("File ID (string) or array of file IDs to delete"),
			),
		)

		s.AddTool(deleteFilesTool, common.InstrumentedToolHandlerWithService(
			"drive_delete_files", "drive", "delete", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteFiles(ctx, request, sc)
			}))
	}

	// List files tool (read-only, always available)
	listFilesTool := mcp.NewTool("drive_list_files",
		mcp.WithDescription("List files in Google Drive with optional filtering"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("query",
			mcp.Description("Query for filtering files using Google Drive's query language (e.g., \"name contains 'report'\", \"mimeType='application/pdf'\")"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of files to return (default: 100, max: 1000)"),
		),
		mcp.WithString("orderBy",
			mcp.Description("Sort order (e.g., 'folder,modifiedTime desc,name')"),
		),
		mcp.WithBoolean("includeTrashed",
			mcp.Description("Include trashed files in results (default: false)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Page token for retrieving the next page of results"),
		),
	)

	s.AddTool(listFilesTool, common.InstrumentedToolHandlerWithService(
		"drive_list_files", "drive", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFiles(ctx, request, sc)
		}))

	// Search files tool
	searchFilesTool := mcp.NewTool("drive_search_files",
		mcp.WithDescription("Search Google Drive file names and content for a term"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("The search term. Matches file names and full text content."),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of files to return (default: 100)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Page token for retrieving the next page of results"),
		),
	)

	s.AddTool(searchFilesTool, common.InstrumentedToolHandlerWithService(
		"drive_search_files", "drive", "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchFiles(ctx, request, sc)
		}))

	// Get files tool
	getFilesTool := mcp.NewTool("drive_get_files",
		mcp.WithDescription("Get metadata for one or more files in Google Drive"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("fileIds",
			mcp.Required(),
			mcp.Description("File ID (string) or array of file IDs to retrieve"),
		),
	)

	s.AddTool(getFilesTool, common.InstrumentedToolHandlerWithService(
		"drive_get_files", "drive", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFiles(ctx, request, sc)
		}))

	// Read files tool
	readFilesTool := mcp.NewTool("drive_read_files",
		mcp.WithDescription("Read the content of one or more files. Google-native files (Docs, Sheets, Slides) are exported to a text format; regular files are downloaded as-is."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("fileIds",
			mcp.Required(),
			mcp.Description("File ID (string) or array of file IDs to read"),
		),
		mcp.WithString("exportMimeType",
			mcp.Description("Export MIME type for Google-native files (e.g., 'text/csv' for Sheets). Defaults by file type."),
		),
		mcp.WithBoolean("asBase64",
			mcp.Description("Return content as base64-encoded string (default: false; binary content is base64-encoded regardless)"),
		),
	)

	s.AddTool(readFilesTool, common.InstrumentedToolHandlerWithService(
		"drive_read_files", "drive", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadFiles(ctx, request, sc)
		}))

	return nil
}

func handleUploadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	contentStr, ok := args["content"].(string)
	if !ok || contentStr == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	options := &drive.UploadOptions{}

	if mimeType, ok := args["mimeType"].(string); ok && mimeType != "" {
		options.MimeType = mimeType
	}

	if description, ok := args["description"].(string); ok && description != "" {
		options.Description = description
	}

	if parentFoldersStr, ok := args["parentFolders"].(string); ok && parentFoldersStr != "" {
		options.ParentFolders = common.ParseCommaList(parentFoldersStr)
	}

	var content *strings.Reader
	if isB64, _ := args["isBase64"].(bool); isB64 {
		decoded, err := base64.StdEncoding.DecodeString(contentStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to decode base64 content: %v", err)), nil
		}
		content = strings.NewReader(string(decoded))
	} else {
		content = strings.NewReader(contentStr)
	}

	fileInfo, err := client.UploadFile(ctx, name, content, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to upload file: %v", err)), nil
	}

	result, _ := json.MarshalIndent(fileInfo, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("File uploaded successfully:\n%s", string(result))), nil
}

func handleListFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	options := listOptionsFromArgs(args)

	files, nextPageToken, err := client.ListFiles(ctx, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list files: %v", err)), nil
	}

	return fileListResult(files, nextPageToken), nil
}

func handleSearchFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	term, ok := args["term"].(string)
	if !ok || term == "" {
		return mcp.NewToolResultError("term is required"), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	options := listOptionsFromArgs(args)

	files, nextPageToken, err := client.SearchFiles(ctx, term, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search files: %v", err)), nil
	}

	return fileListResult(files, nextPageToken), nil
}

func handleGetFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileIDs, err := batch.ParseStringOrArray(args["fileIds"], "fileIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(fileIDs, func(fileID string) (string, error) {
		fileInfo, err := client.GetFile(ctx, fileID)
		if err != nil {
			return "", err
		}
		jsonBytes, _ := json.Marshal(fileInfo)
		return string(jsonBytes), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleReadFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileIDs, err := batch.ParseStringOrArray(args["fileIds"], "fileIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	exportMimeType := ""
	if emt, ok := args["exportMimeType"].(string); ok {
		exportMimeType = emt
	}

	asBase64, _ := args["asBase64"].(bool)

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(fileIDs, func(fileID string) (string, error) {
		content, err := client.ReadFileContent(ctx, fileID, exportMimeType)
		if err != nil {
			return "", err
		}

		// Binary content cannot go into a text result verbatim
		if asBase64 || !utf8.Valid(content.Data) {
			encoded := base64.StdEncoding.EncodeToString(content.Data)
			return fmt.Sprintf("%s (%s, base64, %d bytes):\n%s",
				content.Name, content.MimeType, len(content.Data), encoded), nil
		}

		return fmt.Sprintf("%s (%s, %d bytes):\n%s",
			content.Name, content.MimeType, len(content.Data), string(content.Data)), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleDeleteFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	fileIDs, err := batch.ParseStringOrArray(args["fileIds"], "fileIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getDriveClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(fileIDs, func(fileID string) (string, error) {
		if err := client.DeleteFile(ctx, fileID); err != nil {
			return "", err
		}
		return fmt.Sprintf("File %s deleted successfully", fileID), nil
	})

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

// listOptionsFromArgs extracts the shared listing options from tool arguments
func listOptionsFromArgs(args map[string]interface{}) *drive.ListOptions {
	options := &drive.ListOptions{
		MaxResults: 100,
	}

	if query, ok := args["query"].(string); ok && query != "" {
		options.Query = query
	}

	if maxResults, ok := args["maxResults"].(float64); ok && maxResults > 0 {
		options.MaxResults = int(maxResults)
	}

	if orderBy, ok := args["orderBy"].(string); ok && orderBy != "" {
		options.OrderBy = orderBy
	}

	if includeTrashed, ok := args["includeTrashed"].(bool); ok {
		options.IncludeTrashed = includeTrashed
	}

	if pageToken, ok := args["pageToken"].(string); ok && pageToken != "" {
		options.PageToken = pageToken
	}

	return options
}

// fileListResult renders a file listing with its pagination token
func fileListResult(files []*drive.FileInfo, nextPageToken string) *mcp.CallToolResult {
	response := map[string]interface{}{
		"files":         files,
		"nextPageToken": nextPageToken,
	}

	result, _ := json.MarshalIndent(response, "", "  ")
	return mcp.NewToolResultText(string(result))
}
