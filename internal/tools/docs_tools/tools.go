package docs_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/docs"
	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/common"
)

// getDocsClient retrieves the cached Docs client for the account. A nil
// return from the server context means the account has no stored credentials.
func getDocsClient(_ context.Context, account string, sc *server.ServerContext) (*docs.Client, error) {
	client := sc.DocsClientForAccount(account)
	if client == nil {
		return nil, fmt.Errorf("%s", google.GetAuthenticationErrorMessage(account))
	}
	return client, nil
}

// RegisterDocsTools registers all Google Docs-related tools with the MCP server
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get document tool
	getDocumentTool := mcp.NewTool("docs_get_document",
		mcp.WithDescription("Get Google Docs content by document ID"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the Google Doc"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default), 'text', or 'json'"),
		),
	)

	s.AddTool(getDocumentTool, common.InstrumentedToolHandlerWithService(
		"docs_get_document", "docs", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetDocument(ctx, request, sc)
		}))

	// Get document metadata tool
	getMetadataTool := mcp.NewTool("docs_get_document_metadata",
		mcp.WithDescription("Get metadata about a Google Doc or Drive file"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the Google Doc or Drive file"),
		),
	)

	s.AddTool(getMetadataTool, common.InstrumentedToolHandlerWithService(
		"docs_get_document_metadata", "docs", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMetadata(ctx, request, sc)
		}))

	// Write tools only if not in read-only mode
	if !readOnly {
		// Create document tool
		createDocumentTool := mcp.NewTool("docs_create_document",
			mcp.WithDescription("Create a new, empty Google Doc"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("The title of the new document"),
			),
		)

		s.AddTool(createDocumentTool, common.InstrumentedToolHandlerWithService(
			"docs_create_document", "docs", "create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateDocument(ctx, request, sc)
			}))

		// Insert text tool
		insertTextTool := mcp.NewTool("docs_insert_text",
			mcp.WithDescription("Insert text at a specific index in a Google Doc"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("documentId",
				mcp.Required(),
				mcp.Description("The ID of the Google Doc"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("The text to insert"),
			),
			mcp.WithNumber("index",
				mcp.Description("Body index to insert at (1 = start of body, the default)"),
			),
		)

		s.AddTool(insertTextTool, common.InstrumentedToolHandlerWithService(
			"docs_insert_text", "docs", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleInsertText(ctx, request, sc)
			}))

		// Append text tool
		appendTextTool := mcp.NewTool("docs_append_text",
			mcp.WithDescription("Append text to the end of a Google Doc"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("documentId",
				mcp.Required(),
				mcp.Description("The ID of the Google Doc"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("The text to append"),
			),
		)

		s.AddTool(appendTextTool, common.InstrumentedToolHandlerWithService(
			"docs_append_text", "docs", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleAppendText(ctx, request, sc)
			}))
	}

	return nil
}

func handleGetDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	format := "markdown"
	if formatVal, ok := args["format"].(string); ok && formatVal != "" {
		format = formatVal
	}

	client, err := getDocsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch format {
	case "markdown":
		content, err := client.GetDocumentAsMarkdown(documentID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get document: %v", err)), nil
		}
		result := fmt.Sprintf("Document content (Markdown, %d bytes):\n%s", len(content), content)
		return mcp.NewToolResultText(result), nil

	case "text":
		content, err := client.GetDocumentAsPlainText(documentID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get document: %v", err)), nil
		}
		result := fmt.Sprintf("Document content (plain text, %d bytes):\n%s", len(content), content)
		return mcp.NewToolResultText(result), nil

	case "json":
		doc, err := client.GetDocument(documentID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get document: %v", err)), nil
		}
		jsonBytes, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize document: %v", err)), nil
		}
		result := fmt.Sprintf("Document content (JSON, %d bytes):\n%s", len(jsonBytes), string(jsonBytes))
		return mcp.NewToolResultText(result), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("Invalid format '%s', must be 'markdown', 'text', or 'json'", format)), nil
	}
}

func handleGetMetadata(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	client, err := getDocsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	metadata, err := client.GetFileMetadata(documentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get metadata: %v", err)), nil
	}

	jsonBytes, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize metadata: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Document metadata:\n%s", string(jsonBytes))), nil
}

func handleCreateDocument(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	client, err := getDocsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := client.CreateDocument(title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create document: %v", err)), nil
	}

	result := fmt.Sprintf("Document created successfully:\nTitle: %s\nID: %s", doc.Title, doc.DocumentId)
	return mcp.NewToolResultText(result), nil
}

func handleInsertText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	index := int64(1)
	if indexVal, ok := args["index"].(float64); ok {
		index = int64(indexVal)
	}
	if index < 1 {
		return mcp.NewToolResultError("index must be >= 1"), nil
	}

	client, err := getDocsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.InsertText(documentID, index, text); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to insert text: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Inserted %d characters at index %d", len(text), index)), nil
}

func handleAppendText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	documentID, ok := args["documentId"].(string)
	if !ok || documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	client, err := getDocsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.AppendText(documentID, text); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to append text: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Appended %d characters to document %s", len(text), documentID)), nil
}
