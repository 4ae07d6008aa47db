package sheets_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/common"
)

// registerSpreadsheetTools registers spreadsheet and sheet management tools
func registerSpreadsheetTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register write tools only if not in read-only mode
	if !readOnly {
		// Create spreadsheet tool
		createSpreadsheetTool := mcp.NewTool("sheets_create_spreadsheet",
			mcp.WithDescription("Create a new Google Spreadsheet"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("The title of the new spreadsheet"),
			),
			mcp.WithString("sheetTitles",
				mcp.Description("Comma-separated list of sheet (tab) titles to create. Defaults to a single 'Sheet1'."),
			),
		)

		s.AddTool(createSpreadsheetTool, common.InstrumentedToolHandlerWithService(
			"sheets_create_spreadsheet", "sheets", "create", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateSpreadsheet(ctx, request, sc)
			}))

		// Add sheet tool
		addSheetTool := mcp.NewTool("sheets_add_sheet",
			mcp.WithDescription("Add a new sheet (tab) to an existing spreadsheet"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("spreadsheetId",
				mcp.Required(),
				mcp.Description("The ID of the spreadsheet"),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("The title of the new sheet"),
			),
		)

		s.AddTool(addSheetTool, common.InstrumentedToolHandlerWithService(
			"sheets_add_sheet", "sheets", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleAddSheet(ctx, request, sc)
			}))
	}

	// Get spreadsheet info tool (read-only, always available)
	getInfoTool := mcp.NewTool("sheets_get_info",
		mcp.WithDescription("Get metadata about a spreadsheet: title, sheets, and dimensions"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("spreadsheetId",
			mcp.Required(),
			mcp.Description("The ID of the spreadsheet"),
		),
	)

	s.AddTool(getInfoTool, common.InstrumentedToolHandlerWithService(
		"sheets_get_info", "sheets", "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetInfo(ctx, request, sc)
		}))

	return nil
}

func handleCreateSpreadsheet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	var sheetTitles []string
	if titlesStr, ok := args["sheetTitles"].(string); ok && titlesStr != "" {
		sheetTitles = common.ParseCommaList(titlesStr)
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.CreateSpreadsheet(title, sheetTitles)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create spreadsheet: %v", err)), nil
	}

	result, _ := json.MarshalIndent(info, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Spreadsheet created successfully:\n%s", string(result))), nil
}

func handleAddSheet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sheet, err := client.AddSheet(spreadsheetID, title)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add sheet: %v", err)), nil
	}

	result, _ := json.MarshalIndent(sheet, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Sheet added successfully:\n%s", string(result))), nil
}

func handleGetInfo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.GetSpreadsheetInfo(spreadsheetID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get spreadsheet info: %v", err)), nil
	}

	result := fmt.Sprintf("Spreadsheet: %s\n", info.Title)
	result += fmt.Sprintf("ID: %s\n", info.ID)
	if info.URL != "" {
		result += fmt.Sprintf("URL: %s\n", info.URL)
	}
	result += fmt.Sprintf("\nSheets (%d):\n", len(info.Sheets))
	for i, sheet := range info.Sheets {
		result += fmt.Sprintf("%d. %s\n", i+1, sheet.Title)
		result += fmt.Sprintf("   Sheet ID: %d\n", sheet.SheetID)
		result += fmt.Sprintf("   Size: %d rows x %d columns\n", sheet.RowCount, sheet.ColumnCount)
	}

	return mcp.NewToolResultText(result), nil
}
