package sheets_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/server"
	"github.com/kvollmer/workdesk/internal/tools/common"
)

// registerValueTools registers cell value read/write tools
func registerValueTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Read range tool (read-only, always available)
	readRangeTool := mcp.NewTool("sheets_read_range",
		mcp.WithDescription("Read cell values from a spreadsheet range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("spreadsheetId",
			mcp.Required(),
			mcp.Description("The ID of the spreadsheet"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("The range to read in A1 notation (e.g., 'Sheet1!A1:C10')"),
		),
	)

	s.AddTool(readRangeTool, common.InstrumentedToolHandlerWithService(
		"sheets_read_range", "sheets", "read", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadRange(ctx, request, sc)
		}))

	// Write tools only if not in read-only mode
	if !readOnly {
		// Update range tool
		updateRangeTool := mcp.NewTool("sheets_update_range",
			mcp.WithDescription("Overwrite cell values in a spreadsheet range"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("spreadsheetId",
				mcp.Required(),
				mcp.Description("The ID of the spreadsheet"),
			),
			mcp.WithString("range",
				mcp.Required(),
				mcp.Description("The range to update in A1 notation (e.g., 'Sheet1!A1:C10')"),
			),
			mcp.WithArray("values",
				mcp.Required(),
				mcp.Description("Array of rows, each row an array of cell values (e.g., [[\"Name\",\"Score\"],[\"Ada\",100]])"),
			),
			mcp.WithString("valueInputOption",
				mcp.Description("How input is interpreted: 'USER_ENTERED' (default, parses formulas and numbers) or 'RAW'"),
			),
		)

		s.AddTool(updateRangeTool, common.InstrumentedToolHandlerWithService(
			"sheets_update_range", "sheets", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUpdateRange(ctx, request, sc)
			}))

		// Append rows tool
		appendRowsTool := mcp.NewTool("sheets_append_rows",
			mcp.WithDescription("Append rows after the last row of a table in a spreadsheet"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("spreadsheetId",
				mcp.Required(),
				mcp.Description("The ID of the spreadsheet"),
			),
			mcp.WithString("range",
				mcp.Required(),
				mcp.Description("The table range to append to in A1 notation (e.g., 'Sheet1!A:C')"),
			),
			mcp.WithArray("values",
				mcp.Required(),
				mcp.Description("Array of rows, each row an array of cell values"),
			),
			mcp.WithString("valueInputOption",
				mcp.Description("How input is interpreted: 'USER_ENTERED' (default) or 'RAW'"),
			),
		)

		s.AddTool(appendRowsTool, common.InstrumentedToolHandlerWithService(
			"sheets_append_rows", "sheets", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleAppendRows(ctx, request, sc)
			}))

		// Clear range tool
		clearRangeTool := mcp.NewTool("sheets_clear_range",
			mcp.WithDescription("Clear cell values from a spreadsheet range (formatting is kept)"),
			mcp.WithString("account",
				mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
			),
			mcp.WithString("spreadsheetId",
				mcp.Required(),
				mcp.Description("The ID of the spreadsheet"),
			),
			mcp.WithString("range",
				mcp.Required(),
				mcp.Description("The range to clear in A1 notation (e.g., 'Sheet1!A1:C10')"),
			),
		)

		s.AddTool(clearRangeTool, common.InstrumentedToolHandlerWithService(
			"sheets_clear_range", "sheets", "update", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleClearRange(ctx, request, sc)
			}))
	}

	return nil
}

func handleReadRange(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}

	readRange, ok := args["range"].(string)
	if !ok || readRange == "" {
		return mcp.NewToolResultError("range is required"), nil
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := client.ReadRange(spreadsheetID, readRange)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read range: %v", err)), nil
	}

	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Range %s is empty", readRange)), nil
	}

	response := map[string]interface{}{
		"range":  readRange,
		"rows":   len(rows),
		"values": rows,
	}

	result, _ := json.MarshalIndent(response, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func handleUpdateRange(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}

	updateRange, ok := args["range"].(string)
	if !ok || updateRange == "" {
		return mcp.NewToolResultError("range is required"), nil
	}

	values, err := parseRows(args["values"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	valueInputOption := ""
	if vio, ok := args["valueInputOption"].(string); ok {
		valueInputOption = vio
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	update, err := client.UpdateRange(spreadsheetID, updateRange, values, valueInputOption)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update range: %v", err)), nil
	}

	result := fmt.Sprintf("Updated %s: %d cells in %d rows",
		update.UpdatedRange, update.UpdatedCells, update.UpdatedRows)
	return mcp.NewToolResultText(result), nil
}

func handleAppendRows(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}

	appendRange, ok := args["range"].(string)
	if !ok || appendRange == "" {
		return mcp.NewToolResultError("range is required"), nil
	}

	values, err := parseRows(args["values"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	valueInputOption := ""
	if vio, ok := args["valueInputOption"].(string); ok {
		valueInputOption = vio
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	appended, err := client.AppendRows(spreadsheetID, appendRange, values, valueInputOption)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to append rows: %v", err)), nil
	}

	result := fmt.Sprintf("Appended %d rows (%d cells) to %s",
		appended.UpdatedRows, appended.UpdatedCells, appended.UpdatedRange)
	return mcp.NewToolResultText(result), nil
}

func handleClearRange(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	spreadsheetID, ok := args["spreadsheetId"].(string)
	if !ok || spreadsheetID == "" {
		return mcp.NewToolResultError("spreadsheetId is required"), nil
	}

	clearRange, ok := args["range"].(string)
	if !ok || clearRange == "" {
		return mcp.NewToolResultError("range is required"), nil
	}

	client, err := getSheetsClient(ctx, account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	clearedRange, err := client.ClearRange(spreadsheetID, clearRange)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to clear range: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Cleared range %s", clearedRange)), nil
}

// parseRows converts the decoded JSON "values" argument into a row matrix.
// Each row must be an array; cells may be strings, numbers, or booleans and
// are stringified the way the Sheets API expects them.
func parseRows(param interface{}) ([][]string, error) {
	if param == nil {
		return nil, fmt.Errorf("values is required")
	}

	rawRows, ok := param.([]interface{})
	if !ok {
		return nil, fmt.Errorf("values must be an array of rows")
	}
	if len(rawRows) == 0 {
		return nil, fmt.Errorf("values cannot be empty")
	}

	rows := make([][]string, 0, len(rawRows))
	for i, rawRow := range rawRows {
		cells, ok := rawRow.([]interface{})
		if !ok {
			return nil, fmt.Errorf("values[%d] must be an array of cells", i)
		}

		row := make([]string, 0, len(cells))
		for j, cell := range cells {
			str, err := stringifyCell(cell)
			if err != nil {
				return nil, fmt.Errorf("values[%d][%d]: %w", i, j, err)
			}
			row = append(row, str)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func stringifyCell(cell interface{}) (string, error) {
	switch v := cell.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported cell type %T", cell)
	}
}
