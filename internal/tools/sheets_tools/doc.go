// Package sheets_tools provides MCP (Model Context Protocol) tools for Google Sheets operations.
//
// This package exposes spreadsheet functionality to MCP clients through tools
// for creating spreadsheets, managing sheets (tabs), and reading or writing
// cell values.
//
// Available tools:
//   - sheets_create_spreadsheet: Create a new spreadsheet with named sheets
//   - sheets_get_info: Get spreadsheet metadata (title, sheets, dimensions)
//   - sheets_read_range: Read cell values from a range in A1 notation
//   - sheets_update_range: Overwrite cell values in a range
//   - sheets_append_rows: Append rows after the last row of a table
//   - sheets_add_sheet: Add a new sheet (tab) to a spreadsheet
//   - sheets_clear_range: Clear values from a range
//
// All tools support multi-account functionality through an optional 'account'
// parameter. Write operations are omitted when the server runs in read-only mode.
package sheets_tools
