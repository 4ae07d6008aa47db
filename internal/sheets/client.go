package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/kvollmer/workdesk/internal/google"
)

// Value input options accepted by UpdateRange and AppendRows.
const (
	// ValueInputRaw stores values exactly as given, without parsing.
	ValueInputRaw = "RAW"
	// ValueInputUserEntered parses values as if typed into the Sheets UI,
	// so "=SUM(A1:A3)" becomes a formula and "3/2/2026" becomes a date.
	ValueInputUserEntered = "USER_ENTERED"
)

// Client wraps the Google Sheets API service
type Client struct {
	svc           *sheets.Service
	account       string // The account this client is associated with
	tokenProvider google.TokenProvider
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccountWithProvider checks if a valid OAuth token exists for the specified account
func HasTokenForAccountWithProvider(account string, provider google.TokenProvider) bool {
	if provider == nil {
		return false
	}
	return provider.HasTokenForAccount(account)
}

// NewClientForAccountWithProvider creates a new Google Sheets client with OAuth2 authentication for a specific account
// The OAuth token is retrieved from the provided token provider
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	client, err := google.GetHTTPClientForAccount(ctx, account, tokenProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		account:       account,
		tokenProvider: tokenProvider,
	}, nil
}

// NewClientWithProvider creates a new Google Sheets client with OAuth2 authentication for the default account
// using the provided token provider
func NewClientWithProvider(ctx context.Context, provider google.TokenProvider) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, google.DefaultAccount, provider)
}

// CreateSpreadsheet creates a new spreadsheet with the given title.
// Additional sheet titles create named tabs beyond the default first sheet;
// when sheetTitles is empty the spreadsheet gets the API's default "Sheet1".
func (c *Client) CreateSpreadsheet(title string, sheetTitles []string) (*SpreadsheetInfo, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}
	for _, sheetTitle := range sheetTitles {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: sheetTitle},
		})
	}

	created, err := c.svc.Spreadsheets.Create(spreadsheet).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet: %w", err)
	}

	info := toSpreadsheetInfo(created)
	return &info, nil
}

// GetSpreadsheetInfo retrieves spreadsheet properties and the list of sheets
// without fetching any cell data
func (c *Client) GetSpreadsheetInfo(spreadsheetID string) (*SpreadsheetInfo, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID is required")
	}

	spreadsheet, err := c.svc.Spreadsheets.Get(spreadsheetID).
		Fields("spreadsheetId, spreadsheetUrl, properties(title, locale, timeZone), sheets.properties").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}

	info := toSpreadsheetInfo(spreadsheet)
	return &info, nil
}

// ReadRange reads cell values from a range in A1 notation (e.g. "Sheet1!A1:C10").
// All cell values are returned as strings; trailing empty rows and cells are
// omitted by the API.
func (c *Client) ReadRange(spreadsheetID, readRange string) ([][]string, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID is required")
	}
	if readRange == "" {
		return nil, fmt.Errorf("range is required")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}

	return valuesToStrings(resp.Values), nil
}

// UpdateRange writes cell values to a range in A1 notation. The value input
// option controls parsing: RAW stores strings as-is, USER_ENTERED (the
// default when empty) parses formulas, numbers and dates.
func (c *Client) UpdateRange(spreadsheetID, updateRange string, values [][]string, valueInputOption string) (*UpdateResult, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID is required")
	}
	if updateRange == "" {
		return nil, fmt.Errorf("range is required")
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("values are required")
	}

	option, err := normalizeValueInputOption(valueInputOption)
	if err != nil {
		return nil, err
	}

	body := &sheets.ValueRange{Values: stringsToValues(values)}
	resp, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, updateRange, body).
		ValueInputOption(option).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update range %s: %w", updateRange, err)
	}

	return &UpdateResult{
		UpdatedRange:   resp.UpdatedRange,
		UpdatedRows:    resp.UpdatedRows,
		UpdatedColumns: resp.UpdatedColumns,
		UpdatedCells:   resp.UpdatedCells,
	}, nil
}

// AppendRows appends rows after the last row of the table found within the
// given range. The value input option follows the same rules as UpdateRange.
func (c *Client) AppendRows(spreadsheetID, appendRange string, values [][]string, valueInputOption string) (*AppendResult, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID is required")
	}
	if appendRange == "" {
		return nil, fmt.Errorf("range is required")
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("values are required")
	}

	option, err := normalizeValueInputOption(valueInputOption)
	if err != nil {
		return nil, err
	}

	body := &sheets.ValueRange{Values: stringsToValues(values)}
	resp, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, appendRange, body).
		ValueInputOption(option).
		InsertDataOption("INSERT_ROWS").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to append rows to %s: %w", appendRange, err)
	}

	result := &AppendResult{TableRange: resp.TableRange}
	if resp.Updates != nil {
		result.UpdatedRange = resp.Updates.UpdatedRange
		result.UpdatedRows = resp.Updates.UpdatedRows
		result.UpdatedCells = resp.Updates.UpdatedCells
	}
	return result, nil
}

// AddSheet adds a new sheet (tab) with the given title to an existing spreadsheet
func (c *Client) AddSheet(spreadsheetID, title string) (*SheetInfo, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			},
		},
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet %s: %w", title, err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return nil, fmt.Errorf("add sheet returned no reply")
	}

	info := toSheetInfo(resp.Replies[0].AddSheet.Properties)
	return &info, nil
}

// ClearRange clears cell values from a range in A1 notation. Formatting and
// data validation rules are kept. Returns the range that was cleared.
func (c *Client) ClearRange(spreadsheetID, clearRange string) (string, error) {
	if spreadsheetID == "" {
		return "", fmt.Errorf("spreadsheetID is required")
	}
	if clearRange == "" {
		return "", fmt.Errorf("range is required")
	}

	resp, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Do()
	if err != nil {
		return "", fmt.Errorf("failed to clear range %s: %w", clearRange, err)
	}

	return resp.ClearedRange, nil
}

// normalizeValueInputOption maps the user-supplied option to the API enum,
// defaulting to USER_ENTERED when empty
func normalizeValueInputOption(option string) (string, error) {
	switch strings.ToUpper(option) {
	case "":
		return ValueInputUserEntered, nil
	case ValueInputRaw:
		return ValueInputRaw, nil
	case ValueInputUserEntered:
		return ValueInputUserEntered, nil
	default:
		return "", fmt.Errorf("invalid value input option %q: must be RAW or USER_ENTERED", option)
	}
}

// valuesToStrings converts the API's untyped cell values to strings
func valuesToStrings(values [][]interface{}) [][]string {
	if values == nil {
		return nil
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellToString(cell)
		}
		rows[i] = cells
	}
	return rows
}

// cellToString renders a single cell value. The JSON decoder hands numbers
// back as float64, so integers need the shortest decimal form.
func cellToString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// stringsToValues converts string rows to the API's untyped cell values
func stringsToValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return values
}

// toSpreadsheetInfo converts a Sheets API spreadsheet to our summary type
func toSpreadsheetInfo(spreadsheet *sheets.Spreadsheet) SpreadsheetInfo {
	if spreadsheet == nil {
		return SpreadsheetInfo{}
	}

	info := SpreadsheetInfo{
		ID:  spreadsheet.SpreadsheetId,
		URL: spreadsheet.SpreadsheetUrl,
	}
	if spreadsheet.Properties != nil {
		info.Title = spreadsheet.Properties.Title
		info.Locale = spreadsheet.Properties.Locale
		info.TimeZone = spreadsheet.Properties.TimeZone
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet == nil {
			continue
		}
		info.Sheets = append(info.Sheets, toSheetInfo(sheet.Properties))
	}
	return info
}

// toSheetInfo converts Sheets API sheet properties to our summary type
func toSheetInfo(props *sheets.SheetProperties) SheetInfo {
	if props == nil {
		return SheetInfo{}
	}

	info := SheetInfo{
		SheetID: props.SheetId,
		Title:   props.Title,
		Index:   props.Index,
	}
	if props.GridProperties != nil {
		info.RowCount = props.GridProperties.RowCount
		info.ColumnCount = props.GridProperties.ColumnCount
	}
	return info
}
